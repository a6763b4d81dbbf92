package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/loan"
	"library-backend/internal/domains/user"
	"library-backend/internal/infrastructure/memory"
)

type loanFixture struct {
	store   *memory.Store
	service loan.Service
}

func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()
	store := memory.NewStore()
	return &loanFixture{
		store:   store,
		service: NewLoanService(store.Loans()),
	}
}

func (f *loanFixture) seedBook(t *testing.T, isbn, title string) {
	t.Helper()
	err := f.store.Books().Create(context.Background(), &book.Book{
		ISBN:      isbn,
		Title:     title,
		Author:    "Test Author",
		Genre:     "Fiction",
		Available: true,
	})
	require.NoError(t, err)
}

func (f *loanFixture) seedUser(t *testing.T, email, name string) {
	t.Helper()
	err := f.store.Users().Create(context.Background(), &user.User{
		Email:        email,
		Name:         name,
		PasswordHash: "x",
		Role:         user.RoleStudent,
		JoinDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func (f *loanFixture) book(t *testing.T, isbn string) *book.Book {
	t.Helper()
	b, err := f.store.Books().FindByISBN(context.Background(), isbn)
	require.NoError(t, err)
	return b
}

func TestIssueMarksBookUnavailable(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "9780134190440", "The Go Programming Language")
	f.seedUser(t, "alice@example.com", "Alice")

	l, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN:  "9780134190440",
		UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "9780134190440", l.BookISBN)
	assert.Equal(t, "The Go Programming Language", l.BookTitle)
	assert.Equal(t, "alice@example.com", l.UserEmail)
	assert.Equal(t, "Alice", l.UserName)
	assert.False(t, l.Returned)
	assert.Equal(t, l.IssueDate.AddDate(0, 0, loan.LoanPeriodDays), l.DueDate)

	assert.False(t, f.book(t, "9780134190440").Available)
}

func TestIssueBookAlreadyOnLoan(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "One Copy Only")
	f.seedUser(t, "alice@example.com", "Alice")
	f.seedUser(t, "bob@example.com", "Bob")

	_, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "bob@example.com",
	})
	assert.ErrorIs(t, err, loan.ErrBookNotAvailable)

	// A refused issue leaves no ledger entry behind.
	active, err := f.service.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alice@example.com", active[0].UserEmail)
}

func TestIssueUnknownBookAndUser(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "Known Book")
	f.seedUser(t, "alice@example.com", "Alice")

	_, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-missing", UserEmail: "alice@example.com",
	})
	assert.ErrorIs(t, err, loan.ErrBookNotFound)

	_, err = f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "ghost@example.com",
	})
	assert.ErrorIs(t, err, loan.ErrUserNotFound)

	// Neither failure flipped the availability flag.
	assert.True(t, f.book(t, "isbn-1").Available)
}

func TestIssueValidation(t *testing.T) {
	f := newLoanFixture(t)

	_, err := f.service.Issue(context.Background(), loan.IssueRequest{})
	assert.Error(t, err)

	_, err = f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "not-an-email",
	})
	assert.Error(t, err)
}

func TestReturnRestoresAvailability(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "Borrowed Book")
	f.seedUser(t, "alice@example.com", "Alice")

	issued, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	returned, err := f.service.Return(context.Background(), issued.ID)
	require.NoError(t, err)
	assert.True(t, returned.Returned)
	assert.Equal(t, issued.BookISBN, returned.BookISBN)
	assert.True(t, f.book(t, "isbn-1").Available)

	active, err := f.service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestReturnTwiceFails(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "Borrowed Book")
	f.seedUser(t, "alice@example.com", "Alice")

	issued, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Return(context.Background(), issued.ID)
	require.NoError(t, err)

	_, err = f.service.Return(context.Background(), issued.ID)
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)

	// The second return did not disturb the flag.
	assert.True(t, f.book(t, "isbn-1").Available)
}

func TestReturnUnknownLoan(t *testing.T) {
	f := newLoanFixture(t)

	_, err := f.service.Return(context.Background(), 404)
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
}

func TestReissueAfterReturn(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "Popular Book")
	f.seedUser(t, "alice@example.com", "Alice")
	f.seedUser(t, "bob@example.com", "Bob")

	first, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Return(context.Background(), first.ID)
	require.NoError(t, err)

	second, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "bob@example.com",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, f.book(t, "isbn-1").Available)

	// The ledger keeps both entries; only one is active.
	all, err := f.service.ListForUser(context.Background(), "alice@example.com", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.True(t, all[0].Returned)
}

func TestConcurrentIssueSingleWinner(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "Contested Book")

	const workers = 32
	for i := 0; i < workers; i++ {
		f.seedUser(t, userEmail(i), "Reader")
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Issue(context.Background(), loan.IssueRequest{
				BookISBN: "isbn-1", UserEmail: userEmail(i),
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, loan.ErrBookNotAvailable)
		}
	}
	assert.Equal(t, 1, successes)

	active, err := f.service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.False(t, f.book(t, "isbn-1").Available)
}

func userEmail(i int) string {
	return fmt.Sprintf("reader%02d@example.com", i)
}

func TestListForUserActiveFilter(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "First Book")
	f.seedBook(t, "isbn-2", "Second Book")
	f.seedUser(t, "alice@example.com", "Alice")
	f.seedUser(t, "bob@example.com", "Bob")

	first, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-2", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Return(context.Background(), first.ID)
	require.NoError(t, err)

	all, err := f.service.ListForUser(context.Background(), "alice@example.com", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.service.ListForUser(context.Background(), "alice@example.com", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "isbn-2", active[0].BookISBN)
	assert.False(t, active[0].Returned)

	// Another user's history stays invisible.
	other, err := f.service.ListForUser(context.Background(), "bob@example.com", false)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestOverdueIsDerivedFromDueDate(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "Late Book")
	f.seedBook(t, "isbn-2", "On Time Book")
	f.seedUser(t, "alice@example.com", "Alice")
	f.seedUser(t, "bob@example.com", "Bob")

	issued, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-2", UserEmail: "bob@example.com",
	})
	require.NoError(t, err)

	// Fresh loans are inside the period: the service-level view is empty.
	overdue, err := f.service.ListOverdue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// Past the due date the same entry shows up, without any stored flag.
	asOf := issued.DueDate.AddDate(0, 0, 1)
	overdue, err = f.store.Loans().ListOverdue(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	// A returned loan is never overdue, however late it was.
	_, err = f.service.Return(context.Background(), issued.ID)
	require.NoError(t, err)

	overdue, err = f.store.Loans().ListOverdue(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "isbn-2", overdue[0].BookISBN)
}

func TestLoanOrderingNewestFirst(t *testing.T) {
	f := newLoanFixture(t)
	f.seedUser(t, "alice@example.com", "Alice")
	for _, isbn := range []string{"isbn-1", "isbn-2", "isbn-3"} {
		f.seedBook(t, isbn, "Book "+isbn)
	}

	for _, isbn := range []string{"isbn-1", "isbn-2", "isbn-3"} {
		_, err := f.service.Issue(context.Background(), loan.IssueRequest{
			BookISBN: isbn, UserEmail: "alice@example.com",
		})
		require.NoError(t, err)
	}

	active, err := f.service.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 3)

	// Same issue date, so the id breaks the tie: latest issue first.
	assert.Equal(t, "isbn-3", active[0].BookISBN)
	assert.Equal(t, "isbn-2", active[1].BookISBN)
	assert.Equal(t, "isbn-1", active[2].BookISBN)
}

func TestListAllIncludesReturnedEntries(t *testing.T) {
	f := newLoanFixture(t)
	f.seedBook(t, "isbn-1", "First Book")
	f.seedBook(t, "isbn-2", "Second Book")
	f.seedUser(t, "alice@example.com", "Alice")

	first, err := f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-1", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Issue(context.Background(), loan.IssueRequest{
		BookISBN: "isbn-2", UserEmail: "alice@example.com",
	})
	require.NoError(t, err)

	_, err = f.service.Return(context.Background(), first.ID)
	require.NoError(t, err)

	// The audit view keeps the whole ledger; the active view narrows it.
	all, err := f.service.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "isbn-2", all[0].BookISBN)
	assert.Equal(t, "isbn-1", all[1].BookISBN)
	assert.True(t, all[1].Returned)

	active, err := f.service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestConcurrentIssueAndDeleteNeverOrphans(t *testing.T) {
	// A delete racing an issue must end in one of two consistent states:
	// the book survives with the loan active, or the delete wins and no
	// active loan references the ISBN. Never both.
	for round := 0; round < 20; round++ {
		f := newLoanFixture(t)
		f.seedBook(t, "isbn-1", "Contested Book")
		f.seedUser(t, "alice@example.com", "Alice")

		var wg sync.WaitGroup
		var issueErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, issueErr = f.service.Issue(context.Background(), loan.IssueRequest{
				BookISBN: "isbn-1", UserEmail: "alice@example.com",
			})
		}()
		go func() {
			defer wg.Done()
			deleteErr = f.store.Books().Delete(context.Background(), "isbn-1")
		}()
		wg.Wait()

		active, err := f.service.ListActive(context.Background())
		require.NoError(t, err)

		_, findErr := f.store.Books().FindByISBN(context.Background(), "isbn-1")
		if findErr != nil {
			require.ErrorIs(t, findErr, book.ErrBookNotFound)
			require.NoError(t, deleteErr)
			assert.Empty(t, active, "deleted book must not have an active loan")
		} else if issueErr == nil {
			require.Len(t, active, 1)
			assert.False(t, f.book(t, "isbn-1").Available)
		}
	}
}

func TestDueDateFor(t *testing.T) {
	issue := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), loan.DueDateFor(issue))
}
