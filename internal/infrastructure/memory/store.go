// Package memory provides a single-process implementation of every
// repository interface over one mutex-guarded store. It backs tests with
// isolated stores and keeps the same atomicity guarantees as the PostgreSQL
// repositories: each operation, including the compound issue/return writes,
// runs entirely under the store lock.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/loan"
	"library-backend/internal/domains/user"
)

// Store is the shared state. Repositories are views over it so that the
// catalog, roster and ledger stay one logical store, exactly like the
// single database the production wiring uses.
type Store struct {
	mu         sync.Mutex
	books      map[string]book.Book
	users      map[string]user.User
	loans      map[int64]loan.Loan
	nextLoanID int64
}

func NewStore() *Store {
	return &Store{
		books:      make(map[string]book.Book),
		users:      make(map[string]user.User),
		loans:      make(map[int64]loan.Loan),
		nextLoanID: 1,
	}
}

// Books returns the catalog repository view.
func (s *Store) Books() book.Repository { return &bookRepo{s} }

// Users returns the roster repository view.
func (s *Store) Users() user.Repository { return &userRepo{s} }

// Loans returns the ledger repository view.
func (s *Store) Loans() loan.Repository { return &loanRepo{s} }

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type bookRepo struct{ s *Store }

func (r *bookRepo) Create(_ context.Context, b *book.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.books[b.ISBN]; exists {
		return book.ErrISBNAlreadyExists
	}
	r.s.books[b.ISBN] = *b
	return nil
}

func (r *bookRepo) FindByISBN(_ context.Context, isbn string) (*book.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, exists := r.s.books[isbn]
	if !exists {
		return nil, book.ErrBookNotFound
	}
	return &b, nil
}

func (r *bookRepo) Update(_ context.Context, b *book.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, exists := r.s.books[b.ISBN]
	if !exists {
		return book.ErrBookNotFound
	}

	// Availability is owned by the ledger; only descriptive fields move.
	current.Title = b.Title
	current.Author = b.Author
	current.Genre = b.Genre
	r.s.books[b.ISBN] = current
	return nil
}

func (r *bookRepo) Delete(_ context.Context, isbn string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.books[isbn]; !exists {
		return book.ErrBookNotFound
	}
	for _, l := range r.s.loans {
		if l.BookISBN == isbn && !l.Returned {
			return book.ErrBookHasActiveLoans
		}
	}

	delete(r.s.books, isbn)
	return nil
}

func (r *bookRepo) List(_ context.Context) ([]book.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	books := make([]book.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// ---------------------------------------------------------------------------
// Roster
// ---------------------------------------------------------------------------

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[u.Email]; exists {
		return user.ErrEmailAlreadyExists
	}
	r.s.users[u.Email] = *u
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, exists := r.s.users[email]
	if !exists {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, exists := r.s.users[u.Email]
	if !exists {
		return user.ErrUserNotFound
	}

	current.Name = u.Name
	current.Role = u.Role
	r.s.users[u.Email] = current
	return nil
}

func (r *userRepo) Delete(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[email]; !exists {
		return user.ErrUserNotFound
	}
	for _, l := range r.s.loans {
		if l.UserEmail == email && !l.Returned {
			return user.ErrUserHasActiveLoans
		}
	}

	delete(r.s.users, email)
	return nil
}

func (r *userRepo) List(_ context.Context) ([]user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].JoinDate.Equal(users[j].JoinDate) {
			return users[i].JoinDate.After(users[j].JoinDate)
		}
		return users[i].Email < users[j].Email
	})
	return users, nil
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

type loanRepo struct{ s *Store }

func (r *loanRepo) Issue(_ context.Context, isbn, userEmail string, issueDate time.Time) (*loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, exists := r.s.books[isbn]
	if !exists {
		return nil, loan.ErrBookNotFound
	}
	if !b.Available {
		return nil, loan.ErrBookNotAvailable
	}
	u, exists := r.s.users[userEmail]
	if !exists {
		return nil, loan.ErrUserNotFound
	}

	l := loan.Loan{
		ID:        r.s.nextLoanID,
		BookISBN:  isbn,
		BookTitle: b.Title,
		UserEmail: userEmail,
		UserName:  u.Name,
		IssueDate: issueDate,
		DueDate:   loan.DueDateFor(issueDate),
		Returned:  false,
	}
	r.s.nextLoanID++

	// Ledger insert and availability flip under the same lock hold: the
	// compound write is all-or-nothing here too.
	r.s.loans[l.ID] = l
	b.Available = false
	r.s.books[isbn] = b

	return &l, nil
}

func (r *loanRepo) Return(_ context.Context, loanID int64) (*loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, exists := r.s.loans[loanID]
	if !exists || l.Returned {
		return nil, loan.ErrLoanNotFound
	}

	l.Returned = true
	r.s.loans[loanID] = l

	// ISBN comes from the stored entry; the book may have been deleted
	// since, in which case there is no flag left to flip.
	if b, ok := r.s.books[l.BookISBN]; ok {
		b.Available = true
		r.s.books[l.BookISBN] = b
	}

	return &l, nil
}

func (r *loanRepo) ListAll(_ context.Context) ([]loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(loan.Loan) bool { return true }), nil
}

func (r *loanRepo) ListActive(_ context.Context) ([]loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(l loan.Loan) bool { return !l.Returned }), nil
}

func (r *loanRepo) ListForUser(_ context.Context, email string, onlyActive bool) ([]loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.collect(func(l loan.Loan) bool {
		if l.UserEmail != email {
			return false
		}
		return !onlyActive || !l.Returned
	}), nil
}

func (r *loanRepo) ListOverdue(_ context.Context, asOf time.Time) ([]loan.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loans := r.collect(func(l loan.Loan) bool { return l.Overdue(asOf) })
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].DueDate.Equal(loans[j].DueDate) {
			return loans[i].DueDate.Before(loans[j].DueDate)
		}
		return loans[i].ID < loans[j].ID
	})
	return loans, nil
}

// collect filters the ledger and orders newest issue first. Callers must
// hold the store lock.
func (r *loanRepo) collect(match func(loan.Loan) bool) []loan.Loan {
	var loans []loan.Loan
	for _, l := range r.s.loans {
		if match(l) {
			loans = append(loans, l)
		}
	}
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].IssueDate.Equal(loans[j].IssueDate) {
			return loans[i].IssueDate.After(loans[j].IssueDate)
		}
		return loans[i].ID > loans[j].ID
	})
	return loans
}
