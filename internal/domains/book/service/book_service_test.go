package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/user"
	"library-backend/internal/infrastructure/memory"
)

type bookFixture struct {
	store   *memory.Store
	service book.Service
}

func newBookFixture(t *testing.T) *bookFixture {
	t.Helper()
	store := memory.NewStore()
	return &bookFixture{
		store:   store,
		service: NewBookService(store.Books()),
	}
}

func (f *bookFixture) add(t *testing.T, isbn, title string) *book.Book {
	t.Helper()
	b, err := f.service.Add(context.Background(), book.AddBookRequest{
		ISBN:   isbn,
		Title:  title,
		Author: "Test Author",
		Genre:  "Fiction",
	})
	require.NoError(t, err)
	return b
}

func TestAddBookStartsAvailable(t *testing.T) {
	f := newBookFixture(t)

	b := f.add(t, "9780134190440", "The Go Programming Language")
	assert.True(t, b.Available)

	stored, err := f.service.Get(context.Background(), "9780134190440")
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", stored.Title)
	assert.True(t, stored.Available)
}

func TestAddDuplicateISBN(t *testing.T) {
	f := newBookFixture(t)
	f.add(t, "isbn-1", "Original")

	_, err := f.service.Add(context.Background(), book.AddBookRequest{
		ISBN: "isbn-1", Title: "Duplicate", Author: "B", Genre: "G",
	})
	assert.ErrorIs(t, err, book.ErrISBNAlreadyExists)

	// The original registration is untouched.
	stored, err := f.service.Get(context.Background(), "isbn-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Title)
}

func TestAddBookValidation(t *testing.T) {
	f := newBookFixture(t)

	_, err := f.service.Add(context.Background(), book.AddBookRequest{})
	assert.Error(t, err)

	_, err = f.service.Add(context.Background(), book.AddBookRequest{
		ISBN: "isbn-1", Title: "No Author", Genre: "G",
	})
	assert.Error(t, err)
}

func TestUpdateBookKeepsAvailability(t *testing.T) {
	f := newBookFixture(t)
	f.add(t, "isbn-1", "Old Title")

	// Put the book on loan so the flag is false going into the update.
	require.NoError(t, f.store.Users().Create(context.Background(), &user.User{
		Email: "alice@example.com", Name: "Alice", PasswordHash: "x",
		Role: user.RoleStudent, JoinDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	_, err := f.store.Loans().Issue(context.Background(), "isbn-1", "alice@example.com",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	updated, err := f.service.Update(context.Background(), "isbn-1", book.UpdateBookRequest{
		Title: "New Title", Author: "New Author", Genre: "New Genre",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)

	stored, err := f.service.Get(context.Background(), "isbn-1")
	require.NoError(t, err)
	assert.Equal(t, "New Title", stored.Title)
	assert.False(t, stored.Available)

	// The ledger snapshot keeps the title as it was at issue time.
	history, err := f.store.Loans().ListForUser(context.Background(), "alice@example.com", false)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Old Title", history[0].BookTitle)
}

func TestUpdateUnknownBook(t *testing.T) {
	f := newBookFixture(t)

	_, err := f.service.Update(context.Background(), "isbn-missing", book.UpdateBookRequest{
		Title: "T", Author: "A", Genre: "G",
	})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestDeleteBookRefusedWhileOnLoan(t *testing.T) {
	f := newBookFixture(t)
	f.add(t, "isbn-1", "Borrowed Book")

	require.NoError(t, f.store.Users().Create(context.Background(), &user.User{
		Email: "alice@example.com", Name: "Alice", PasswordHash: "x",
		Role: user.RoleStudent, JoinDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	issued, err := f.store.Loans().Issue(context.Background(), "isbn-1", "alice@example.com",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), "isbn-1")
	assert.ErrorIs(t, err, book.ErrBookHasActiveLoans)

	// Once returned, deletion succeeds and the ledger entry survives it.
	_, err = f.store.Loans().Return(context.Background(), issued.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), "isbn-1"))

	_, err = f.service.Get(context.Background(), "isbn-1")
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	history, err := f.store.Loans().ListForUser(context.Background(), "alice@example.com", false)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDeleteUnknownBook(t *testing.T) {
	f := newBookFixture(t)

	err := f.service.Delete(context.Background(), "isbn-missing")
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestListBooksOrderedByTitle(t *testing.T) {
	f := newBookFixture(t)
	f.add(t, "isbn-3", "Zebra Stripes")
	f.add(t, "isbn-1", "Antifragile")
	f.add(t, "isbn-2", "Middlemarch")

	books, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Antifragile", books[0].Title)
	assert.Equal(t, "Middlemarch", books[1].Title)
	assert.Equal(t, "Zebra Stripes", books[2].Title)
}
