package book

import "context"

// Repository is the catalog data access contract.
//
// There is deliberately no SetAvailability here: the availability flag is
// flipped only inside the lending engine's transactions, together with the
// ledger write. Exposing it would let callers break the
// availability-iff-active-loan invariant.
type Repository interface {
	// Create inserts a new book.
	// Returns ErrISBNAlreadyExists when the ISBN is taken.
	Create(ctx context.Context, b *Book) error

	// FindByISBN returns ErrBookNotFound when absent.
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Update rewrites title/author/genre for an existing ISBN.
	// Returns ErrBookNotFound when absent.
	Update(ctx context.Context, b *Book) error

	// Delete removes a book.
	// Returns ErrBookHasActiveLoans while an unreturned loan references the
	// ISBN, ErrBookNotFound when absent.
	Delete(ctx context.Context, isbn string) error

	// List returns the full catalog with current availability.
	List(ctx context.Context) ([]Book, error)
}
