package book

import "errors"

var (
	// Not Found
	ErrBookNotFound = errors.New("book not found")

	// Conflict
	ErrISBNAlreadyExists = errors.New("a book with this ISBN already exists")

	// Referential guard: deletion is refused while an active loan
	// references the ISBN.
	ErrBookHasActiveLoans = errors.New("book has active loans and cannot be deleted")
)
