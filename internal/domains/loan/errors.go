package loan

import "errors"

// Issue precondition failures. Three distinct errors so callers can tell a
// missing book from one that is simply out, but all of them mean "not
// eligible to issue".
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrBookNotAvailable = errors.New("book is currently on loan")
	ErrUserNotFound     = errors.New("user not found")
)

// ErrLoanNotFound covers both an unknown loan id and a loan that was already
// returned. A second return of the same loan is a bug in the calling code
// and is rejected, never silently accepted.
var ErrLoanNotFound = errors.New("active loan not found")
