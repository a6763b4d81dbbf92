package loan

import (
	"context"
	"time"
)

// Repository is the ledger contract. Issue and Return are compound writes:
// the implementation must apply the ledger mutation and the availability
// flip as one atomic unit, or fail without applying either.
type Repository interface {
	// Issue creates a ledger entry and flips the book unavailable, after
	// checking eligibility inside the same atomic unit. Two concurrent
	// issues for one ISBN can never both succeed.
	// Returns ErrBookNotFound, ErrBookNotAvailable or ErrUserNotFound.
	Issue(ctx context.Context, isbn, userEmail string, issueDate time.Time) (*Loan, error)

	// Return marks the loan returned and flips the book available. The ISBN
	// is derived from the stored ledger entry, never supplied by the
	// caller, so a mismatched ISBN cannot corrupt another book's flag.
	// Returns ErrLoanNotFound when the id is unknown or already returned.
	Return(ctx context.Context, loanID int64) (*Loan, error)

	// ListAll returns the complete ledger, returned entries included,
	// newest issue first.
	ListAll(ctx context.Context) ([]Loan, error)

	// ListActive returns all unreturned loans, newest issue first.
	ListActive(ctx context.Context) ([]Loan, error)

	// ListForUser returns a user's loans, newest issue first, optionally
	// restricted to unreturned ones.
	ListForUser(ctx context.Context, email string, onlyActive bool) ([]Loan, error)

	// ListOverdue returns unreturned loans with a due date before asOf.
	// A pure read; overdue is derived state, not a transition.
	ListOverdue(ctx context.Context, asOf time.Time) ([]Loan, error)
}
