package user

import "context"

// Repository is the roster data access contract.
type Repository interface {
	// Create inserts a new user.
	// Returns ErrEmailAlreadyExists when the email is taken.
	Create(ctx context.Context, u *User) error

	// FindByEmail returns ErrUserNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update rewrites name and role for an existing email. The password hash
	// and join date are untouched by this path.
	// Returns ErrUserNotFound when absent.
	Update(ctx context.Context, u *User) error

	// Delete removes a user.
	// Returns ErrUserHasActiveLoans while unreturned loans reference the
	// email, ErrUserNotFound when absent. The self-deletion check is
	// service-level policy, not storage.
	Delete(ctx context.Context, email string) error

	// List returns the full roster.
	List(ctx context.Context) ([]User, error)
}
