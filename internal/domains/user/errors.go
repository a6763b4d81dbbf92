package user

import "errors"

// Repository-level errors
var (
	// Not Found
	ErrUserNotFound = errors.New("user not found")

	// Conflict
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Referential guard: deletion is refused while the user holds
	// unreturned loans.
	ErrUserHasActiveLoans = errors.New("user has active loans and cannot be deleted")
)

// Service-level (business logic) errors
var (
	// Deliberately a single error for both unknown email and wrong
	// password, so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrSelfDeletion    = errors.New("you cannot delete your own account")
	ErrInvalidRole     = errors.New("invalid user role")
	ErrTooManyAttempts = errors.New("too many login attempts, please try again later")
)
