package user

import "context"

// Service is the roster business logic contract.
type Service interface {
	// Register creates a user with a bcrypt-hashed password.
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)

	// Authenticate checks credentials. Unknown email and wrong password are
	// indistinguishable to the caller (ErrInvalidCredentials for both).
	Authenticate(ctx context.Context, email, password string) (*UserDTO, error)

	// Login authenticates and issues a JWT token pair.
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	// RefreshToken exchanges a valid refresh token for a new pair.
	RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error)

	// Update changes name/role. Email and password are immutable here.
	Update(ctx context.Context, email string, req UpdateUserRequest) (*UserDTO, error)

	// Delete removes a user. actingEmail is the authenticated principal;
	// deleting yourself is always refused.
	Delete(ctx context.Context, actingEmail, targetEmail string) error

	Get(ctx context.Context, email string) (*UserDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
}

// LoginLimiter throttles repeated failed authentication attempts. The redis
// implementation fails open, so the limiter can never lock out the roster
// when the cache is down.
type LoginLimiter interface {
	TooManyAttempts(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}
