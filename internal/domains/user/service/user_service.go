package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"
)

// bcrypt cost 12: slow enough for offline guessing, fast enough for login.
const bcryptCost = 12

// Hash of a throwaway password, compared against when the email is unknown
// so both failure causes take a bcrypt comparison. Keeps Authenticate
// constant-shape in timing as well as in its error.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")

type userServiceImpl struct {
	repository user.Repository
	jwtManager *jwt.Manager
	limiter    user.LoginLimiter
}

func NewUserService(repo user.Repository, jwtManager *jwt.Manager, limiter user.LoginLimiter) user.Service {
	return &userServiceImpl{
		repository: repo,
		jwtManager: jwtManager,
		limiter:    limiter,
	}
}

func (s *userServiceImpl) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if !req.Role.IsValid() {
		return nil, user.ErrInvalidRole
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: failed to hash password: %w", err)
	}

	u := &user.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(passwordHash),
		Role:         req.Role,
		JoinDate:     today(),
	}

	if err := s.repository.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("user registered", map[string]interface{}{"email": u.Email, "role": u.Role.String()})
	return user.ToDTO(u), nil
}

func (s *userServiceImpl) Authenticate(ctx context.Context, email, password string) (*user.UserDTO, error) {
	u, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// Burn a comparison so an unknown email costs the same as a
			// wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	return user.ToDTO(u), nil
}

func (s *userServiceImpl) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.limiter != nil && s.limiter.TooManyAttempts(ctx, req.Email) {
		return nil, user.ErrTooManyAttempts
	}

	dto, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) && s.limiter != nil {
			s.limiter.RecordFailure(ctx, req.Email)
		}
		return nil, err
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, req.Email)
	}

	return s.issueTokens(dto)
}

func (s *userServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*user.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	// Re-read the roster so a deleted user cannot keep refreshing.
	u, err := s.repository.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issueTokens(user.ToDTO(u))
}

func (s *userServiceImpl) issueTokens(dto *user.UserDTO) (*user.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(dto.Email, dto.Name, dto.Role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(dto.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &user.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.jwtManager.AccessExpiry()),
		User:         *dto,
	}, nil
}

func (s *userServiceImpl) Update(ctx context.Context, email string, req user.UpdateUserRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	current, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	current.Name = req.Name
	current.Role = req.Role

	if err := s.repository.Update(ctx, current); err != nil {
		return nil, err
	}

	return user.ToDTO(current), nil
}

func (s *userServiceImpl) Delete(ctx context.Context, actingEmail, targetEmail string) error {
	if actingEmail == targetEmail {
		return user.ErrSelfDeletion
	}

	if err := s.repository.Delete(ctx, targetEmail); err != nil {
		return err
	}

	logger.Info("user deleted", map[string]interface{}{
		"email":      targetEmail,
		"deleted_by": actingEmail,
	})
	return nil
}

func (s *userServiceImpl) Get(ctx context.Context, email string) (*user.UserDTO, error) {
	u, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return user.ToDTO(u), nil
}

func (s *userServiceImpl) List(ctx context.Context) ([]user.UserDTO, error) {
	users, err := s.repository.List(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]user.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, *user.ToDTO(&users[i]))
	}
	return dtos, nil
}

// today truncates to a calendar date in UTC; join and loan dates are dates,
// not instants.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
