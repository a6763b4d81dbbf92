package user

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// RegisterRequest creates a roster entry.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
			validation.Length(5, 255),
		),
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(2, 100),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be 8-128 characters"),
		),
		validation.Field(&r.Role,
			validation.Required.Error("role is required"),
			validation.In(RoleStudent, RoleAdmin).Error("role must be student or admin"),
		),
	)
}

// UpdateUserRequest changes profile fields. Email comes from the URL path and
// is immutable; password rotation is a separate, unimplemented path.
type UpdateUserRequest struct {
	Name string `json:"name" binding:"required"`
	Role Role   `json:"role"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(2, 100),
		),
		validation.Field(&r.Role,
			validation.Required.Error("role is required"),
			validation.In(RoleStudent, RoleAdmin).Error("role must be student or admin"),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// UserDTO is the externally visible shape of a user. No credential fields.
type UserDTO struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	JoinDate time.Time `json:"join_date"`
}

// ToDTO converts a roster entity for responses.
func ToDTO(u *User) *UserDTO {
	return &UserDTO{
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		JoinDate: u.JoinDate,
	}
}

// LoginResponse carries the token pair issued on successful authentication.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserDTO   `json:"user"`
}
