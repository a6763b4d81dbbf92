package user

import "time"

// User is the roster entity, keyed by email. The email is immutable after
// registration and the password hash never leaves the service layer.
type User struct {
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password" json:"-"`
	Role         Role      `db:"role" json:"role"`
	JoinDate     time.Time `db:"join_date" json:"join_date"`
}

// Role enum - two roles only.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
