package model

import (
	"errors"
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleRegular UserRole = "regular"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r UserRole) bool {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleRegular:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Age       int       `json:"age" db:"age"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type RegisterRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Age      int      `json:"age"`
	Role     UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// TokenClaims is what authentication attaches to the request context:
// the resolved user id plus the exact token string that was presented,
// so logout can revoke that one session.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Token  string `json:"-"`
}

var (
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidEmail    = errors.New("email is invalid")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
	ErrPasswordLiteral = errors.New(`password must not contain "password"`)
	ErrNegativeAge     = errors.New("age must be a positive number")
	ErrInvalidRole     = errors.New("invalid user type")
)

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks for a local part, a domain and a dot in the domain.
func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrInvalidEmail
	}
	if !strings.Contains(parts[1], ".") || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the plaintext password rules. The stored
// value is always a bcrypt hash; this runs before hashing.
func ValidatePassword(password string) error {
	password = strings.TrimSpace(password)
	if len(password) < 8 {
		return ErrPasswordTooWeak
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return ErrPasswordLiteral
	}
	return nil
}

// ValidateRegister checks every field of a registration payload and
// normalizes name and email in place.
func ValidateRegister(req *RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return ErrNameRequired
	}
	req.Email = NormalizeEmail(req.Email)
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if req.Age < 0 {
		return ErrNegativeAge
	}
	if !ValidRole(req.Role) {
		return ErrInvalidRole
	}
	return nil
}
