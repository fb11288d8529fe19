package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is the most bytes bcrypt will hash.
	MaxPasswordLength = 72
)

// Role is the authorization role carried in a user's token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves the service layer.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Registration is the input to account creation.
type Registration struct {
	Username string
	Email    string
	Password string
}

// NormalizeEmail trims and lower-cases an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the registration fields. The returned error wraps
// ErrValidation and names the offending field.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	email := NormalizeEmail(r.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", ErrValidation)
	}
	if len(r.Password) < MinPasswordLength || len(r.Password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be between %d and %d characters",
			ErrValidation, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}
