package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"travelhub/pkg/auth"
)

// User represents the user domain entity
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmailRegex is the pattern for validating emails
var EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lower-cases and trims an address before storage or lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user entity
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if len(u.Username) < 2 || len(u.Username) > 50 {
		return ErrUsernameLength
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	if !EmailRegex.MatchString(u.Email) {
		return ErrEmailInvalid
	}
	if !u.Role.Valid() {
		return ErrRoleInvalid
	}
	return nil
}

// NewUser creates a new user with validation. passwordHash must already be hashed.
func NewUser(username, email, passwordHash string, role auth.Role, now time.Time) (*User, error) {
	user := &User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Identity is the authorization view of the user
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role}
}
