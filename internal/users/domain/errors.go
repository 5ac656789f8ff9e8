package domain

import "travelhub/pkg/errors"

// Domain-specific errors
var (
	ErrUsernameRequired   = errors.NewValidation("username is required", nil)
	ErrUsernameLength     = errors.NewValidation("username must be between 2 and 50 characters", nil)
	ErrEmailRequired      = errors.NewValidation("email is required", nil)
	ErrEmailInvalid       = errors.NewValidation("email format is invalid", nil)
	ErrPasswordTooShort   = errors.NewValidation("password must be at least 8 characters", nil)
	ErrRoleInvalid        = errors.NewValidation("role is invalid", nil)
	ErrEmailExists        = errors.NewConflict("email already exists")
	ErrInvalidCredentials = errors.NewUnauthorized("invalid email or password")
)

// NewUserNotFound creates a not found error with the user ID
func NewUserNotFound(id string) error {
	return errors.NewNotFound("user", id)
}
