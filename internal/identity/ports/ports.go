package ports

import (
	"context"

	"travelhub/pkg/auth"
)

// TokenVerifier checks a bearer credential and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup loads the current identity of a user by id.
// It returns a NOT_FOUND AppError when the user no longer exists.
type UserLookup interface {
	LookupIdentity(ctx context.Context, userID string) (auth.Identity, error)
}
