package application

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"travelhub/internal/identity/ports"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

const bearerPrefix = "Bearer "

// Resolver failures; all are UNAUTHORIZED
var (
	ErrNoToken      = errors.NewUnauthorized("access denied, no token provided")
	ErrInvalidToken = errors.NewUnauthorized("invalid token")
	ErrTokenExpired = errors.NewUnauthorized("token has expired")
	ErrUserNotFound = errors.NewUnauthorized("user not found")
)

// Resolver turns an Authorization header into the caller's identity
type Resolver struct {
	tokens ports.TokenVerifier
	users  ports.UserLookup
	log    *logger.Logger
}

// NewResolver creates a new identity resolver
func NewResolver(tokens ports.TokenVerifier, users ports.UserLookup, log *logger.Logger) *Resolver {
	return &Resolver{
		tokens: tokens,
		users:  users,
		log:    log,
	}
}

// Resolve verifies the bearer token in header and reloads the user it names.
// The role comes from the stored user, not from the token, so a demotion
// takes effect on the next request.
func (r *Resolver) Resolve(ctx context.Context, header string) (auth.Identity, error) {
	token := extractBearer(header)
	if token == "" {
		return auth.Identity{}, ErrNoToken
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		if stderrors.Is(err, auth.ErrExpiredToken) {
			return auth.Identity{}, ErrTokenExpired
		}
		return auth.Identity{}, ErrInvalidToken
	}

	identity, err := r.users.LookupIdentity(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return auth.Identity{}, ErrUserNotFound
		}
		r.log.WithContext(ctx).Error("failed to load token subject",
			zap.Error(err),
			zap.String("user_id", claims.UserID),
		)
		return auth.Identity{}, errors.NewInternal("failed to resolve identity", err)
	}

	return identity, nil
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return ""
}
