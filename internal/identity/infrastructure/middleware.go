package infrastructure

import (
	"github.com/gin-gonic/gin"

	"travelhub/internal/identity/application"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// ErrAdminRequired is returned to authenticated non-admin callers of admin routes
var ErrAdminRequired = errors.NewForbidden("only admin can perform this action")

// Authenticate resolves the caller from the Authorization header and attaches
// the identity to the request context; failures abort with 401
func Authenticate(resolver *application.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		ctx := auth.WithIdentity(c.Request.Context(), identity)
		ctx = logger.WithUserIDContext(ctx, identity.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			c.Error(application.ErrNoToken)
			c.Abort()
			return
		}
		if !identity.IsAdmin() {
			c.Error(ErrAdminRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}
