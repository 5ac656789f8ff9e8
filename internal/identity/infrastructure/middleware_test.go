package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelhub/internal/identity/application"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
	"travelhub/pkg/middleware"
)

type stubUsers map[string]auth.Identity

func (s stubUsers) LookupIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	if id, ok := s[userID]; ok {
		return id, nil
	}
	return auth.Identity{}, errors.NewNotFound("user", userID)
}

func setup(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	tokens := auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)
	resolver := application.NewResolver(tokens, stubUsers{
		"u1":   {UserID: "u1", Role: auth.RoleUser},
		"root": {UserID: "root", Role: auth.RoleAdmin},
	}, log)

	r := gin.New()
	r.Use(middleware.TraceID(), middleware.ErrorHandler(log))
	r.GET("/me", Authenticate(resolver), func(c *gin.Context) {
		id, _ := auth.IdentityFromContext(c.Request.Context())
		c.String(http.StatusOK, id.UserID)
	})
	r.GET("/admin", Authenticate(resolver), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, tokens
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	r, tokens := setup(t)
	token, _, err := tokens.Issue("u1", auth.RoleUser)
	require.NoError(t, err)

	rec := get(r, "/me", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	rec = get(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no token provided")

	rec = get(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestRequireAdmin(t *testing.T) {
	r, tokens := setup(t)
	user, _, err := tokens.Issue("u1", auth.RoleUser)
	require.NoError(t, err)
	admin, _, err := tokens.Issue("root", auth.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", user).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", admin).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
}
