package infrastructure

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travelhub/internal/users/application"
	"travelhub/internal/users/domain"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/middleware"
	"travelhub/pkg/validation"
)

// HTTPHandler handles HTTP requests for users
type HTTPHandler struct {
	useCase *application.UserUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.UserUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the account routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc) {
	users := r.Group("/auth")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.GET("/me", authenticate, h.Me)
	}
}

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the request body for signing in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a user; the password hash never leaves the service
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func toAuthResponse(out *application.AuthOutput) AuthResponse {
	return AuthResponse{
		User:      toUserResponse(out.User),
		Token:     out.Token,
		ExpiresAt: out.ExpiresAt,
	}
}

// Register handles POST /auth/register
//
//	@Summary	Create an account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RegisterRequest	true	"account"
//	@Success	201		{object}	AuthResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/auth/register [post]
func (h *HTTPHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := validation.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	output, err := h.useCase.Register(c.Request.Context(), application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":     toAuthResponse(output),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// Login handles POST /auth/login
//
//	@Summary	Sign in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LoginRequest	true	"credentials"
//	@Success	200		{object}	AuthResponse
//	@Failure	401		{object}	errors.ErrorResponse
//	@Router		/auth/login [post]
func (h *HTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := validation.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	output, err := h.useCase.Login(c.Request.Context(), application.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     toAuthResponse(output),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// Me handles GET /auth/me
//
//	@Summary	The caller's profile
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	UserResponse
//	@Failure	401	{object}	errors.ErrorResponse
//	@Router		/auth/me [get]
func (h *HTTPHandler) Me(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		c.Error(errors.NewUnauthorized("access denied, please login"))
		return
	}

	user, err := h.useCase.GetUser(c.Request.Context(), identity.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     toUserResponse(user),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}
