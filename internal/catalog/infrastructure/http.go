package infrastructure

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelhub/internal/catalog/application"
	"travelhub/internal/catalog/domain"
	"travelhub/pkg/auth"
	"travelhub/pkg/middleware"
	"travelhub/pkg/validation"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"data":     data,
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// ResourceHandler serves CRUD routes for one catalog resource
type ResourceHandler[T any, PT domain.DocumentPtr[T]] struct {
	svc *application.Service[T, PT]
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler[T any, PT domain.DocumentPtr[T]](svc *application.Service[T, PT]) *ResourceHandler[T, PT] {
	return &ResourceHandler[T, PT]{svc: svc}
}

// RegisterRoutes mounts list, get and search publicly and the writes behind admin
func (h *ResourceHandler[T, PT]) RegisterRoutes(g *gin.RouterGroup, admin ...gin.HandlerFunc) {
	if h.svc.Searchable() {
		g.GET("/search", h.Search)
	}
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	writes := g.Group("", admin...)
	writes.POST("", h.Create)
	writes.PUT("/:id", h.Update)
	writes.DELETE("/:id", h.Delete)
}

// Create handles POST /<resource>
func (h *ResourceHandler[T, PT]) Create(c *gin.Context) {
	doc := new(T)
	if err := validation.BindJSON(c, doc); err != nil {
		c.Error(err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), doc)
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, created)
}

// List handles GET /<resource>
func (h *ResourceHandler[T, PT]) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), nil)
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, docs)
}

// Get handles GET /<resource>/:id
func (h *ResourceHandler[T, PT]) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, doc)
}

// Update handles PUT /<resource>/:id; absent fields keep their value
func (h *ResourceHandler[T, PT]) Update(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.Error(validation.FromBindingError(err))
		return
	}

	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, doc)
}

// Delete handles DELETE /<resource>/:id
func (h *ResourceHandler[T, PT]) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "deleted successfully",
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// Search handles GET /<resource>/search?q=
func (h *ResourceHandler[T, PT]) Search(c *gin.Context) {
	docs, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, docs)
}

// AgencyHandler adds the cross-collection agency routes
type AgencyHandler struct {
	*ResourceHandler[domain.Agency, *domain.Agency]
	svc *application.AgencyService
}

// NewAgencyHandler creates a new agency handler
func NewAgencyHandler(svc *application.AgencyService) *AgencyHandler {
	return &AgencyHandler{
		ResourceHandler: NewResourceHandler(svc.Service),
		svc:             svc,
	}
}

// RegisterRoutes mounts the agency routes; GET /:id returns the full details
func (h *AgencyHandler) RegisterRoutes(g *gin.RouterGroup, admin ...gin.HandlerFunc) {
	g.GET("/search", h.Search)
	g.GET("/category/:categoryName", h.ByCategory)
	g.GET("", h.List)
	g.GET("/:id", h.Details)

	writes := g.Group("", admin...)
	writes.POST("", h.Create)
	writes.PUT("/:id", h.Update)
	writes.DELETE("/:id", h.Delete)
}

// Details handles GET /agencies/:id
//
//	@Summary	Agency with its destinations, hotels, categories and reviews
//	@Tags		catalog
//	@Produce	json
//	@Param		id	path		string	true	"agency id"
//	@Success	200	{object}	domain.AgencyDetails
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/agencies/{id} [get]
func (h *AgencyHandler) Details(c *gin.Context) {
	details, err := h.svc.Details(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, details)
}

// ByCategory handles GET /agencies/category/:categoryName
//
//	@Summary	Agencies in a category
//	@Tags		catalog
//	@Produce	json
//	@Param		categoryName	path		string	true	"category name"
//	@Success	200				{array}		domain.Agency
//	@Failure	404				{object}	errors.ErrorResponse
//	@Router		/agencies/category/{categoryName} [get]
func (h *AgencyHandler) ByCategory(c *gin.Context) {
	agencies, err := h.svc.ByCategory(c.Request.Context(), c.Param("categoryName"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, agencies)
}

// ReviewHandler serves the review routes
type ReviewHandler struct {
	svc *application.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(svc *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// RegisterRoutes mounts the review routes; writes need an authenticated caller
func (h *ReviewHandler) RegisterRoutes(g *gin.RouterGroup, authenticate gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", authenticate, h.Create)
	g.DELETE("/:id", authenticate, h.Delete)
}

func caller(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}

// Create handles POST /reviews
//
//	@Summary	Review an agency
//	@Tags		catalog
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		domain.Review	true	"review"
//	@Success	201		{object}	domain.Review
//	@Failure	400		{object}	errors.ErrorResponse
//	@Router		/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var review domain.Review
	if err := validation.BindJSON(c, &review); err != nil {
		c.Error(err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), caller(c), &review)
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, created)
}

// List handles GET /reviews?agency=
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.svc.List(c.Request.Context(), c.Query("agency"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, reviews)
}

// Get handles GET /reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, review)
}

// Delete handles DELETE /reviews/:id
//
//	@Summary	Delete a review (author or admin)
//	@Tags		catalog
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"review id"
//	@Success	200	{object}	map[string]string
//	@Failure	403	{object}	errors.ErrorResponse
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "review deleted successfully",
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}
