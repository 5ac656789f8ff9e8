package infrastructure

import (
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"travelhub/internal/orders/application"
	"travelhub/internal/orders/domain"
	"travelhub/internal/orders/ports"
	"travelhub/pkg/auth"
	"travelhub/pkg/middleware"
	"travelhub/pkg/validation"
)

// HTTPHandler handles HTTP requests for orders
type HTTPHandler struct {
	useCase *application.OrderUseCase
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(useCase *application.OrderUseCase) *HTTPHandler {
	return &HTTPHandler{useCase: useCase}
}

// RegisterRoutes registers the order routes. authenticate resolves the caller;
// requireAdmin guards the admin-only routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup, authenticate, requireAdmin gin.HandlerFunc) {
	orders := r.Group("/orders", authenticate)
	{
		orders.POST("", h.CreateOrder)
		orders.POST("/checkout", h.Checkout)
		orders.GET("/mine", h.GetMyOrders)
		orders.GET("/mine/:id", h.GetUserOrderByID)
		orders.GET("/user/:user", h.GetUserOrders)
		orders.GET("/:id", h.GetOrderByID)

		orders.GET("", requireAdmin, h.GetAllOrders)
		// status is validated before the role check, so the use case guards this route
		orders.PATCH("/:id/status", h.UpdateOrderStatus)
		orders.DELETE("/:id", requireAdmin, h.DeleteOrder)
		orders.GET("/:id/history", requireAdmin, h.GetOrderHistory)
	}
}

// OrderItemRequest is one booked product in a request body
type OrderItemRequest struct {
	ProductID string   `json:"productId" binding:"required,objectid"`
	ModelType string   `json:"modelType" binding:"required,oneof=Hotel Destination"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	Price     *float64 `json:"price" binding:"required,min=0"`
}

// ShippingAddressRequest is the delivery address in a request body
type ShippingAddressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// PlaceOrderRequest is the request body of CreateOrder and Checkout
type PlaceOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1,dive"`
	TotalAmount     *float64               `json:"totalAmount" binding:"omitempty,min=0"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress" binding:"required"`
}

// UpdateStatusRequest is the request body of UpdateOrderStatus
type UpdateStatusRequest struct {
	Status *string `json:"status" example:"shipped"`
}

// UserResponse is the resolved order owner
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ProductResponse is the resolved booked product
type ProductResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// OrderItemResponse is one booked product in a response
type OrderItemResponse struct {
	ProductID string           `json:"productId"`
	Product   *ProductResponse `json:"product,omitempty"`
	ModelType string           `json:"modelType"`
	Quantity  int              `json:"quantity"`
	Price     float64          `json:"price"`
}

// ShippingAddressResponse is the delivery address in a response
type ShippingAddressResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderResponse is the response body for order operations
type OrderResponse struct {
	ID              string                  `json:"id"`
	User            UserResponse            `json:"user"`
	Items           []OrderItemResponse     `json:"items"`
	TotalAmount     float64                 `json:"totalAmount"`
	ShippingAddress ShippingAddressResponse `json:"shippingAddress"`
	Status          string                  `json:"status"`
	OrderDate       time.Time               `json:"orderDate"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// HistoryEntryResponse is one recorded order event
type HistoryEntryResponse struct {
	EventID        string    `json:"eventId"`
	EventType      string    `json:"eventType"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	ActorID        string    `json:"actorId"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func identity(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}

func (req PlaceOrderRequest) toInput(id auth.Identity) application.PlaceOrderInput {
	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		var price float64
		if item.Price != nil {
			price = *item.Price
		}
		productID := item.ProductID
		if oid, err := primitive.ObjectIDFromHex(productID); err == nil {
			productID = oid.Hex()
		}
		items[i] = domain.OrderItem{
			ProductID: productID,
			ModelType: domain.ModelType(item.ModelType),
			Quantity:  item.Quantity,
			Price:     price,
		}
	}

	return application.PlaceOrderInput{
		Identity:    id,
		Items:       items,
		TotalAmount: req.TotalAmount,
		ShippingAddress: domain.ShippingAddress{
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
	}
}

func toResponse(details application.OrderDetails) OrderResponse {
	order := details.Order

	user := UserResponse{ID: order.UserID}
	if details.User != nil {
		user.Username = details.User.Username
		user.Email = details.User.Email
	}

	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			ModelType: string(item.ModelType),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		ref := ports.ProductRef{ModelType: item.ModelType, ID: item.ProductID}
		if p, ok := details.Products[ref]; ok {
			items[i].Product = &ProductResponse{ID: p.ID, Name: p.Name, Location: p.Location}
		}
	}

	return OrderResponse{
		ID:          order.ID,
		User:        user,
		Items:       items,
		TotalAmount: order.TotalAmount,
		ShippingAddress: ShippingAddressResponse{
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		Status:    string(order.Status),
		OrderDate: order.OrderDate,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func toListResponse(list []application.OrderDetails) []OrderResponse {
	out := make([]OrderResponse, len(list))
	for i, details := range list {
		out[i] = toResponse(details)
	}
	return out
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"data":     data,
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// CreateOrder handles POST /orders
//
//	@Summary	Create an order
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		PlaceOrderRequest	true	"order"
//	@Success	201		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	401		{object}	errors.ErrorResponse
//	@Router		/orders [post]
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := validation.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	output, err := h.useCase.CreateOrder(c.Request.Context(), req.toInput(identity(c)))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, toResponse(output.Order))
}

// Checkout handles POST /orders/checkout
//
//	@Summary	Place an order whose total is checked against its items
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		PlaceOrderRequest	true	"order"
//	@Success	200		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Router		/orders/checkout [post]
func (h *HTTPHandler) Checkout(c *gin.Context) {
	var req PlaceOrderRequest
	if err := validation.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	output, err := h.useCase.Checkout(c.Request.Context(), req.toInput(identity(c)))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toResponse(output.Order))
}

// GetOrderByID handles GET /orders/:id
//
//	@Summary	Get an order (owner or admin)
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"order id"
//	@Success	200	{object}	OrderResponse
//	@Failure	403	{object}	errors.ErrorResponse
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/{id} [get]
func (h *HTTPHandler) GetOrderByID(c *gin.Context) {
	output, err := h.useCase.GetOrderByID(c.Request.Context(), application.GetOrderInput{
		Identity: identity(c),
		ID:       c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toResponse(output.Order))
}

// GetUserOrders handles GET /orders/user/:user
//
//	@Summary	List a user's orders (that user or admin)
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		user	path		string	true	"user id"
//	@Success	200		{array}		OrderResponse
//	@Failure	403		{object}	errors.ErrorResponse
//	@Router		/orders/user/{user} [get]
func (h *HTTPHandler) GetUserOrders(c *gin.Context) {
	output, err := h.useCase.GetUserOrders(c.Request.Context(), application.ListUserOrdersInput{
		Identity: identity(c),
		UserID:   c.Param("user"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toListResponse(output.Orders))
}

// GetMyOrders handles GET /orders/mine
//
//	@Summary	List the caller's orders
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	OrderResponse
//	@Router		/orders/mine [get]
func (h *HTTPHandler) GetMyOrders(c *gin.Context) {
	output, err := h.useCase.GetMyOrders(c.Request.Context(), identity(c))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toListResponse(output.Orders))
}

// GetUserOrderByID handles GET /orders/mine/:id
//
//	@Summary	Get one of the caller's orders
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"order id"
//	@Success	200	{object}	OrderResponse
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/mine/{id} [get]
func (h *HTTPHandler) GetUserOrderByID(c *gin.Context) {
	output, err := h.useCase.GetUserOrderByID(c.Request.Context(), application.GetOrderInput{
		Identity: identity(c),
		ID:       c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toResponse(output.Order))
}

// GetAllOrders handles GET /orders
//
//	@Summary	List every order
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		OrderResponse
//	@Failure	403	{object}	errors.ErrorResponse
//	@Router		/orders [get]
func (h *HTTPHandler) GetAllOrders(c *gin.Context) {
	output, err := h.useCase.GetAllOrders(c.Request.Context(), identity(c))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toListResponse(output.Orders))
}

// UpdateOrderStatus handles PATCH /orders/:id/status
//
//	@Summary	Change an order's status
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"order id"
//	@Param		body	body		UpdateStatusRequest	true	"new status"
//	@Success	200		{object}	OrderResponse
//	@Failure	400		{object}	errors.ErrorResponse
//	@Failure	403		{object}	errors.ErrorResponse
//	@Failure	404		{object}	errors.ErrorResponse
//	@Router		/orders/{id}/status [patch]
func (h *HTTPHandler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		c.Error(validation.FromBindingError(err))
		return
	}

	output, err := h.useCase.UpdateOrderStatus(c.Request.Context(), application.UpdateOrderStatusInput{
		Identity: identity(c),
		ID:       c.Param("id"),
		Status:   req.Status,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, toResponse(output.Order))
}

// DeleteOrder handles DELETE /orders/:id
//
//	@Summary	Delete an order
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"order id"
//	@Success	200	{object}	map[string]string
//	@Failure	403	{object}	errors.ErrorResponse
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/{id} [delete]
func (h *HTTPHandler) DeleteOrder(c *gin.Context) {
	err := h.useCase.DeleteOrder(c.Request.Context(), application.GetOrderInput{
		Identity: identity(c),
		ID:       c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Order deleted successfully",
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// GetOrderHistory handles GET /orders/:id/history
//
//	@Summary	List recorded events of an order
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"order id"
//	@Success	200	{array}		HistoryEntryResponse
//	@Failure	403	{object}	errors.ErrorResponse
//	@Failure	404	{object}	errors.ErrorResponse
//	@Router		/orders/{id}/history [get]
func (h *HTTPHandler) GetOrderHistory(c *gin.Context) {
	output, err := h.useCase.GetOrderHistory(c.Request.Context(), application.GetOrderInput{
		Identity: identity(c),
		ID:       c.Param("id"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	entries := make([]HistoryEntryResponse, len(output.Entries))
	for i, e := range output.Entries {
		entries[i] = HistoryEntryResponse{
			EventID:        e.EventID,
			EventType:      e.EventType,
			Status:         e.Status,
			PreviousStatus: e.PreviousStatus,
			ActorID:        e.ActorID,
			OccurredAt:     e.OccurredAt,
		}
	}
	respond(c, http.StatusOK, entries)
}
