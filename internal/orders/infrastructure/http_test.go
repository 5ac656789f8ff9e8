package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelhub/internal/orders/application"
	"travelhub/internal/orders/domain"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
	"travelhub/pkg/middleware"
)

type memoryRepo struct {
	orders map[string]*domain.Order
	seq    int
}

func (m *memoryRepo) Create(ctx context.Context, order *domain.Order) error {
	m.seq++
	order.ID = fmt.Sprintf("%024x", m.seq)
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, domain.NewOrderNotFound(id)
}

func (m *memoryRepo) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	o, err := m.GetByID(ctx, id)
	if err != nil || o.UserID != userID {
		return nil, domain.NewOrderNotFound(id)
	}
	return o, nil
}

func (m *memoryRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	copied := *o
	return &copied, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.orders[id]; !ok {
		return domain.NewOrderNotFound(id)
	}
	delete(m.orders, id)
	return nil
}

const testUserHeader = "X-Test-User"

// fakeAuthenticate reads "<id>:<role>" from a test header
func fakeAuthenticate(c *gin.Context) {
	raw := c.GetHeader(testUserHeader)
	if raw == "" {
		c.Error(errors.NewUnauthorized("access denied, no token provided"))
		c.Abort()
		return
	}
	var id auth.Identity
	for i := range raw {
		if raw[i] == ':' {
			id = auth.Identity{UserID: raw[:i], Role: auth.Role(raw[i+1:])}
		}
	}
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
	c.Next()
}

func fakeRequireAdmin(c *gin.Context) {
	if id, _ := auth.IdentityFromContext(c.Request.Context()); !id.IsAdmin() {
		c.Error(errors.NewForbidden("only admin can perform this action"))
		c.Abort()
		return
	}
	c.Next()
}

func newTestServer() (*gin.Engine, *memoryRepo) {
	gin.SetMode(gin.TestMode)
	repo := &memoryRepo{orders: make(map[string]*domain.Order)}
	uc := application.NewOrderUseCase(repo, nil, nil, nil, nil, application.DefaultPolicy(), logger.NewNop())

	r := gin.New()
	r.Use(middleware.TraceID(), middleware.ErrorHandler(logger.NewNop()))
	NewHTTPHandler(uc).RegisterRoutes(r.Group("/api/v1"), fakeAuthenticate, fakeRequireAdmin)
	return r, repo
}

func do(r *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func orderBody(total interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": "507f1f77bcf86cd799439011", "modelType": "Hotel", "quantity": 2, "price": 100},
		},
		"shippingAddress": map[string]string{
			"street": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
		},
	}
	if total != nil {
		body["totalAmount"] = total
	}
	return body
}

type orderEnvelope struct {
	Data    OrderResponse `json:"data"`
	TraceID string        `json:"trace_id"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestCreateOrderHandler(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", orderBody(200))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var env orderEnvelope
	decode(t, rec, &env)
	assert.Equal(t, "alice", env.Data.User.ID)
	assert.Equal(t, "pending", env.Data.Status)
	assert.Equal(t, 200.0, env.Data.TotalAmount)
	assert.NotEmpty(t, env.TraceID)
}

func TestCreateOrderHandler_ValidationDetails(t *testing.T) {
	r, repo := newTestServer()
	body := orderBody(200)
	body["items"] = []map[string]interface{}{
		{"productId": "nope", "modelType": "Cruise", "quantity": 0, "price": 1},
	}

	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error struct {
			Code    string              `json:"code"`
			Details []errors.FieldError `json:"details"`
		} `json:"error"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, errors.CodeValidation, resp.Error.Code)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Rule
	}
	assert.Equal(t, "objectid", fields["items[0].productId"])
	assert.Equal(t, "oneof", fields["items[0].modelType"])
	assert.Empty(t, repo.orders)
}

func TestCreateOrderHandler_ProductIDMustBeObjectID(t *testing.T) {
	r, repo := newTestServer()
	body := orderBody(200)
	body["items"] = []map[string]interface{}{
		{"productId": "0x1f77bcf86cd799439011ab", "modelType": "Hotel", "quantity": 2, "price": 100},
	}

	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "items[0].productId")
	assert.Empty(t, repo.orders)
}

func TestCreateOrderHandler_NormalizesProductID(t *testing.T) {
	r, repo := newTestServer()
	body := orderBody(200)
	body["items"] = []map[string]interface{}{
		{"productId": "507F1F77BCF86CD799439011", "modelType": "Hotel", "quantity": 2, "price": 100},
	}

	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var env orderEnvelope
	decode(t, rec, &env)
	assert.Equal(t, "507f1f77bcf86cd799439011", env.Data.Items[0].ProductID)
	assert.Equal(t, "507f1f77bcf86cd799439011", repo.orders[env.Data.ID].Items[0].ProductID)
}

func TestCreateOrderHandler_IgnoresPayloadUser(t *testing.T) {
	r, repo := newTestServer()
	body := orderBody(200)
	body["user"] = "mallory"
	body["userId"] = "mallory"

	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var env orderEnvelope
	decode(t, rec, &env)
	assert.Equal(t, "alice", env.Data.User.ID)
	assert.Equal(t, "alice", repo.orders[env.Data.ID].UserID)
}

func TestCreateOrderHandler_Unauthenticated(t *testing.T) {
	r, _ := newTestServer()

	rec := do(r, http.MethodPost, "/api/v1/orders", "", orderBody(200))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutHandler_Mismatch(t *testing.T) {
	r, repo := newTestServer()

	rec := do(r, http.MethodPost, "/api/v1/orders/checkout", "alice:user", orderBody(150))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.orders)

	rec = do(r, http.MethodPost, "/api/v1/orders/checkout", "alice:user", orderBody(nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var env orderEnvelope
	decode(t, rec, &env)
	assert.Equal(t, 200.0, env.Data.TotalAmount)
}

func TestOrderReadRoutes(t *testing.T) {
	r, _ := newTestServer()
	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", orderBody(200))
	var created orderEnvelope
	decode(t, rec, &created)
	id := created.Data.ID

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/orders/"+id, "alice:user", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/orders/"+id, "bob:user", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/orders/"+id, "root:admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/orders/mine/"+id, "bob:user", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/orders/mine/"+id, "alice:user", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/orders/user/alice", "bob:user", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/v1/orders", "alice:user", nil).Code)

	rec = do(r, http.MethodGet, "/api/v1/orders/mine", "alice:user", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []OrderResponse `json:"data"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Data, 1)
}

func TestGetOrderHandler_RepeatedReadsMatch(t *testing.T) {
	r, _ := newTestServer()
	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", orderBody(200))
	var created orderEnvelope
	decode(t, rec, &created)
	path := "/api/v1/orders/" + created.Data.ID

	var first, second orderEnvelope
	decode(t, do(r, http.MethodGet, path, "alice:user", nil), &first)
	decode(t, do(r, http.MethodGet, path, "alice:user", nil), &second)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, created.Data.ID, first.Data.ID)
}

func TestUpdateStatusAndDeleteRoutes(t *testing.T) {
	r, repo := newTestServer()
	rec := do(r, http.MethodPost, "/api/v1/orders", "alice:user", orderBody(200))
	var created orderEnvelope
	decode(t, rec, &created)
	path := "/api/v1/orders/" + created.Data.ID

	// an invalid status is rejected before the role check
	rec = do(r, http.MethodPatch, path+"/status", "alice:user", map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPatch, path+"/status", "alice:user", map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(r, http.MethodPatch, path+"/status", "root:admin", map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated orderEnvelope
	decode(t, rec, &updated)
	assert.Equal(t, "shipped", updated.Data.Status)

	rec = do(r, http.MethodPatch, path+"/status", "root:admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, path, "alice:user", nil).Code)

	rec = do(r, http.MethodDelete, path, "root:admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order deleted successfully")
	assert.Empty(t, repo.orders)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, path, "root:admin", nil).Code)
}
