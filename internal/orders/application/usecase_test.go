package application

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelhub/internal/orders/domain"
	"travelhub/internal/orders/ports"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// MockOrderRepository is an in-memory OrderRepository
type MockOrderRepository struct {
	orders  map[string]*domain.Order
	nextID  int
	failing error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order), nextID: 1}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.failing != nil {
		return m.failing
	}
	order.ID = fmt.Sprintf("%024x", m.nextID)
	m.nextID++
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok || order.UserID != userID {
		return nil, domain.NewOrderNotFound(id)
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var result []*domain.Order
	for _, order := range m.sorted() {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return m.sorted(), nil
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.orders[id]; !ok {
		return domain.NewOrderNotFound(id)
	}
	delete(m.orders, id)
	return nil
}

func (m *MockOrderRepository) sorted() []*domain.Order {
	result := make([]*domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		copied := *order
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	events []string
	err    error
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order, actorID string) error {
	m.events = append(m.events, "created:"+order.ID)
	return m.err
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, previous domain.OrderStatus, actorID string) error {
	m.events = append(m.events, fmt.Sprintf("status:%s:%s->%s", order.ID, previous, order.Status))
	return m.err
}

func (m *MockEventPublisher) PublishOrderDeleted(ctx context.Context, order *domain.Order, actorID string) error {
	m.events = append(m.events, "deleted:"+order.ID)
	return m.err
}

// MockUserDirectory resolves a fixed set of users
type MockUserDirectory struct {
	users map[string]ports.UserSummary
	err   error
}

func (m *MockUserDirectory) UserSummaries(ctx context.Context, ids []string) (map[string]ports.UserSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]ports.UserSummary)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// MockCatalogDirectory resolves a fixed set of products
type MockCatalogDirectory struct {
	products map[ports.ProductRef]ports.ProductSummary
}

func (m *MockCatalogDirectory) ProductSummaries(ctx context.Context, refs []ports.ProductRef) (map[ports.ProductRef]ports.ProductSummary, error) {
	out := make(map[ports.ProductRef]ports.ProductSummary)
	for _, ref := range refs {
		if p, ok := m.products[ref]; ok {
			out[ref] = p
		}
	}
	return out, nil
}

// MockHistoryStore keeps entries in memory
type MockHistoryStore struct {
	entries []ports.HistoryEntry
}

func (m *MockHistoryStore) Record(ctx context.Context, entry ports.HistoryEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockHistoryStore) ListByOrder(ctx context.Context, orderID string) ([]ports.HistoryEntry, error) {
	var out []ports.HistoryEntry
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	alice = auth.Identity{UserID: "alice", Role: auth.RoleUser}
	bob   = auth.Identity{UserID: "bob", Role: auth.RoleUser}
	admin = auth.Identity{UserID: "root", Role: auth.RoleAdmin}
	anon  = auth.Identity{}

	hotelRef = ports.ProductRef{ModelType: domain.ModelTypeHotel, ID: "h1"}
)

type fixture struct {
	uc        *OrderUseCase
	repo      *MockOrderRepository
	publisher *MockEventPublisher
	users     *MockUserDirectory
	history   *MockHistoryStore
}

func newFixture(policy Policy) *fixture {
	f := &fixture{
		repo:      NewMockOrderRepository(),
		publisher: &MockEventPublisher{},
		users: &MockUserDirectory{users: map[string]ports.UserSummary{
			"alice": {ID: "alice", Username: "alice", Email: "alice@example.com"},
		}},
		history: &MockHistoryStore{},
	}
	catalog := &MockCatalogDirectory{products: map[ports.ProductRef]ports.ProductSummary{
		hotelRef: {ID: "h1", Name: "Grand", Location: "Rome"},
	}}
	f.uc = NewOrderUseCase(f.repo, f.publisher, f.users, catalog, f.history, policy, logger.NewNop())
	f.uc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func float(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func validInput(id auth.Identity, total *float64) PlaceOrderInput {
	return PlaceOrderInput{
		Identity: id,
		Items: []domain.OrderItem{
			{ProductID: "h1", ModelType: domain.ModelTypeHotel, Quantity: 2, Price: 100},
			{ProductID: "d1", ModelType: domain.ModelTypeDestination, Quantity: 1, Price: 50},
		},
		TotalAmount: total,
		ShippingAddress: domain.ShippingAddress{
			Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
	}
}

func (f *fixture) seed(t *testing.T, owner auth.Identity) string {
	t.Helper()
	out, err := f.uc.CreateOrder(context.Background(), validInput(owner, float(250)))
	require.NoError(t, err)
	return out.Order.ID
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, code), "expected %s, got %v", code, err)
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture(DefaultPolicy())

	out, err := f.uc.CreateOrder(context.Background(), validInput(alice, float(250)))

	require.NoError(t, err)
	assert.NotEmpty(t, out.Order.ID)
	assert.Equal(t, "alice", out.Order.UserID)
	assert.Equal(t, domain.OrderStatusPending, out.Order.Status)
	assert.Equal(t, 250.0, out.Order.TotalAmount)
	assert.Equal(t, out.Order.CreatedAt, out.Order.OrderDate)
	require.NotNil(t, out.Order.User)
	assert.Equal(t, "alice@example.com", out.Order.User.Email)
	assert.Equal(t, "Grand", out.Order.Products[hotelRef].Name)
	assert.Equal(t, []string{"created:" + out.Order.ID}, f.publisher.events)
}

func TestCreateOrder_TrustPolicyKeepsDeclaredTotal(t *testing.T) {
	f := newFixture(DefaultPolicy())

	out, err := f.uc.CreateOrder(context.Background(), validInput(alice, float(1)))

	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Order.TotalAmount)
}

func TestCreateOrder_VerifyPolicy(t *testing.T) {
	f := newFixture(Policy{Total: domain.TotalPolicyVerify})

	_, err := f.uc.CreateOrder(context.Background(), validInput(alice, float(1)))
	assertCode(t, err, errors.CodeValidation)
	assert.Empty(t, f.repo.orders)

	out, err := f.uc.CreateOrder(context.Background(), validInput(alice, nil))
	require.NoError(t, err)
	assert.Equal(t, 250.0, out.Order.TotalAmount)
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *PlaceOrderInput)
		code   string
	}{
		{"unauthenticated", func(in *PlaceOrderInput) { in.Identity = anon }, errors.CodeUnauthorized},
		{"no items", func(in *PlaceOrderInput) { in.Items = nil }, errors.CodeValidation},
		{"missing city", func(in *PlaceOrderInput) { in.ShippingAddress.City = "" }, errors.CodeValidation},
		{"missing total", func(in *PlaceOrderInput) { in.TotalAmount = nil }, errors.CodeValidation},
		{"negative total", func(in *PlaceOrderInput) { in.TotalAmount = float(-1) }, errors.CodeValidation},
		{"zero quantity", func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 }, errors.CodeValidation},
		{"bad model type", func(in *PlaceOrderInput) { in.Items[0].ModelType = "Cruise" }, errors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(DefaultPolicy())
			in := validInput(alice, float(250))
			tt.mutate(&in)

			_, err := f.uc.CreateOrder(context.Background(), in)

			assertCode(t, err, tt.code)
			assert.Empty(t, f.repo.orders)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestCreateOrder_RepositoryFailureIsInternal(t *testing.T) {
	f := newFixture(DefaultPolicy())
	f.repo.failing = fmt.Errorf("connection reset")

	_, err := f.uc.CreateOrder(context.Background(), validInput(alice, float(250)))

	assertCode(t, err, errors.CodeInternal)
}

func TestCreateOrder_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(DefaultPolicy())
	f.publisher.err = fmt.Errorf("broker down")

	out, err := f.uc.CreateOrder(context.Background(), validInput(alice, float(250)))

	require.NoError(t, err)
	assert.Contains(t, f.repo.orders, out.Order.ID)
}

func TestCheckout(t *testing.T) {
	f := newFixture(DefaultPolicy())

	t.Run("matching total", func(t *testing.T) {
		out, err := f.uc.Checkout(context.Background(), validInput(alice, float(250)))
		require.NoError(t, err)
		assert.Equal(t, 250.0, out.Order.TotalAmount)
	})

	t.Run("omitted total is calculated", func(t *testing.T) {
		out, err := f.uc.Checkout(context.Background(), validInput(alice, nil))
		require.NoError(t, err)
		assert.Equal(t, 250.0, out.Order.TotalAmount)
	})

	t.Run("mismatch persists nothing", func(t *testing.T) {
		before := len(f.repo.orders)
		_, err := f.uc.Checkout(context.Background(), validInput(alice, float(249.99)))
		assertCode(t, err, errors.CodeValidation)
		assert.Len(t, f.repo.orders, before)
	})

	t.Run("fractional prices sum exactly", func(t *testing.T) {
		in := validInput(alice, float(0.3))
		in.Items = []domain.OrderItem{
			{ProductID: "a", ModelType: domain.ModelTypeHotel, Quantity: 1, Price: 0.1},
			{ProductID: "b", ModelType: domain.ModelTypeHotel, Quantity: 1, Price: 0.2},
		}
		_, err := f.uc.Checkout(context.Background(), in)
		require.NoError(t, err)
	})
}

func TestGetOrderByID(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)

	out, err := f.uc.GetOrderByID(context.Background(), GetOrderInput{Identity: alice, ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, out.Order.ID)

	_, err = f.uc.GetOrderByID(context.Background(), GetOrderInput{Identity: admin, ID: id})
	require.NoError(t, err)

	_, err = f.uc.GetOrderByID(context.Background(), GetOrderInput{Identity: bob, ID: id})
	assertCode(t, err, errors.CodeForbidden)

	_, err = f.uc.GetOrderByID(context.Background(), GetOrderInput{Identity: alice, ID: "missing"})
	assertCode(t, err, errors.CodeNotFound)

	_, err = f.uc.GetOrderByID(context.Background(), GetOrderInput{Identity: anon, ID: id})
	assertCode(t, err, errors.CodeUnauthorized)
}

func TestGetOrderByID_RepeatedReadsMatch(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)
	in := GetOrderInput{Identity: alice, ID: id}

	first, err := f.uc.GetOrderByID(context.Background(), in)
	require.NoError(t, err)
	second, err := f.uc.GetOrderByID(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first.Order.Order, second.Order.Order)
}

func TestGetUserOrderByID_HidesForeignOrders(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)

	_, err := f.uc.GetUserOrderByID(context.Background(), GetOrderInput{Identity: alice, ID: id})
	require.NoError(t, err)

	_, err = f.uc.GetUserOrderByID(context.Background(), GetOrderInput{Identity: bob, ID: id})
	assertCode(t, err, errors.CodeNotFound)

	_, err = f.uc.GetUserOrderByID(context.Background(), GetOrderInput{Identity: admin, ID: id})
	assertCode(t, err, errors.CodeNotFound)
}

func TestListOrders(t *testing.T) {
	f := newFixture(DefaultPolicy())
	first := f.seed(t, alice)
	second := f.seed(t, alice)
	f.seed(t, bob)

	mine, err := f.uc.GetMyOrders(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, mine.Orders, 2)
	assert.Equal(t, second, mine.Orders[0].ID)
	assert.Equal(t, first, mine.Orders[1].ID)

	none, err := f.uc.GetMyOrders(context.Background(), auth.Identity{UserID: "carol", Role: auth.RoleUser})
	require.NoError(t, err)
	assert.Empty(t, none.Orders)

	_, err = f.uc.GetUserOrders(context.Background(), ListUserOrdersInput{Identity: bob, UserID: "alice"})
	assertCode(t, err, errors.CodeForbidden)

	byAdmin, err := f.uc.GetUserOrders(context.Background(), ListUserOrdersInput{Identity: admin, UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, byAdmin.Orders, 2)

	_, err = f.uc.GetAllOrders(context.Background(), alice)
	assertCode(t, err, errors.CodeForbidden)

	all, err := f.uc.GetAllOrders(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all.Orders, 3)
}

func TestEnrichmentFailureNeverFailsRead(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)
	f.users.err = fmt.Errorf("postgres down")

	out, err := f.uc.GetOrderByID(context.Background(), GetOrderInput{Identity: alice, ID: id})

	require.NoError(t, err)
	assert.Nil(t, out.Order.User)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)
	ctx := context.Background()

	_, err := f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: alice, ID: id, Status: str("shipped")})
	assertCode(t, err, errors.CodeForbidden)

	_, err = f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: alice, ID: id, Status: str("lost")})
	assertCode(t, err, errors.CodeValidation)

	_, err = f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: "missing", Status: str("shipped")})
	assertCode(t, err, errors.CodeNotFound)

	out, err := f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id, Status: str("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, out.Order.Status)

	// unrestricted policy allows leaving a terminal status
	out, err = f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id, Status: str("pending")})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, out.Order.Status)

	unchanged, err := f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, unchanged.Order.Status)

	assert.Equal(t, []string{
		"created:" + id,
		fmt.Sprintf("status:%s:pending->cancelled", id),
		fmt.Sprintf("status:%s:cancelled->pending", id),
	}, f.publisher.events)
}

func TestUpdateOrderStatus_ForwardPolicy(t *testing.T) {
	f := newFixture(Policy{Transitions: domain.ForwardTransitions{}})
	id := f.seed(t, alice)
	ctx := context.Background()

	_, err := f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id, Status: str("delivered")})
	assertCode(t, err, errors.CodeValidation)

	_, err = f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id, Status: str("shipped")})
	require.NoError(t, err)

	_, err = f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id, Status: str("delivered")})
	require.NoError(t, err)

	_, err = f.uc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{Identity: admin, ID: id, Status: str("pending")})
	assertCode(t, err, errors.CodeValidation)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)
	ctx := context.Background()

	err := f.uc.DeleteOrder(ctx, GetOrderInput{Identity: alice, ID: id})
	assertCode(t, err, errors.CodeForbidden)

	require.NoError(t, f.uc.DeleteOrder(ctx, GetOrderInput{Identity: admin, ID: id}))

	_, err = f.uc.GetOrderByID(ctx, GetOrderInput{Identity: admin, ID: id})
	assertCode(t, err, errors.CodeNotFound)

	err = f.uc.DeleteOrder(ctx, GetOrderInput{Identity: admin, ID: id})
	assertCode(t, err, errors.CodeNotFound)
	assert.Contains(t, f.publisher.events, "deleted:"+id)
}

func TestGetOrderHistory(t *testing.T) {
	f := newFixture(DefaultPolicy())
	id := f.seed(t, alice)
	ctx := context.Background()

	_, err := f.uc.GetOrderHistory(ctx, GetOrderInput{Identity: alice, ID: id})
	assertCode(t, err, errors.CodeForbidden)

	out, err := f.uc.GetOrderHistory(ctx, GetOrderInput{Identity: admin, ID: id})
	require.NoError(t, err)
	assert.Empty(t, out.Entries)

	_, err = f.uc.GetOrderHistory(ctx, GetOrderInput{Identity: admin, ID: "missing"})
	assertCode(t, err, errors.CodeNotFound)

	require.NoError(t, f.history.Record(ctx, ports.HistoryEntry{OrderID: id, EventType: "order.created"}))
	require.NoError(t, f.uc.DeleteOrder(ctx, GetOrderInput{Identity: admin, ID: id}))

	out, err = f.uc.GetOrderHistory(ctx, GetOrderInput{Identity: admin, ID: id})
	require.NoError(t, err)
	assert.Len(t, out.Entries, 1)
}
