package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"travelhub/internal/orders/domain"
	"travelhub/internal/orders/ports"
	"travelhub/pkg/auth"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
)

// Policy holds the configurable order rules
type Policy struct {
	Total       domain.TotalPolicy
	Transitions domain.TransitionPolicy
}

// DefaultPolicy trusts the caller's total on CreateOrder and allows any status change
func DefaultPolicy() Policy {
	return Policy{
		Total:       domain.TotalPolicyTrust,
		Transitions: domain.UnrestrictedTransitions{},
	}
}

// OrderUseCase handles order business logic
type OrderUseCase struct {
	repo      ports.OrderRepository
	publisher ports.EventPublisher
	users     ports.UserDirectory
	catalog   ports.CatalogDirectory
	history   ports.HistoryStore
	policy    Policy
	log       *logger.Logger
	now       func() time.Time
}

// NewOrderUseCase creates a new order use case. publisher, users, catalog
// and history may be nil; the matching feature is then skipped.
func NewOrderUseCase(
	repo ports.OrderRepository,
	publisher ports.EventPublisher,
	users ports.UserDirectory,
	catalog ports.CatalogDirectory,
	history ports.HistoryStore,
	policy Policy,
	log *logger.Logger,
) *OrderUseCase {
	if policy.Transitions == nil {
		policy.Transitions = domain.UnrestrictedTransitions{}
	}
	if policy.Total == "" {
		policy.Total = domain.TotalPolicyTrust
	}
	return &OrderUseCase{
		repo:      repo,
		publisher: publisher,
		users:     users,
		catalog:   catalog,
		history:   history,
		policy:    policy,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OrderDetails is an order with its owner and products resolved for display
type OrderDetails struct {
	*domain.Order
	User     *ports.UserSummary
	Products map[ports.ProductRef]ports.ProductSummary
}

// OrderOutput wraps a single order
type OrderOutput struct {
	Order OrderDetails
}

// OrderListOutput wraps a list of orders
type OrderListOutput struct {
	Orders []OrderDetails
}

// PlaceOrderInput is the payload of CreateOrder and Checkout.
// TotalAmount is nil when the caller omitted it.
type PlaceOrderInput struct {
	Identity        auth.Identity
	Items           []domain.OrderItem
	TotalAmount     *float64
	ShippingAddress domain.ShippingAddress
}

// CreateOrder persists a pending order owned by the caller. Under the trust
// policy the declared total is stored as given; under verify it is reconciled.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input PlaceOrderInput) (*OrderOutput, error) {
	if err := domain.Authorize(input.Identity, domain.ActionCreate, ""); err != nil {
		return nil, err
	}
	if err := validatePayload(input); err != nil {
		return nil, err
	}

	var total float64
	switch uc.policy.Total {
	case domain.TotalPolicyVerify:
		reconciled, err := domain.ReconcileTotal(input.Items, input.TotalAmount)
		if err != nil {
			return nil, err
		}
		total = reconciled
	default:
		if input.TotalAmount == nil {
			return nil, domain.ErrTotalRequired
		}
		total = *input.TotalAmount
	}

	return uc.place(ctx, input, total)
}

// Checkout persists a pending order whose total always matches its items
func (uc *OrderUseCase) Checkout(ctx context.Context, input PlaceOrderInput) (*OrderOutput, error) {
	if err := domain.Authorize(input.Identity, domain.ActionCreate, ""); err != nil {
		return nil, err
	}
	if err := validatePayload(input); err != nil {
		return nil, err
	}

	total, err := domain.ReconcileTotal(input.Items, input.TotalAmount)
	if err != nil {
		return nil, err
	}

	return uc.place(ctx, input, total)
}

func validatePayload(input PlaceOrderInput) error {
	if len(input.Items) == 0 {
		return domain.ErrItemsRequired
	}
	if !input.ShippingAddress.Complete() {
		return domain.ErrAddressIncomplete
	}
	return nil
}

func (uc *OrderUseCase) place(ctx context.Context, input PlaceOrderInput, total float64) (*OrderOutput, error) {
	order, err := domain.NewOrder(input.Identity.UserID, input.Items, total, input.ShippingAddress, uc.now())
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, order); err != nil {
		return nil, errors.NewInternal("failed to create order", err)
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderCreated(ctx, order, input.Identity.UserID); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish order created event",
				zap.Error(err),
				zap.String("order_id", order.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("order created",
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total_amount", order.TotalAmount),
	)

	return &OrderOutput{Order: uc.enrichOne(ctx, order)}, nil
}

// GetOrderInput identifies one order on behalf of a caller
type GetOrderInput struct {
	Identity auth.Identity
	ID       string
}

// GetOrderByID returns an order to its owner or an admin; anyone else gets FORBIDDEN
func (uc *OrderUseCase) GetOrderByID(ctx context.Context, input GetOrderInput) (*OrderOutput, error) {
	if input.Identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	order, err := uc.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if err := domain.Authorize(input.Identity, domain.ActionRead, order.UserID); err != nil {
		return nil, err
	}

	return &OrderOutput{Order: uc.enrichOne(ctx, order)}, nil
}

// GetUserOrderByID looks the order up among the caller's own orders only.
// An order owned by someone else is reported as NOT_FOUND, never FORBIDDEN,
// so this route does not reveal which order ids exist.
func (uc *OrderUseCase) GetUserOrderByID(ctx context.Context, input GetOrderInput) (*OrderOutput, error) {
	if input.Identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	order, err := uc.repo.GetByIDForUser(ctx, input.ID, input.Identity.UserID)
	if err != nil {
		return nil, err
	}

	return &OrderOutput{Order: uc.enrichOne(ctx, order)}, nil
}

// ListUserOrdersInput names the user whose orders are listed
type ListUserOrdersInput struct {
	Identity auth.Identity
	UserID   string
}

// GetUserOrders lists the orders of UserID for that user or an admin
func (uc *OrderUseCase) GetUserOrders(ctx context.Context, input ListUserOrdersInput) (*OrderListOutput, error) {
	if err := domain.Authorize(input.Identity, domain.ActionListUser, input.UserID); err != nil {
		return nil, err
	}

	orders, err := uc.repo.ListByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	return &OrderListOutput{Orders: uc.enrich(ctx, orders)}, nil
}

// GetMyOrders lists the caller's own orders
func (uc *OrderUseCase) GetMyOrders(ctx context.Context, identity auth.Identity) (*OrderListOutput, error) {
	if identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	orders, err := uc.repo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	return &OrderListOutput{Orders: uc.enrich(ctx, orders)}, nil
}

// GetAllOrders lists every order; admin only
func (uc *OrderUseCase) GetAllOrders(ctx context.Context, identity auth.Identity) (*OrderListOutput, error) {
	if err := domain.Authorize(identity, domain.ActionListAll, ""); err != nil {
		return nil, err
	}

	orders, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return &OrderListOutput{Orders: uc.enrich(ctx, orders)}, nil
}

// UpdateOrderStatusInput carries the requested status; nil means none was sent
type UpdateOrderStatusInput struct {
	Identity auth.Identity
	ID       string
	Status   *string
}

// UpdateOrderStatus overwrites the order status; admin only.
// The status value is validated before the role check, then existence, then
// the transition policy. A request without a status returns the order unchanged.
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, input UpdateOrderStatusInput) (*OrderOutput, error) {
	if input.Identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	if input.Status != nil && !domain.OrderStatus(*input.Status).Valid() {
		return nil, domain.NewInvalidStatus(*input.Status)
	}
	if err := domain.Authorize(input.Identity, domain.ActionUpdateStatus, ""); err != nil {
		return nil, err
	}

	order, err := uc.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Status == nil {
		return &OrderOutput{Order: uc.enrichOne(ctx, order)}, nil
	}

	previous, err := order.ChangeStatus(domain.OrderStatus(*input.Status), uc.policy.Transitions, uc.now())
	if err != nil {
		return nil, err
	}

	updated, err := uc.repo.UpdateStatus(ctx, order.ID, order.Status, order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderStatusChanged(ctx, updated, previous, input.Identity.UserID); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish order status event",
				zap.Error(err),
				zap.String("order_id", updated.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("order status updated",
		zap.String("order_id", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Status)),
	)

	return &OrderOutput{Order: uc.enrichOne(ctx, updated)}, nil
}

// DeleteOrder permanently removes an order; admin only
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, input GetOrderInput) error {
	if err := domain.Authorize(input.Identity, domain.ActionDelete, ""); err != nil {
		return err
	}

	order, err := uc.repo.GetByID(ctx, input.ID)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, input.ID); err != nil {
		return err
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderDeleted(ctx, order, input.Identity.UserID); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish order deleted event",
				zap.Error(err),
				zap.String("order_id", order.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("order deleted", zap.String("order_id", order.ID))
	return nil
}

// HistoryOutput lists recorded events, oldest first
type HistoryOutput struct {
	Entries []ports.HistoryEntry
}

// GetOrderHistory returns the recorded lifecycle of an order; admin only.
// History outlives the order, so a deleted order still has one.
func (uc *OrderUseCase) GetOrderHistory(ctx context.Context, input GetOrderInput) (*HistoryOutput, error) {
	if err := domain.Authorize(input.Identity, domain.ActionViewHistory, ""); err != nil {
		return nil, err
	}

	var entries []ports.HistoryEntry
	if uc.history != nil {
		var err error
		entries, err = uc.history.ListByOrder(ctx, input.ID)
		if err != nil {
			return nil, errors.NewInternal("failed to load order history", err)
		}
	}

	if len(entries) == 0 {
		if _, err := uc.repo.GetByID(ctx, input.ID); err != nil {
			return nil, err
		}
	}

	return &HistoryOutput{Entries: entries}, nil
}

func (uc *OrderUseCase) enrichOne(ctx context.Context, order *domain.Order) OrderDetails {
	return uc.enrich(ctx, []*domain.Order{order})[0]
}

// enrich resolves owners and products. Lookup failures are logged and leave
// the summaries empty; they never fail the read.
func (uc *OrderUseCase) enrich(ctx context.Context, orders []*domain.Order) []OrderDetails {
	details := make([]OrderDetails, len(orders))
	for i, order := range orders {
		details[i] = OrderDetails{Order: order}
	}
	if len(orders) == 0 {
		return details
	}

	var users map[string]ports.UserSummary
	if uc.users != nil {
		var err error
		users, err = uc.users.UserSummaries(ctx, collectUserIDs(orders))
		if err != nil {
			uc.log.WithContext(ctx).Warn("failed to resolve order owners", zap.Error(err))
		}
	}

	var products map[ports.ProductRef]ports.ProductSummary
	if uc.catalog != nil {
		var err error
		products, err = uc.catalog.ProductSummaries(ctx, collectProductRefs(orders))
		if err != nil {
			uc.log.WithContext(ctx).Warn("failed to resolve order products", zap.Error(err))
		}
	}

	for i, order := range orders {
		if user, ok := users[order.UserID]; ok {
			u := user
			details[i].User = &u
		}
		if len(products) > 0 {
			details[i].Products = make(map[ports.ProductRef]ports.ProductSummary, len(order.Items))
			for _, item := range order.Items {
				ref := ports.ProductRef{ModelType: item.ModelType, ID: item.ProductID}
				if p, ok := products[ref]; ok {
					details[i].Products[ref] = p
				}
			}
		}
	}

	return details
}

func collectUserIDs(orders []*domain.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.UserID]; ok {
			continue
		}
		seen[order.UserID] = struct{}{}
		ids = append(ids, order.UserID)
	}
	return ids
}

func collectProductRefs(orders []*domain.Order) []ports.ProductRef {
	seen := make(map[ports.ProductRef]struct{})
	var refs []ports.ProductRef
	for _, order := range orders {
		for _, item := range order.Items {
			ref := ports.ProductRef{ModelType: item.ModelType, ID: item.ProductID}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}
