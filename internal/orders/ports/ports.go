package ports

import (
	"context"
	"time"

	"travelhub/internal/orders/domain"
)

// OrderRepository defines the interface for order persistence.
// Every method is a single-document operation.
type OrderRepository interface {
	// Create inserts a new order and assigns its ID
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByIDForUser retrieves an order only if userID owns it
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error)

	// ListByUser retrieves orders owned by userID, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)

	// ListAll retrieves every order, newest first
	ListAll(ctx context.Context) ([]*domain.Order, error)

	// UpdateStatus overwrites status and updatedAt and returns the stored order
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) (*domain.Order, error)

	// Delete permanently removes an order
	Delete(ctx context.Context, id string) error
}

// EventPublisher defines the interface for publishing order events
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order, actorID string) error
	PublishOrderStatusChanged(ctx context.Context, order *domain.Order, previous domain.OrderStatus, actorID string) error
	PublishOrderDeleted(ctx context.Context, order *domain.Order, actorID string) error
}

// UserDirectory resolves owners for response enrichment
type UserDirectory interface {
	UserSummaries(ctx context.Context, ids []string) (map[string]UserSummary, error)
}

// CatalogDirectory resolves booked products for response enrichment
type CatalogDirectory interface {
	ProductSummaries(ctx context.Context, refs []ProductRef) (map[ProductRef]ProductSummary, error)
}

// HistoryStore reads the recorded lifecycle of an order
type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]HistoryEntry, error)
}

// UserSummary is the public projection of an order owner
type UserSummary struct {
	ID       string
	Username string
	Email    string
}

// ProductRef identifies a catalog document
type ProductRef struct {
	ModelType domain.ModelType
	ID        string
}

// ProductSummary is the public projection of a booked product
type ProductSummary struct {
	ID       string
	Name     string
	Location string
}

// HistoryEntry is one recorded order event
type HistoryEntry struct {
	EventID        string
	OrderID        string
	EventType      string
	Status         string
	PreviousStatus string
	ActorID        string
	OccurredAt     time.Time
}
