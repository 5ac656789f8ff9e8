package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Exchange names
const (
	ExchangeUsers  = "users.events"
	ExchangeOrders = "orders.events"
)

// Routing keys
const (
	RoutingKeyUserRegistered     = "user.registered"
	RoutingKeyOrderCreated       = "order.created"
	RoutingKeyOrderStatusChanged = "order.status_changed"
	RoutingKeyOrderDeleted       = "order.deleted"
)

const schemaVersion = "1.0"

// Publisher sends an event under a routing key (RabbitMQ) or message key (Kafka)
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// NopPublisher drops every event; used when EVENT_BROKER=none
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	Version   string                `json:"version"`
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	TraceID   string                `json:"trace_id"`
	Payload   UserRegisteredPayload `json:"payload"`
}

// UserRegisteredPayload contains user data
type UserRegisteredPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(payload UserRegisteredPayload, traceID string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		Version:   schemaVersion,
		EventID:   uuid.NewString(),
		EventType: RoutingKeyUserRegistered,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Payload:   payload,
	}
}

// OrderEvent is published after every order write
type OrderEvent struct {
	Version   string       `json:"version"`
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	TraceID   string       `json:"trace_id"`
	Payload   OrderPayload `json:"payload"`
}

// OrderPayload describes the order after the write
type OrderPayload struct {
	OrderID        string  `json:"order_id"`
	UserID         string  `json:"user_id"`
	ActorID        string  `json:"actor_id"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previous_status,omitempty"`
	TotalAmount    float64 `json:"total_amount"`
	ItemCount      int     `json:"item_count"`
}

// NewOrderEvent creates an OrderEvent of the given type
func NewOrderEvent(eventType string, payload OrderPayload, traceID string) *OrderEvent {
	return &OrderEvent{
		Version:   schemaVersion,
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Payload:   payload,
	}
}

// PartitionKey keeps all events of one order on the same partition
func (e *OrderEvent) PartitionKey() string {
	return e.Payload.OrderID
}

// PartitionKey keeps all events of one user on the same partition
func (e *UserRegisteredEvent) PartitionKey() string {
	return e.Payload.ID
}
