package adapters

import (
	"context"

	"travelhub/internal/orders/domain"
	"travelhub/pkg/events"
	"travelhub/pkg/logger"
)

// EventPublisher implements ports.EventPublisher on top of a broker publisher
// (RabbitMQ exchange or Kafka topic)
type EventPublisher struct {
	publisher events.Publisher
}

// NewEventPublisher creates a new order event publisher
func NewEventPublisher(publisher events.Publisher) *EventPublisher {
	return &EventPublisher{publisher: publisher}
}

// PublishOrderCreated publishes an order.created event
func (p *EventPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order, actorID string) error {
	return p.publish(ctx, events.RoutingKeyOrderCreated, order, "", actorID)
}

// PublishOrderStatusChanged publishes an order.status_changed event
func (p *EventPublisher) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, previous domain.OrderStatus, actorID string) error {
	return p.publish(ctx, events.RoutingKeyOrderStatusChanged, order, previous, actorID)
}

// PublishOrderDeleted publishes an order.deleted event
func (p *EventPublisher) PublishOrderDeleted(ctx context.Context, order *domain.Order, actorID string) error {
	return p.publish(ctx, events.RoutingKeyOrderDeleted, order, "", actorID)
}

func (p *EventPublisher) publish(ctx context.Context, routingKey string, order *domain.Order, previous domain.OrderStatus, actorID string) error {
	event := events.NewOrderEvent(routingKey, events.OrderPayload{
		OrderID:        order.ID,
		UserID:         order.UserID,
		ActorID:        actorID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		TotalAmount:    order.TotalAmount,
		ItemCount:      len(order.Items),
	}, logger.GetTraceID(ctx))

	return p.publisher.Publish(ctx, routingKey, event)
}
