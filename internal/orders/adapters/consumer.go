package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"travelhub/internal/orders/ports"
	"travelhub/pkg/events"
	"travelhub/pkg/kafka"
	"travelhub/pkg/logger"
	"travelhub/pkg/rabbitmq"
)

// HistoryQueue is the durable queue feeding the order history
const HistoryQueue = "orders.history"

var orderEventTypes = []string{
	events.RoutingKeyOrderCreated,
	events.RoutingKeyOrderStatusChanged,
	events.RoutingKeyOrderDeleted,
}

// HistoryConsumer records every order event into the history store
type HistoryConsumer struct {
	start func(ctx context.Context, c *HistoryConsumer) error
	store ports.HistoryStore
	log   *logger.Logger
}

// NewHistoryConsumer binds the history queue to all order events
func NewHistoryConsumer(conn *rabbitmq.Connection, store ports.HistoryStore, log *logger.Logger) (*HistoryConsumer, error) {
	consumer, err := rabbitmq.NewConsumer(conn, HistoryQueue, events.ExchangeOrders, orderEventTypes, log)
	if err != nil {
		return nil, err
	}

	return &HistoryConsumer{
		start: func(ctx context.Context, c *HistoryConsumer) error {
			return consumer.Consume(ctx, c.HandleMessage)
		},
		store: store,
		log:   log,
	}, nil
}

// NewKafkaHistoryConsumer reads order events from the shared topic under its own group
func NewKafkaHistoryConsumer(brokers []string, topic string, store ports.HistoryStore, log *logger.Logger) *HistoryConsumer {
	consumer := kafka.NewConsumer(brokers, topic, HistoryQueue, orderEventTypes, log)

	return &HistoryConsumer{
		start: func(ctx context.Context, c *HistoryConsumer) error {
			go func() {
				<-ctx.Done()
				_ = consumer.Close()
			}()
			return consumer.Consume(ctx, c.HandleMessage)
		},
		store: store,
		log:   log,
	}
}

// Start starts consuming order events
func (c *HistoryConsumer) Start(ctx context.Context) error {
	return c.start(ctx, c)
}

// HandleMessage decodes one order event and records it
func (c *HistoryConsumer) HandleMessage(ctx context.Context, routingKey string, body []byte) error {
	var event events.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	if event.EventID == "" || event.Payload.OrderID == "" {
		return fmt.Errorf("order event %q is missing ids", routingKey)
	}

	eventType := event.EventType
	if eventType == "" {
		eventType = routingKey
	}

	entry := ports.HistoryEntry{
		EventID:        event.EventID,
		OrderID:        event.Payload.OrderID,
		EventType:      eventType,
		Status:         event.Payload.Status,
		PreviousStatus: event.Payload.PreviousStatus,
		ActorID:        event.Payload.ActorID,
		OccurredAt:     event.Timestamp,
	}
	if err := c.store.Record(ctx, entry); err != nil {
		return err
	}

	c.log.WithContext(ctx).Debug("order event recorded",
		zap.String("order_id", entry.OrderID),
		zap.String("event_type", entry.EventType),
	)
	return nil
}
