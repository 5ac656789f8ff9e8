package adapters

import (
	"context"

	"travelhub/internal/users/domain"
	"travelhub/pkg/events"
	"travelhub/pkg/logger"
)

// EventPublisher implements ports.EventPublisher on top of a broker publisher
type EventPublisher struct {
	publisher events.Publisher
}

// NewEventPublisher creates a new user event publisher
func NewEventPublisher(publisher events.Publisher) *EventPublisher {
	return &EventPublisher{publisher: publisher}
}

// PublishUserRegistered publishes a user.registered event
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	event := events.NewUserRegisteredEvent(events.UserRegisteredPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}, logger.GetTraceID(ctx))

	return p.publisher.Publish(ctx, events.RoutingKeyUserRegistered, event)
}
