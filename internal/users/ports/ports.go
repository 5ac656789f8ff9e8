package ports

import (
	"context"
	"time"

	"travelhub/internal/users/domain"
	"travelhub/pkg/auth"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user; a taken email yields ErrEmailExists
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDs retrieves the users that exist among ids
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates an existing user
	Update(ctx context.Context, user *domain.User) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// PublishUserRegistered publishes a user registered event
	PublishUserRegistered(ctx context.Context, user *domain.User) error
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(userID string, role auth.Role) (string, time.Time, error)
}
