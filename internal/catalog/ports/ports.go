package ports

import "context"

// Filter is an equality match on document fields
type Filter map[string]interface{}

// Store persists one kind of catalog document
type Store[T any] interface {
	// Insert assigns an ID and timestamps and stores doc
	Insert(ctx context.Context, doc *T) error

	// Find returns documents matching filter; limit 0 means no limit
	Find(ctx context.Context, filter Filter, limit int64) ([]*T, error)

	// Search matches query case-insensitively against any of fields
	Search(ctx context.Context, fields []string, query string, limit int64) ([]*T, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*T, error)

	// FindOne returns the first document matching filter
	FindOne(ctx context.Context, filter Filter) (*T, error)

	// Replace overwrites the stored document with doc and bumps updatedAt
	Replace(ctx context.Context, doc *T) error

	// Delete removes a document by ID
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves user ids to usernames; unknown ids are omitted
type UserDirectory interface {
	Usernames(ctx context.Context, ids []string) (map[string]string, error)
}
