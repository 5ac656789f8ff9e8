package application

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"travelhub/internal/catalog/domain"
	"travelhub/internal/catalog/ports"
	"travelhub/pkg/errors"
	"travelhub/pkg/logger"
	"travelhub/pkg/validation"
)

// SearchLimit caps every catalog search
const SearchLimit = 30

// ReferenceCheck rejects a document whose references do not resolve
type ReferenceCheck[T any] func(ctx context.Context, doc *T) error

// Service implements CRUD and search for one kind of catalog document
type Service[T any, PT domain.DocumentPtr[T]] struct {
	store        ports.Store[T]
	resource     string
	searchFields []string
	check        ReferenceCheck[T]
	log          *logger.Logger
}

// NewService creates a catalog service. searchFields may be empty when the
// resource is not searchable; check may be nil.
func NewService[T any, PT domain.DocumentPtr[T]](store ports.Store[T], resource string, searchFields []string, check ReferenceCheck[T], log *logger.Logger) *Service[T, PT] {
	return &Service[T, PT]{
		store:        store,
		resource:     resource,
		searchFields: searchFields,
		check:        check,
		log:          log,
	}
}

// Searchable reports whether Search is supported
func (s *Service[T, PT]) Searchable() bool {
	return len(s.searchFields) > 0
}

// Create stores a new document
func (s *Service[T, PT]) Create(ctx context.Context, doc *T) (*T, error) {
	if s.check != nil {
		if err := s.check(ctx, doc); err != nil {
			return nil, err
		}
	}

	if err := s.store.Insert(ctx, doc); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info(s.resource+" created", zap.String("id", PT(doc).Meta().ID.Hex()))
	return doc, nil
}

// List returns every document matching filter
func (s *Service[T, PT]) List(ctx context.Context, filter ports.Filter) ([]*T, error) {
	return s.store.Find(ctx, filter, 0)
}

// Get returns one document
func (s *Service[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	return s.store.Get(ctx, id)
}

// Update merges the JSON fields in patch onto the stored document.
// Fields absent from patch keep their stored value; id and createdAt never change.
func (s *Service[T, PT]) Update(ctx context.Context, id string, patch []byte) (*T, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	meta := PT(doc).Meta()
	oid, createdAt := meta.ID, meta.CreatedAt

	if err := json.Unmarshal(patch, doc); err != nil {
		return nil, validation.FromBindingError(err)
	}
	meta.ID, meta.CreatedAt = oid, createdAt

	if err := validation.Struct(doc); err != nil {
		return nil, err
	}
	if s.check != nil {
		if err := s.check(ctx, doc); err != nil {
			return nil, err
		}
	}

	if err := s.store.Replace(ctx, doc); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info(s.resource+" updated", zap.String("id", id))
	return doc, nil
}

// Delete removes one document
func (s *Service[T, PT]) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithContext(ctx).Info(s.resource+" deleted", zap.String("id", id))
	return nil
}

// Search matches query against the searchable fields, at most SearchLimit results
func (s *Service[T, PT]) Search(ctx context.Context, query string) ([]*T, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrQueryRequired
	}
	if !s.Searchable() {
		return nil, errors.NewValidation(s.resource+" is not searchable", nil)
	}
	return s.store.Search(ctx, s.searchFields, query, SearchLimit)
}
