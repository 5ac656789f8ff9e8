package adapters

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelhub/internal/catalog/domain"
	"travelhub/internal/catalog/ports"
	apperrors "travelhub/pkg/errors"
)

// Catalog collections
const (
	CollectionAgencies     = "agencies"
	CollectionDestinations = "destinations"
	CollectionHotels       = "hotels"
	CollectionCategories   = "categories"
	CollectionReviews      = "reviews"
)

// MongoStore implements ports.Store for one collection
type MongoStore[T any, PT domain.DocumentPtr[T]] struct {
	coll     *mongo.Collection
	resource string
	now      func() time.Time
}

// NewMongoStore creates a store over collection; resource names the
// document kind in NOT_FOUND errors
func NewMongoStore[T any, PT domain.DocumentPtr[T]](db *mongo.Database, collection, resource string) *MongoStore[T, PT] {
	return &MongoStore[T, PT]{
		coll:     db.Collection(collection),
		resource: resource,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates single-field indexes on keys
func (s *MongoStore[T, PT]) EnsureIndexes(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, len(keys))
	for i, key := range keys {
		models[i] = mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}}
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return apperrors.NewInternal("failed to create "+s.resource+" indexes", err)
	}
	return nil
}

// Insert assigns an ID and timestamps and stores doc
func (s *MongoStore[T, PT]) Insert(ctx context.Context, doc *T) error {
	meta := PT(doc).Meta()
	now := s.now()
	meta.ID = primitive.NewObjectID()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return apperrors.NewInternal("failed to create "+s.resource, err)
	}
	return nil
}

// Find returns documents matching filter, newest first
func (s *MongoStore[T, PT]) Find(ctx context.Context, filter ports.Filter, limit int64) ([]*T, error) {
	if filter == nil {
		filter = ports.Filter{}
	}
	return s.find(ctx, bson.M(filter), limit)
}

// Search matches query against fields; query is escaped so it is matched literally
func (s *MongoStore[T, PT]) Search(ctx context.Context, fields []string, query string, limit int64) ([]*T, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}

	or := make(bson.A, len(fields))
	for i, field := range fields {
		or[i] = bson.M{field: pattern}
	}
	return s.find(ctx, bson.M{"$or": or}, limit)
}

func (s *MongoStore[T, PT]) find(ctx context.Context, filter bson.M, limit int64) ([]*T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list "+s.resource, err)
	}
	defer cursor.Close(ctx)

	docs := make([]*T, 0)
	for cursor.Next(ctx) {
		doc := new(T)
		if err := cursor.Decode(doc); err != nil {
			return nil, apperrors.NewInternal("failed to decode "+s.resource, err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewInternal("failed to list "+s.resource, err)
	}
	return docs, nil
}

// Get retrieves a document by ID. A malformed id is reported as not found.
func (s *MongoStore[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NewNotFound(s.resource, id)
	}

	doc := new(T)
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound(s.resource, id)
		}
		return nil, apperrors.NewInternal("failed to get "+s.resource, err)
	}
	return doc, nil
}

// FindOne returns the first document matching filter
func (s *MongoStore[T, PT]) FindOne(ctx context.Context, filter ports.Filter) (*T, error) {
	doc := new(T)
	if err := s.coll.FindOne(ctx, bson.M(filter)).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &apperrors.AppError{Code: apperrors.CodeNotFound, Message: s.resource + " not found"}
		}
		return nil, apperrors.NewInternal("failed to get "+s.resource, err)
	}
	return doc, nil
}

// Replace overwrites the stored document and bumps updatedAt
func (s *MongoStore[T, PT]) Replace(ctx context.Context, doc *T) error {
	meta := PT(doc).Meta()
	meta.UpdatedAt = s.now()

	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": meta.ID}, doc)
	if err != nil {
		return apperrors.NewInternal("failed to update "+s.resource, err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NewNotFound(s.resource, meta.ID.Hex())
	}
	return nil
}

// Delete removes a document by ID
func (s *MongoStore[T, PT]) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NewNotFound(s.resource, id)
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperrors.NewInternal("failed to delete "+s.resource, err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NewNotFound(s.resource, id)
	}
	return nil
}
