package adapters

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelhub/internal/orders/ports"
	apperrors "travelhub/pkg/errors"
)

// HistoryCollection is the MongoDB collection holding order events
const HistoryCollection = "order_history"

// HistoryDocument is one recorded order event
type HistoryDocument struct {
	EventID        string    `bson:"_id"`
	OrderID        string    `bson:"orderId"`
	EventType      string    `bson:"eventType"`
	Status         string    `bson:"status"`
	PreviousStatus string    `bson:"previousStatus,omitempty"`
	ActorID        string    `bson:"actorId"`
	OccurredAt     time.Time `bson:"occurredAt"`
}

// MongoHistoryStore implements HistoryStore using MongoDB
type MongoHistoryStore struct {
	coll *mongo.Collection
}

// NewMongoHistoryStore creates a new MongoDB history store
func NewMongoHistoryStore(db *mongo.Database) *MongoHistoryStore {
	return &MongoHistoryStore{coll: db.Collection(HistoryCollection)}
}

// EnsureIndexes creates the per-order index
func (s *MongoHistoryStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "occurredAt", Value: 1}},
	})
	if err != nil {
		return apperrors.NewInternal("failed to create history indexes", err)
	}
	return nil
}

// Record stores entry keyed by its event id, so redelivered events are written once
func (s *MongoHistoryStore) Record(ctx context.Context, entry ports.HistoryEntry) error {
	doc := HistoryDocument{
		EventID:        entry.EventID,
		OrderID:        entry.OrderID,
		EventType:      entry.EventType,
		Status:         entry.Status,
		PreviousStatus: entry.PreviousStatus,
		ActorID:        entry.ActorID,
		OccurredAt:     entry.OccurredAt,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.EventID}, doc, opts); err != nil {
		return apperrors.NewInternal("failed to record order history", err)
	}
	return nil
}

// ListByOrder returns the entries of orderID, oldest first
func (s *MongoHistoryStore) ListByOrder(ctx context.Context, orderID string) ([]ports.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.M{"orderId": orderID}, opts)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list order history", err)
	}
	defer cursor.Close(ctx)

	var docs []HistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewInternal("failed to decode order history", err)
	}

	entries := make([]ports.HistoryEntry, len(docs))
	for i, doc := range docs {
		entries[i] = ports.HistoryEntry{
			EventID:        doc.EventID,
			OrderID:        doc.OrderID,
			EventType:      doc.EventType,
			Status:         doc.Status,
			PreviousStatus: doc.PreviousStatus,
			ActorID:        doc.ActorID,
			OccurredAt:     doc.OccurredAt.UTC(),
		}
	}
	return entries, nil
}
