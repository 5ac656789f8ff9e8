package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelhub/internal/orders/domain"
	apperrors "travelhub/pkg/errors"
)

// OrdersCollection is the MongoDB collection holding orders
const OrdersCollection = "orders"

// OrderItemDocument is the persisted form of an order item
type OrderItemDocument struct {
	ProductID string  `bson:"productId"`
	ModelType string  `bson:"modelType"`
	Quantity  int     `bson:"quantity"`
	Price     float64 `bson:"price"`
}

// ShippingAddressDocument is the persisted form of a shipping address
type ShippingAddressDocument struct {
	Street     string `bson:"street"`
	City       string `bson:"city"`
	PostalCode string `bson:"postalCode"`
	Country    string `bson:"country"`
}

// OrderDocument is the MongoDB document for orders (persistence layer)
type OrderDocument struct {
	ID              primitive.ObjectID      `bson:"_id,omitempty"`
	UserID          string                  `bson:"user"`
	Items           []OrderItemDocument     `bson:"items"`
	TotalAmount     float64                 `bson:"totalAmount"`
	ShippingAddress ShippingAddressDocument `bson:"shippingAddress"`
	Status          string                  `bson:"status"`
	OrderDate       time.Time               `bson:"orderDate"`
	CreatedAt       time.Time               `bson:"createdAt"`
	UpdatedAt       time.Time               `bson:"updatedAt"`
}

// MongoOrderRepository implements OrderRepository using MongoDB
type MongoOrderRepository struct {
	coll *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{coll: db.Collection(OrdersCollection)}
}

// EnsureIndexes creates the owner index used by the per-user queries
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return apperrors.NewInternal("failed to create order indexes", err)
	}
	return nil
}

// Create inserts a new order and assigns its ID
func (r *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	doc := toDocument(order)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return apperrors.NewInternal("failed to create order", err)
	}

	order.ID = doc.ID.Hex()
	return nil
}

// GetByID retrieves an order by ID. A malformed id is reported as not found.
func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewOrderNotFound(id)
	}
	return r.findOne(ctx, id, bson.M{"_id": oid})
}

// GetByIDForUser retrieves an order only if userID owns it
func (r *MongoOrderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewOrderNotFound(id)
	}
	return r.findOne(ctx, id, bson.M{"_id": oid, "user": userID})
}

func (r *MongoOrderRepository) findOne(ctx context.Context, id string, filter bson.M) (*domain.Order, error) {
	var doc OrderDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get order", err)
	}
	return toDomain(&doc), nil
}

// ListByUser retrieves orders owned by userID, newest first
func (r *MongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"user": userID})
}

// ListAll retrieves every order, newest first
func (r *MongoOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list orders", err)
	}
	defer cursor.Close(ctx)

	var docs []OrderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewInternal("failed to decode orders", err)
	}

	orders := make([]*domain.Order, len(docs))
	for i := range docs {
		orders[i] = toDomain(&docs[i])
	}
	return orders, nil
}

// UpdateStatus overwrites status and updatedAt in one write and returns the stored order
func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewOrderNotFound(id)
	}

	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": updatedAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc OrderDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to update order status", err)
	}
	return toDomain(&doc), nil
}

// Delete permanently removes an order
func (r *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.NewOrderNotFound(id)
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperrors.NewInternal("failed to delete order", err)
	}
	if result.DeletedCount == 0 {
		return domain.NewOrderNotFound(id)
	}
	return nil
}

// toDocument converts a domain entity to a MongoDB document
func toDocument(order *domain.Order) *OrderDocument {
	items := make([]OrderItemDocument, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemDocument{
			ProductID: item.ProductID,
			ModelType: string(item.ModelType),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	return &OrderDocument{
		UserID:      order.UserID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		ShippingAddress: ShippingAddressDocument{
			Street:     order.ShippingAddress.Street,
			City:       order.ShippingAddress.City,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		Status:    string(order.Status),
		OrderDate: order.OrderDate,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

// toDomain converts a MongoDB document to a domain entity
func toDomain(doc *OrderDocument) *domain.Order {
	items := make([]domain.OrderItem, len(doc.Items))
	for i, item := range doc.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			ModelType: domain.ModelType(item.ModelType),
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	return &domain.Order{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID,
		Items:       items,
		TotalAmount: doc.TotalAmount,
		ShippingAddress: domain.ShippingAddress{
			Street:     doc.ShippingAddress.Street,
			City:       doc.ShippingAddress.City,
			PostalCode: doc.ShippingAddress.PostalCode,
			Country:    doc.ShippingAddress.Country,
		},
		Status:    domain.OrderStatus(doc.Status),
		OrderDate: doc.OrderDate.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}
