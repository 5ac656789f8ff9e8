package adapters

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"travelhub/internal/orders/domain"
	"travelhub/internal/orders/ports"
	usersdomain "travelhub/internal/users/domain"
)

// UserFinder is the part of the users service the order context reads
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*usersdomain.User, error)
}

// UserDirectory implements ports.UserDirectory in-process over the users service
type UserDirectory struct {
	users UserFinder
}

// NewUserDirectory creates a new user directory
func NewUserDirectory(users UserFinder) *UserDirectory {
	return &UserDirectory{users: users}
}

// UserSummaries resolves ids to public user projections; unknown ids are omitted
func (d *UserDirectory) UserSummaries(ctx context.Context, ids []string) (map[string]ports.UserSummary, error) {
	users, err := d.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]ports.UserSummary, len(users))
	for _, u := range users {
		out[u.ID] = ports.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
	}
	return out, nil
}

// productCollections maps item model types to catalog collections
var productCollections = map[domain.ModelType]string{
	domain.ModelTypeHotel:       "hotels",
	domain.ModelTypeDestination: "destinations",
}

type productDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Location string             `bson:"location"`
}

// CatalogDirectory implements ports.CatalogDirectory by reading the catalog collections
type CatalogDirectory struct {
	db *mongo.Database
}

// NewCatalogDirectory creates a new catalog directory
func NewCatalogDirectory(db *mongo.Database) *CatalogDirectory {
	return &CatalogDirectory{db: db}
}

// ProductSummaries issues one query per model type; unknown products are omitted
func (d *CatalogDirectory) ProductSummaries(ctx context.Context, refs []ports.ProductRef) (map[ports.ProductRef]ports.ProductSummary, error) {
	byType := make(map[domain.ModelType][]primitive.ObjectID)
	for _, ref := range refs {
		oid, err := primitive.ObjectIDFromHex(ref.ID)
		if err != nil {
			continue
		}
		byType[ref.ModelType] = append(byType[ref.ModelType], oid)
	}

	out := make(map[ports.ProductRef]ports.ProductSummary, len(refs))
	opts := options.Find().SetProjection(bson.M{"name": 1, "location": 1})

	for modelType, ids := range byType {
		collection, ok := productCollections[modelType]
		if !ok {
			continue
		}

		cursor, err := d.db.Collection(collection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
		if err != nil {
			return out, err
		}

		var docs []productDocument
		err = cursor.All(ctx, &docs)
		cursor.Close(ctx)
		if err != nil {
			return out, err
		}

		for _, doc := range docs {
			ref := ports.ProductRef{ModelType: modelType, ID: doc.ID.Hex()}
			out[ref] = ports.ProductSummary{ID: doc.ID.Hex(), Name: doc.Name, Location: doc.Location}
		}
	}

	return out, nil
}
