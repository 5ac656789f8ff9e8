package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base carries the identity and timestamps shared by every catalog document
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Meta exposes the shared fields to generic code
func (b *Base) Meta() *Base { return b }

// Document is implemented by pointers to catalog entities
type Document interface {
	Meta() *Base
}

// DocumentPtr constrains generic code to *T where *T is a Document
type DocumentPtr[T any] interface {
	*T
	Document
}

// Agency is a travel agency listed on the marketplace
type Agency struct {
	Base        `bson:",inline"`
	Name        string              `bson:"name" json:"name" binding:"required"`
	Description string              `bson:"description" json:"description"`
	Location    string              `bson:"location" json:"location"`
	Category    *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	Email       string              `bson:"email,omitempty" json:"email,omitempty" binding:"omitempty,email"`
	Phone       string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Website     string              `bson:"website,omitempty" json:"website,omitempty" binding:"omitempty,url"`
	Rating      float64             `bson:"rating" json:"rating" binding:"min=0,max=5"`
}

// Destination is a bookable trip offered by an agency
type Destination struct {
	Base        `bson:",inline"`
	Name        string             `bson:"name" json:"name" binding:"required"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location" binding:"required"`
	Price       float64            `bson:"price" json:"price" binding:"min=0"`
	Duration    string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	Agency      primitive.ObjectID `bson:"agency" json:"agency" binding:"required"`
}

// Hotel is a bookable stay offered by an agency
type Hotel struct {
	Base          `bson:",inline"`
	Name          string             `bson:"name" json:"name" binding:"required"`
	Description   string             `bson:"description" json:"description"`
	Location      string             `bson:"location" json:"location" binding:"required"`
	PricePerNight float64            `bson:"pricePerNight" json:"pricePerNight" binding:"min=0"`
	Stars         int                `bson:"stars" json:"stars" binding:"min=0,max=5"`
	Amenities     []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Agency        primitive.ObjectID `bson:"agency" json:"agency" binding:"required"`
}

// Category groups agencies, e.g. "adventure" or "honeymoon"
type Category struct {
	Base        `bson:",inline"`
	Name        string              `bson:"name" json:"name" binding:"required"`
	Description string              `bson:"description" json:"description"`
	Agency      *primitive.ObjectID `bson:"agency,omitempty" json:"agency,omitempty"`
}

// Review is a user's rating of an agency
type Review struct {
	Base    `bson:",inline"`
	Agency  primitive.ObjectID `bson:"agency" json:"agency" binding:"required"`
	User    string             `bson:"user" json:"user"`
	Rating  int                `bson:"rating" json:"rating" binding:"required,min=1,max=5"`
	Comment string             `bson:"comment" json:"comment" binding:"max=2000"`

	// Username is resolved on read and never stored
	Username string `bson:"-" json:"username,omitempty"`
}

// AgencyDetails is an agency with everything it offers
type AgencyDetails struct {
	Agency       *Agency        `json:"agency"`
	Destinations []*Destination `json:"destinations"`
	Hotels       []*Hotel       `json:"hotels"`
	Categories   []*Category    `json:"categories"`
	Reviews      []*Review      `json:"reviews"`
}
