package domain

import (
	"strings"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// AllowedStatuses lists every status an order may hold
var AllowedStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of AllowedStatuses
func (s OrderStatus) Valid() bool {
	for _, allowed := range AllowedStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// ModelType names the catalog collection an item refers to
type ModelType string

const (
	ModelTypeHotel       ModelType = "Hotel"
	ModelTypeDestination ModelType = "Destination"
)

// Valid reports whether t is a known product type
func (t ModelType) Valid() bool {
	return t == ModelTypeHotel || t == ModelTypeDestination
}

// OrderItem is one booked product. It has no identity outside its order.
type OrderItem struct {
	ProductID string
	ModelType ModelType
	Quantity  int
	Price     float64
}

// ShippingAddress is where booking documents are sent
type ShippingAddress struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Complete reports whether all four fields are populated
func (a ShippingAddress) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.Country) != ""
}

// Order is the aggregate root owning items and address
type Order struct {
	ID              string
	UserID          string
	Items           []OrderItem
	TotalAmount     float64
	ShippingAddress ShippingAddress
	Status          OrderStatus
	OrderDate       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder creates a pending order owned by userID
func NewOrder(userID string, items []OrderItem, total float64, address ShippingAddress, now time.Time) (*Order, error) {
	order := &Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: address,
		Status:          OrderStatusPending,
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate checks the aggregate invariants
func (o *Order) Validate() error {
	if o.UserID == "" {
		return ErrUserRequired
	}
	if len(o.Items) == 0 {
		return ErrItemsRequired
	}
	for i, item := range o.Items {
		if err := validateItem(i, item); err != nil {
			return err
		}
	}
	if !o.ShippingAddress.Complete() {
		return ErrAddressIncomplete
	}
	if o.TotalAmount < 0 {
		return ErrNegativeTotal
	}
	if !o.Status.Valid() {
		return NewInvalidStatus(string(o.Status))
	}
	return nil
}

func validateItem(index int, item OrderItem) error {
	switch {
	case item.ProductID == "":
		return NewInvalidItem(index, "productId", "required")
	case !item.ModelType.Valid():
		return NewInvalidItem(index, "modelType", "oneof")
	case item.Quantity < 1:
		return NewInvalidItem(index, "quantity", "min")
	case item.Price < 0:
		return NewInvalidItem(index, "price", "min")
	}
	return nil
}

// ChangeStatus moves the order to next if policy allows it and returns the previous status
func (o *Order) ChangeStatus(next OrderStatus, policy TransitionPolicy, now time.Time) (OrderStatus, error) {
	if !next.Valid() {
		return o.Status, NewInvalidStatus(string(next))
	}
	previous := o.Status
	if !policy.Allows(previous, next) {
		return previous, NewInvalidTransition(previous, next)
	}
	o.Status = next
	o.UpdatedAt = now
	return previous, nil
}
