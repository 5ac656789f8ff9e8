package domain

import (
	"fmt"

	"travelhub/pkg/errors"
)

// Domain-specific errors
var (
	ErrUserRequired      = errors.NewValidation("order owner is required", nil)
	ErrItemsRequired     = errors.NewValidation("order items are required", nil)
	ErrAddressIncomplete = errors.NewValidation("shipping address requires street, city, postalCode and country", nil)
	ErrTotalRequired     = errors.NewValidation("totalAmount is required", nil)
	ErrNegativeTotal     = errors.NewValidation("totalAmount must not be negative", nil)
	ErrAccessDenied      = errors.NewForbidden("access denied")
	ErrAdminOnly         = errors.NewForbidden("only admin can perform this action")
	ErrUnauthenticated   = errors.NewUnauthorized("access denied, please login")
)

// NewOrderNotFound creates a not found error with the order ID
func NewOrderNotFound(id string) error {
	return errors.NewNotFound("order", id)
}

// NewInvalidStatus rejects a status outside AllowedStatuses
func NewInvalidStatus(status string) error {
	return errors.NewValidation("invalid order status", map[string]interface{}{
		"status":  status,
		"allowed": AllowedStatuses,
	})
}

// NewInvalidTransition rejects a move the transition policy forbids
func NewInvalidTransition(from, to OrderStatus) error {
	return errors.NewValidation("invalid status transition", map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

// NewInvalidItem points at the offending item field
func NewInvalidItem(index int, field, rule string) error {
	return errors.NewValidation("invalid order item", []errors.FieldError{{
		Field: fmt.Sprintf("items[%d].%s", index, field),
		Rule:  rule,
	}})
}

// NewTotalMismatch reports a declared total that differs from the item sum
func NewTotalMismatch(declared, calculated string) error {
	return errors.NewValidation("total amount mismatch", map[string]interface{}{
		"declared":   declared,
		"calculated": calculated,
	})
}
