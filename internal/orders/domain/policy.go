package domain

import "travelhub/pkg/auth"

// Action is an operation subject to authorization
type Action string

const (
	ActionCreate       Action = "create"
	ActionRead         Action = "read"
	ActionListUser     Action = "list-user"
	ActionListAll      Action = "list-all"
	ActionUpdateStatus Action = "update-status"
	ActionDelete       Action = "delete"
	ActionViewHistory  Action = "view-history"
)

// Authorize decides whether id may perform action on orders owned by ownerID.
// ownerID is the order owner for ActionRead and the target user for ActionListUser;
// other actions ignore it.
func Authorize(id auth.Identity, action Action, ownerID string) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}

	switch action {
	case ActionCreate:
		return nil
	case ActionRead, ActionListUser:
		if id.IsAdmin() || id.UserID == ownerID {
			return nil
		}
		return ErrAccessDenied
	case ActionListAll, ActionUpdateStatus, ActionDelete, ActionViewHistory:
		if id.IsAdmin() {
			return nil
		}
		return ErrAdminOnly
	default:
		return ErrAccessDenied
	}
}

// TransitionPolicy decides which status changes are allowed
type TransitionPolicy interface {
	Allows(from, to OrderStatus) bool
}

// UnrestrictedTransitions accepts any move between valid statuses,
// including back out of cancelled or delivered.
type UnrestrictedTransitions struct{}

// Allows implements TransitionPolicy
func (UnrestrictedTransitions) Allows(from, to OrderStatus) bool {
	return to.Valid()
}

// ForwardTransitions only moves orders forward:
// pending → shipped → delivered, and pending or shipped → cancelled.
type ForwardTransitions struct{}

var forwardGraph = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered, OrderStatusCancelled},
}

// Allows implements TransitionPolicy
func (ForwardTransitions) Allows(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range forwardGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionPolicyByName maps a configuration value to a policy
func TransitionPolicyByName(name string) (TransitionPolicy, bool) {
	switch name {
	case "", "unrestricted":
		return UnrestrictedTransitions{}, true
	case "forward":
		return ForwardTransitions{}, true
	default:
		return nil, false
	}
}
