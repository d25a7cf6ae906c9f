package order

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrNotAuthorized indicates the requester lacks ownership or role
	// for the requested operation.
	ErrNotAuthorized = errors.New("not authorized for this order")

	// ErrEmptyCart indicates order creation was attempted from a cart
	// with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrEmptyOrder indicates an edit would leave the order without any
	// line items. Customers must cancel instead.
	ErrEmptyOrder = errors.New("order must contain at least one item")

	// ErrNotEditable indicates the order has progressed past the point
	// where the customer may change its line items.
	ErrNotEditable = errors.New("only pending unpaid orders can be edited")

	// ErrMissingShippingDetails indicates a shipped transition was
	// attempted without tracking number, courier and estimated delivery
	// date.
	ErrMissingShippingDetails = errors.New("tracking number, courier and estimated delivery date are required to ship")

	// ErrInvalidQuantity indicates a line item quantity below one.
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
)

// InvalidTransitionError reports a status move the state machine does
// not allow, including re-entering the current status.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
