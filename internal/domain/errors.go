package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")

	// ErrMissingFields is returned when an order draft lacks required fields.
	ErrMissingFields = errors.New("order information is incomplete")
	// ErrPayerNotFound is returned when the calling user no longer exists.
	ErrPayerNotFound = errors.New("payer not found")
	// ErrEmptyCart is returned when none of the requested lines are in the
	// caller's cart.
	ErrEmptyCart = errors.New("no products found in cart")
	// ErrInvalidOrderID is returned for a malformed order id.
	ErrInvalidOrderID = errors.New("invalid order id")
	// ErrOrderNotPayable covers orders that do not exist, belong to someone
	// else, or are no longer pending. Callers get one uniform answer so the
	// response does not leak which case it was.
	ErrOrderNotPayable = errors.New("order not found or not awaiting payment")
)

// InsufficientStockError reports the first cart line whose requested count
// exceeds the product's on-hand quantity.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %q has only %d left in stock", e.ProductName, e.Available)
}

// PaymentDeclinedError is a gateway-reported decline. The order has already
// been persisted as PaymentFailed when this surfaces.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// GatewayFaultError wraps a transport or unexpected failure while talking to
// the payment processor, as opposed to a decline.
type GatewayFaultError struct {
	Err error
}

func (e *GatewayFaultError) Error() string {
	return fmt.Sprintf("payment gateway fault: %v", e.Err)
}

func (e *GatewayFaultError) Unwrap() error { return e.Err }
