package order

import (
	"context"
	"time"

	"shopmart/internal/domain"
)

// CreateOrderInput carries the immutable draft persisted at checkout time.
type CreateOrderInput struct {
	UserID           string
	PurchaseIDs      []string
	FullName         string
	Phone            string
	Address          string
	Note             string
	TotalCents       int64
	ShippingFeeCents int64
	PaymentMethod    string
}

// ListFilter narrows the caller's order listing.
type ListFilter struct {
	Status *domain.OrderStatus
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

type Repository interface {
	// Create persists a new order in Pending state and returns it with its
	// assigned id and timestamps.
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	// FindPending returns the order only if it belongs to userID and is
	// still Pending. This filter is the guard that keeps terminal orders
	// from ever reaching the gateway again.
	FindPending(ctx context.Context, orderID, userID string) (*domain.Order, error)
	// Save persists the mutable payment-outcome fields after a status
	// transition.
	Save(ctx context.Context, o *domain.Order) error
	// GetByID returns the order regardless of status, scoped to its owner.
	GetByID(ctx context.Context, orderID, userID string) (*domain.Order, error)
	// List returns the caller's orders, newest first, plus the total count
	// for pagination.
	List(ctx context.Context, userID string, f ListFilter) ([]domain.Order, int, error)
}
