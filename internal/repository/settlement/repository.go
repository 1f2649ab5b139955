package settlement

import (
	"context"
	"encoding/json"
	"time"
)

// Task kinds. Each corresponds to one follow-on effect of a successful
// charge.
const (
	KindFlipCart        = "flip_cart"
	KindDecrementStock  = "decrement_stock"
	KindBackfillAccount = "backfill_account"
)

// Task statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// FlipCartPayload moves the order's cart lines out of the cart once payment
// has landed.
type FlipCartPayload struct {
	PurchaseIDs []string `json:"purchase_ids"`
}

// DecrementStockPayload applies one product's sale counters.
type DecrementStockPayload struct {
	ProductID string `json:"product_id"`
	BuyCount  int    `json:"buy_count"`
}

// BackfillAccountPayload stores the gateway account id learned from a charge.
type BackfillAccountPayload struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
}

// NewTask is a task to enqueue after an order turns Paid.
type NewTask struct {
	OrderID string
	Kind    string
	Payload any
}

// Task is a claimed outbox row.
type Task struct {
	ID            int64
	OrderID       string
	Kind          string
	Payload       json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
}

type Repository interface {
	// Enqueue inserts tasks as pending and immediately due.
	Enqueue(ctx context.Context, tasks []NewTask) error
	// ClaimDue leases up to limit pending tasks whose next attempt time
	// has passed, oldest first. A leased task stays pending but is not
	// handed to another claimer until the lease lapses.
	ClaimDue(ctx context.Context, limit int) ([]Task, error)
	MarkDone(ctx context.Context, id int64) error
	// Reschedule bumps the attempt counter and pushes the task out to
	// nextAt, recording the error that caused the retry.
	Reschedule(ctx context.Context, id int64, nextAt time.Time, lastErr string) error
	// MarkFailed parks the task permanently with its final error.
	MarkFailed(ctx context.Context, id int64, lastErr string) error
}
