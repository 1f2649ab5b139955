// Package settlement drains the post-payment task queue. Each task is one
// follow-on effect of a Paid order; the worker retries transient failures
// with backoff and parks tasks that can never succeed, so a committed
// payment eventually reconciles with cart and stock state without ever being
// rolled back.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"shopmart/internal/domain"
	"shopmart/internal/metrics"
	"shopmart/internal/repository/settlement"
)

type taskRepo interface {
	ClaimDue(ctx context.Context, limit int) ([]settlement.Task, error)
	MarkDone(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, nextAt time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
}

type purchaseRepo interface {
	BulkSetStatus(ctx context.Context, ids []string, status int) (int64, error)
}

type productRepo interface {
	ApplySale(ctx context.Context, id string, count int) error
}

type userRepo interface {
	SetRecurlyAccountID(ctx context.Context, userID, accountID string) error
}

type Worker struct {
	tasks     taskRepo
	purchases purchaseRepo
	products  productRepo
	users     userRepo
	metrics   *metrics.Metrics
	logger    *log.Logger

	interval    time.Duration
	batch       int
	maxAttempts int
	backoffBase time.Duration
	now         func() time.Time
}

func NewWorker(
	tasks taskRepo,
	purchases purchaseRepo,
	products productRepo,
	users userRepo,
	m *metrics.Metrics,
	logger *log.Logger,
	interval time.Duration,
	batch int,
	maxAttempts int,
) *Worker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	return &Worker{
		tasks:       tasks,
		purchases:   purchases,
		products:    products,
		users:       users,
		metrics:     m,
		logger:      logger,
		interval:    interval,
		batch:       batch,
		maxAttempts: maxAttempts,
		backoffBase: 30 * time.Second,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run drains the queue on a fixed interval until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Printf("settlement worker: started interval=%s batch=%d", w.interval, w.batch)
	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("settlement worker: stopped")
			return ctx.Err()
		case <-ticker.C:
			if n := w.DrainOnce(ctx); n > 0 {
				w.logger.Printf("settlement worker: processed %d tasks", n)
			}
		}
	}
}

// DrainOnce claims one batch of due tasks and executes them. It returns the
// number of tasks handled.
func (w *Worker) DrainOnce(ctx context.Context) int {
	tasks, err := w.tasks.ClaimDue(ctx, w.batch)
	if err != nil {
		w.logger.Printf("settlement worker: claim error=%v", err)
		return 0
	}
	for _, t := range tasks {
		w.handle(ctx, t)
	}
	return len(tasks)
}

func (w *Worker) handle(ctx context.Context, t settlement.Task) {
	err := w.execute(ctx, t)
	if err == nil {
		if err := w.tasks.MarkDone(ctx, t.ID); err != nil {
			w.logger.Printf("settlement worker: mark done id=%d error=%v", t.ID, err)
		}
		w.metrics.SettlementTask(t.Kind, "done")
		return
	}

	// Insufficient stock cannot resolve by retrying: the conditional
	// decrement refused rather than oversell. Park it for reconciliation.
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		w.logger.Printf("settlement worker: task id=%d order_id=%s parked: %v", t.ID, t.OrderID, err)
		if err := w.tasks.MarkFailed(ctx, t.ID, err.Error()); err != nil {
			w.logger.Printf("settlement worker: mark failed id=%d error=%v", t.ID, err)
		}
		w.metrics.SettlementTask(t.Kind, "failed")
		return
	}

	if t.Attempts+1 >= w.maxAttempts {
		w.logger.Printf("settlement worker: task id=%d order_id=%s gave up after %d attempts: %v", t.ID, t.OrderID, t.Attempts+1, err)
		if err := w.tasks.MarkFailed(ctx, t.ID, err.Error()); err != nil {
			w.logger.Printf("settlement worker: mark failed id=%d error=%v", t.ID, err)
		}
		w.metrics.SettlementTask(t.Kind, "failed")
		return
	}

	nextAt := w.now().Add(w.backoff(t.Attempts))
	if err := w.tasks.Reschedule(ctx, t.ID, nextAt, err.Error()); err != nil {
		w.logger.Printf("settlement worker: reschedule id=%d error=%v", t.ID, err)
	}
	w.metrics.SettlementTask(t.Kind, "retried")
}

// backoff doubles per attempt from the base, capped at an hour.
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.backoffBase
	for i := 0; i < attempts && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

func (w *Worker) execute(ctx context.Context, t settlement.Task) error {
	switch t.Kind {
	case settlement.KindFlipCart:
		var p settlement.FlipCartPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		_, err := w.purchases.BulkSetStatus(ctx, p.PurchaseIDs, domain.PurchaseWaitForConfirmation)
		return err

	case settlement.KindDecrementStock:
		var p settlement.DecrementStockPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return w.products.ApplySale(ctx, p.ProductID, p.BuyCount)

	case settlement.KindBackfillAccount:
		var p settlement.BackfillAccountPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return w.users.SetRecurlyAccountID(ctx, p.UserID, p.AccountID)

	default:
		return fmt.Errorf("unknown task kind %q", t.Kind)
	}
}
