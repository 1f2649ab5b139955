package settlement

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Enqueue(ctx context.Context, tasks []NewTask) error {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO settlement_tasks (order_id, kind, payload)
VALUES ($1, $2, $3)
`
	for _, t := range tasks {
		payload, err := json.Marshal(t.Payload)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, q, t.OrderID, t.Kind, payload); err != nil {
			r.logger.Printf("settlement repo: enqueue order_id=%s kind=%s error=%v", t.OrderID, t.Kind, err)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("settlement repo: enqueued %d tasks order_id=%s", len(tasks), tasks[0].OrderID)
	return nil
}

func (r *postgresRepo) ClaimDue(ctx context.Context, limit int) ([]Task, error) {
	// SKIP LOCKED plus a short lease keeps concurrent drainers from running
	// the same task twice; stock decrements are not idempotent.
	const q = `
UPDATE settlement_tasks
SET next_attempt_at = now() + interval '2 minutes'
WHERE id IN (
	SELECT id
	FROM settlement_tasks
	WHERE status = 'pending' AND next_attempt_at <= now()
	ORDER BY id
	FOR UPDATE SKIP LOCKED
	LIMIT $1
)
RETURNING id, order_id::text, kind, payload, status, attempts, next_attempt_at, last_error, created_at
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		r.logger.Printf("settlement repo: claim due error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Kind, &t.Payload, &t.Status, &t.Attempts, &t.NextAttemptAt, &t.LastError, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *postgresRepo) MarkDone(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE settlement_tasks SET status = 'done' WHERE id = $1`, id)
	return err
}

func (r *postgresRepo) Reschedule(ctx context.Context, id int64, nextAt time.Time, lastErr string) error {
	const q = `
UPDATE settlement_tasks
SET attempts = attempts + 1, next_attempt_at = $2, last_error = $3
WHERE id = $1
`
	_, err := r.pool.Exec(ctx, q, id, nextAt, lastErr)
	return err
}

func (r *postgresRepo) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	const q = `
UPDATE settlement_tasks
SET status = 'failed', attempts = attempts + 1, last_error = $2
WHERE id = $1
`
	_, err := r.pool.Exec(ctx, q, id, lastErr)
	return err
}
