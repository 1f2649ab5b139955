package purchase

import (
	"context"
	"io"
	"log"

	"shopmart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const purchaseColumns = `id::text, user_id::text, product_id::text, buy_count, price_cents, price_before_discount_cents, status, created_at, updated_at`

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

func (r *postgresRepo) FindInCart(ctx context.Context, userID string, ids []string) ([]domain.Purchase, error) {
	const q = `
SELECT ` + purchaseColumns + `
FROM purchases
WHERE user_id = $1 AND id = ANY($2::uuid[]) AND status = $3
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, userID, ids, domain.PurchaseInCart)
	if err != nil {
		r.logger.Printf("purchase repo: find in cart user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Purchase, error) {
	const q = `
SELECT ` + purchaseColumns + `
FROM purchases
WHERE id = ANY($1::uuid[])
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Printf("purchase repo: get by ids error=%v", err)
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *postgresRepo) BulkSetStatus(ctx context.Context, ids []string, status int) (int64, error) {
	const q = `
UPDATE purchases
SET status = $2, updated_at = now()
WHERE id = ANY($1::uuid[])
`
	cmd, err := r.pool.Exec(ctx, q, ids, status)
	if err != nil {
		r.logger.Printf("purchase repo: bulk set status=%d error=%v", status, err)
		return 0, err
	}
	r.logger.Printf("purchase repo: bulk set status=%d rows=%d", status, cmd.RowsAffected())
	return cmd.RowsAffected(), nil
}

func collect(rows pgx.Rows) ([]domain.Purchase, error) {
	var result []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.ProductID,
			&p.BuyCount,
			&p.PriceCents,
			&p.PriceBeforeDiscountCents,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
