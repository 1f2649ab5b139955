package product

import (
	"context"
	"errors"
	"io"
	"log"

	"shopmart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id::text, name, image, price_cents, price_before_discount_cents, quantity, sold, monthly_sold, created_at`

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Image, &p.PriceCents, &p.PriceBeforeDiscountCents,
		&p.Quantity, &p.Sold, &p.MonthlySold, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE id = ANY($1::uuid[])
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Printf("product repo: get by ids error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Image, &p.PriceCents, &p.PriceBeforeDiscountCents,
			&p.Quantity, &p.Sold, &p.MonthlySold, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) ApplySale(ctx context.Context, id string, count int) error {
	const q = `
UPDATE products
SET quantity = quantity - $2,
    sold = sold + $2,
    monthly_sold = monthly_sold + $2
WHERE id = $1 AND quantity >= $2
`
	cmd, err := r.pool.Exec(ctx, q, id, count)
	if err != nil {
		r.logger.Printf("product repo: apply sale id=%s count=%d error=%v", id, count, err)
		return err
	}
	if cmd.RowsAffected() > 0 {
		r.logger.Printf("product repo: applied sale id=%s count=%d", id, count)
		return nil
	}

	// The condition did not match: either the product is gone or the stock
	// ran out between validation and settlement.
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ProductName: p.Name, Available: p.Quantity}
}
