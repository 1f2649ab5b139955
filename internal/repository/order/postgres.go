package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"shopmart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id::text, user_id::text, purchase_ids::text[], full_name, phone, address, note,
total_cents, shipping_fee_cents, payment_method, status,
recurly_transaction_id, recurly_account_id, gateway_response, payment_error, paid_at, created_at`

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

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, purchase_ids, full_name, phone, address, note, total_cents, shipping_fee_cents, payment_method, status)
VALUES ($1, $2::uuid[], $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns
	row := r.pool.QueryRow(ctx, q,
		in.UserID,
		in.PurchaseIDs,
		in.FullName,
		in.Phone,
		in.Address,
		in.Note,
		in.TotalCents,
		in.ShippingFeeCents,
		in.PaymentMethod,
		string(domain.OrderStatusPending),
	)
	o, err := scanOrder(row)
	if err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", in.UserID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s user_id=%s total_cents=%d", o.ID, o.UserID, o.TotalCents)
	return o, nil
}

func (r *postgresRepo) FindPending(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND user_id = $2 AND status = $3
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, orderID, userID, string(domain.OrderStatusPending)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: find pending id=%s user_id=%s error=%v", orderID, userID, err)
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) Save(ctx context.Context, o *domain.Order) error {
	const q = `
UPDATE orders
SET status = $2,
    recurly_transaction_id = $3,
    recurly_account_id = $4,
    gateway_response = $5,
    payment_error = $6,
    paid_at = $7
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q,
		o.ID,
		string(o.Status),
		o.RecurlyTransactionID,
		o.RecurlyAccountID,
		o.GatewayResponse,
		o.PaymentError,
		o.PaidAt,
	)
	if err != nil {
		r.logger.Printf("order repo: save id=%s error=%v", o.ID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("order repo: saved id=%s status=%s", o.ID, o.Status)
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND user_id = $2
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get id=%s user_id=%s error=%v", orderID, userID, err)
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, userID string, f ListFilter) ([]domain.Order, int, error) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		r.logger.Printf("order repo: count user_id=%s error=%v", userID, err)
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`
SELECT `+orderColumns+`
FROM orders
WHERE %s
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d
`, cond, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status string
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.PurchaseIDs,
		&o.FullName,
		&o.Phone,
		&o.Address,
		&o.Note,
		&o.TotalCents,
		&o.ShippingFeeCents,
		&o.PaymentMethod,
		&status,
		&o.RecurlyTransactionID,
		&o.RecurlyAccountID,
		&o.GatewayResponse,
		&o.PaymentError,
		&o.PaidAt,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
