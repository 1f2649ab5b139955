package user

import (
	"context"
	"errors"
	"io"
	"log"

	"shopmart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, email, name, password_hash, phone, address, COALESCE(recurly_account_id, ''), created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, name, password_hash, phone, address)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns
	out, err := scanUser(r.pool.QueryRow(ctx, q, u.Email, u.Name, u.PasswordHash, u.Phone, u.Address))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("user repo: create email=%s error=%v", u.Email, err)
		return nil, err
	}
	r.logger.Printf("user repo: created id=%s", out.ID)
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`
	out, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("user repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`
	out, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("user repo: get email=%s error=%v", email, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) SetRecurlyAccountID(ctx context.Context, userID, accountID string) error {
	const q = `
UPDATE users
SET recurly_account_id = $2, updated_at = now()
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, userID, accountID)
	if err != nil {
		r.logger.Printf("user repo: set recurly account user_id=%s error=%v", userID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Phone, &u.Address,
		&u.RecurlyAccountID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
