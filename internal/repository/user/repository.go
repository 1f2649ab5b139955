package user

import (
	"context"

	"shopmart/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// SetRecurlyAccountID backfills the stored gateway account reference
	// once a charge has established it.
	SetRecurlyAccountID(ctx context.Context, userID, accountID string) error
}
