package purchase

import (
	"context"

	"shopmart/internal/domain"
)

type Repository interface {
	// FindInCart returns the subset of ids that belong to userID and are
	// still in the cart. Missing or foreign ids are simply absent from the
	// result.
	FindInCart(ctx context.Context, userID string, ids []string) ([]domain.Purchase, error)
	// GetByIDs returns lines by id regardless of owner or status.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Purchase, error)
	// BulkSetStatus flips the status of every listed line and reports how
	// many rows changed.
	BulkSetStatus(ctx context.Context, ids []string, status int) (int64, error)
}
