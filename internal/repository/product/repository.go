package product

import (
	"context"

	"shopmart/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the found products keyed by id; missing ids are
	// absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	// ApplySale decrements quantity and bumps the sold counters by count in
	// one conditional statement. It fails with InsufficientStockError
	// instead of letting quantity go negative.
	ApplySale(ctx context.Context, id string, count int) error
}
