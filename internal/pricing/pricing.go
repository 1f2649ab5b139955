// Package pricing computes order subtotals and validates stock against a
// catalog snapshot. It is deliberately pure: no state is read or written, so
// callers can run it speculatively without side effects.
package pricing

import (
	"fmt"

	"shopmart/internal/domain"
)

// Quote returns the subtotal (locked unit price times count, summed over all
// lines) after checking each line against the catalog snapshot. It fails on
// the first line whose count exceeds the product's on-hand quantity, naming
// the product and what is left. The snapshot reflects quantities as read at
// validation time; nothing is reserved here.
func Quote(lines []domain.Purchase, products map[string]domain.Product) (int64, error) {
	if len(lines) == 0 {
		return 0, domain.ErrEmptyCart
	}

	var subtotal int64
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return 0, fmt.Errorf("product %s: %w", line.ProductID, domain.ErrNotFound)
		}
		if line.BuyCount > p.Quantity {
			return 0, &domain.InsufficientStockError{ProductName: p.Name, Available: p.Quantity}
		}
		subtotal += line.PriceCents * int64(line.BuyCount)
	}
	return subtotal, nil
}
