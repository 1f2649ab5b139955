package domain

import "time"

// Product is the catalog record the checkout core reads. Quantity and the
// sold counters are mutated only through the conditional decrement applied
// during settlement.
type Product struct {
	ID                       string    `json:"id"`
	Name                     string    `json:"name"`
	Image                    string    `json:"image,omitempty"`
	PriceCents               int64     `json:"priceCents"`
	PriceBeforeDiscountCents int64     `json:"priceBeforeDiscountCents"`
	Quantity                 int       `json:"quantity"`
	Sold                     int       `json:"sold"`
	MonthlySold              int       `json:"monthlySold"`
	CreatedAt                time.Time `json:"createdAt"`
}
