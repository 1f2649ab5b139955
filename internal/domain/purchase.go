package domain

import "time"

// Purchase status codes, kept numerically compatible with the frontend.
const (
	PurchaseInCart              = -1
	PurchaseAll                 = 0
	PurchaseWaitForConfirmation = 1
	PurchaseWaitForGetting      = 2
	PurchaseInProgress          = 3
	PurchaseDelivered           = 4
	PurchaseCancelled           = 5
)

// Purchase is a cart line: (user, product, quantity) with the unit price
// locked at add-to-cart time.
type Purchase struct {
	ID                       string    `json:"id"`
	UserID                   string    `json:"userId"`
	ProductID                string    `json:"productId"`
	BuyCount                 int       `json:"buyCount"`
	PriceCents               int64     `json:"priceCents"`
	PriceBeforeDiscountCents int64     `json:"priceBeforeDiscountCents"`
	Status                   int       `json:"status"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}
