package domain

import "time"

// OrderStatus is the lifecycle state of an order. Pending, Paid and
// PaymentFailed are the states managed by the checkout core; the rest exist
// for fulfilment systems and are never set here.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "Pending"
	OrderStatusPaid          OrderStatus = "Paid"
	OrderStatusPaymentFailed OrderStatus = "PaymentFailed"
	OrderStatusProcessing    OrderStatus = "Processing"
	OrderStatusShipping      OrderStatus = "Shipping"
	OrderStatusDelivered     OrderStatus = "Delivered"
	OrderStatusCompleted     OrderStatus = "Completed"
	OrderStatusCanceled      OrderStatus = "Canceled"
)

// Terminal reports whether the checkout core considers the status final.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusPaymentFailed
}

// Order is a priced, addressed purchase request. TotalCents is fixed at
// creation from the referenced cart lines and never recomputed.
type Order struct {
	ID                   string      `json:"id"`
	UserID               string      `json:"userId"`
	PurchaseIDs          []string    `json:"purchaseIds"`
	FullName             string      `json:"fullName"`
	Phone                string      `json:"phone"`
	Address              string      `json:"address"`
	Note                 string      `json:"note,omitempty"`
	TotalCents           int64       `json:"totalCents"`
	ShippingFeeCents     int64       `json:"shippingFeeCents"`
	PaymentMethod        string      `json:"paymentMethod"`
	Status               OrderStatus `json:"status"`
	RecurlyTransactionID string      `json:"recurlyTransactionId,omitempty"`
	RecurlyAccountID     string      `json:"recurlyAccountId,omitempty"`
	GatewayResponse      string      `json:"-"`
	PaymentError         string      `json:"paymentError,omitempty"`
	PaidAt               *time.Time  `json:"paidAt,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// GrandTotalCents is the amount actually charged: subtotal plus shipping.
func (o Order) GrandTotalCents() int64 {
	return o.TotalCents + o.ShippingFeeCents
}

// PaymentOutcome is what the payment gateway adapter reports back for one
// charge attempt. It is never persisted as-is; the orchestrator folds it
// into Order fields. A declined charge is Success=false with Error set,
// not a Go error.
type PaymentOutcome struct {
	Success       bool
	TransactionID string
	AccountID     string
	RawResponse   string
	Error         string
	ErrorCode     string
}
