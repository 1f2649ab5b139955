// Package order implements the order lifecycle: turning cart lines into a
// priced Pending order, charging it through the payment gateway, and
// recording the terminal outcome. Follow-on bookkeeping after a successful
// charge (cart flip, stock decrement, account backfill) is handed to the
// settlement task queue instead of being done inline, so a paid order is
// never blocked on or rolled back by bookkeeping failures.
package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"shopmart/internal/domain"
	"shopmart/internal/events"
	"shopmart/internal/metrics"
	"shopmart/internal/pricing"
	orderrepo "shopmart/internal/repository/order"
	"shopmart/internal/repository/settlement"
	"github.com/google/uuid"
)

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	FindPending(ctx context.Context, orderID, userID string) (*domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, orderID, userID string) (*domain.Order, error)
	List(ctx context.Context, userID string, f orderrepo.ListFilter) ([]domain.Order, int, error)
}

type purchaseRepo interface {
	FindInCart(ctx context.Context, userID string, ids []string) ([]domain.Purchase, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Purchase, error)
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type paymentGateway interface {
	Charge(ctx context.Context, o *domain.Order, payer *domain.User, tokenID string) (*domain.PaymentOutcome, error)
}

type settlementQueue interface {
	Enqueue(ctx context.Context, tasks []settlement.NewTask) error
}

type Service struct {
	orders    orderRepo
	purchases purchaseRepo
	products  productRepo
	users     userRepo
	gateway   paymentGateway
	tasks     settlementQueue
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger

	shippingFeeCents int64
	now              func() time.Time
}

func New(
	orders orderRepo,
	purchases purchaseRepo,
	products productRepo,
	users userRepo,
	gateway paymentGateway,
	tasks settlementQueue,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *log.Logger,
	shippingFeeCents int64,
) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		orders:           orders,
		purchases:        purchases,
		products:         products,
		users:            users,
		gateway:          gateway,
		tasks:            tasks,
		publisher:        publisher,
		metrics:          m,
		logger:           logger,
		shippingFeeCents: shippingFeeCents,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the order draft submitted at checkout.
type CreateInput struct {
	PurchaseIDs []string `json:"purchase_ids"`
	FullName    string   `json:"full_name"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Note        string   `json:"note"`
}

// CreateResult is returned to the client so it can start the payment step.
type CreateResult struct {
	OrderID         string `json:"orderId"`
	GrandTotalCents int64  `json:"grandTotalCents"`
}

// Create validates the draft, prices the selected cart lines against current
// stock and persists a Pending order. Cart lines stay IN_CART: the only
// reservation made here is the price lock the lines already carry; stock is
// checked, not decremented.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*CreateResult, error) {
	if len(in.PurchaseIDs) == 0 ||
		strings.TrimSpace(in.FullName) == "" ||
		strings.TrimSpace(in.Phone) == "" ||
		strings.TrimSpace(in.Address) == "" {
		return nil, domain.ErrMissingFields
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPayerNotFound
		}
		return nil, err
	}

	// Line ids that are foreign or no longer IN_CART are silently dropped;
	// only a fully empty selection is an error.
	lines, err := s.purchases.FindInCart(ctx, userID, in.PurchaseIDs)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	productIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
	}
	catalog, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	subtotal, err := pricing.Quote(lines, catalog)
	if err != nil {
		return nil, err
	}

	lineIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		lineIDs = append(lineIDs, l.ID)
	}
	o, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		UserID:           userID,
		PurchaseIDs:      lineIDs,
		FullName:         strings.TrimSpace(in.FullName),
		Phone:            strings.TrimSpace(in.Phone),
		Address:          strings.TrimSpace(in.Address),
		Note:             strings.TrimSpace(in.Note),
		TotalCents:       subtotal,
		ShippingFeeCents: s.shippingFeeCents,
		PaymentMethod:    "recurly",
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated()
	s.logger.Printf("order service: created order_id=%s user_id=%s grand_total=%d", o.ID, userID, o.GrandTotalCents())
	return &CreateResult{OrderID: o.ID, GrandTotalCents: o.GrandTotalCents()}, nil
}

// PayResult is the success payload of a settled payment.
type PayResult struct {
	OrderID       string             `json:"orderId"`
	Status        domain.OrderStatus `json:"status"`
	TransactionID string             `json:"transactionId"`
	PaidAt        time.Time          `json:"paidAt"`
}

// Pay charges a pending order through the gateway and persists the terminal
// outcome. The PENDING-only load is the double-payment guard: once a
// concurrent Pay persists a terminal state, later calls miss here and never
// reach the gateway.
func (s *Service) Pay(ctx context.Context, userID, orderID, tokenID string) (*PayResult, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrInvalidOrderID
	}

	o, err := s.orders.FindPending(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotPayable
		}
		return nil, err
	}

	payer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPayerNotFound
		}
		return nil, err
	}

	outcome, err := s.gateway.Charge(ctx, o, payer, tokenID)
	if err != nil {
		// Transport fault: make sure the order does not stay stuck in
		// Pending after an attempt that reached the gateway.
		s.failOrder(ctx, o, err.Error())
		s.metrics.PaymentOutcome("fault")
		return nil, &domain.GatewayFaultError{Err: err}
	}

	if !outcome.Success {
		o.Status = domain.OrderStatusPaymentFailed
		o.PaymentError = outcome.Error
		o.GatewayResponse = outcome.RawResponse
		if err := s.orders.Save(ctx, o); err != nil {
			s.logger.Printf("order service: persist decline order_id=%s error=%v", o.ID, err)
			s.metrics.PaymentOutcome("fault")
			return nil, &domain.GatewayFaultError{Err: err}
		}
		s.metrics.PaymentOutcome("declined")
		s.publishTerminal(ctx, o, outcome)
		return nil, &domain.PaymentDeclinedError{Reason: outcome.Error}
	}

	paidAt := s.now()
	o.Status = domain.OrderStatusPaid
	o.PaidAt = &paidAt
	o.RecurlyTransactionID = outcome.TransactionID
	o.RecurlyAccountID = outcome.AccountID
	o.GatewayResponse = outcome.RawResponse
	if err := s.orders.Save(ctx, o); err != nil {
		// The charge went through but the Paid save did not land; park the
		// order as failed so a human reconciles it against the gateway
		// transaction instead of the client retrying a second charge.
		s.failOrder(ctx, o, "charge succeeded but persisting the order failed: "+err.Error())
		s.metrics.PaymentOutcome("fault")
		return nil, &domain.GatewayFaultError{Err: err}
	}

	// Paid is committed; everything below must not change that decision.
	s.enqueueSettlement(ctx, o, payer, outcome)
	s.metrics.PaymentOutcome("paid")
	s.publishTerminal(ctx, o, outcome)

	s.logger.Printf("order service: paid order_id=%s transaction_id=%s", o.ID, outcome.TransactionID)
	return &PayResult{
		OrderID:       o.ID,
		Status:        o.Status,
		TransactionID: o.RecurlyTransactionID,
		PaidAt:        paidAt,
	}, nil
}

func (s *Service) failOrder(ctx context.Context, o *domain.Order, reason string) {
	o.Status = domain.OrderStatusPaymentFailed
	o.PaymentError = reason
	if err := s.orders.Save(ctx, o); err != nil {
		// Known gap: the order's durable state is whatever was last
		// written. Logged for reconciliation, not retried here.
		s.logger.Printf("order service: recovery save failed order_id=%s error=%v", o.ID, err)
	}
}

func (s *Service) enqueueSettlement(ctx context.Context, o *domain.Order, payer *domain.User, outcome *domain.PaymentOutcome) {
	tasks := []settlement.NewTask{{
		OrderID: o.ID,
		Kind:    settlement.KindFlipCart,
		Payload: settlement.FlipCartPayload{PurchaseIDs: o.PurchaseIDs},
	}}

	if outcome.AccountID != "" && payer.RecurlyAccountID != outcome.AccountID {
		tasks = append(tasks, settlement.NewTask{
			OrderID: o.ID,
			Kind:    settlement.KindBackfillAccount,
			Payload: settlement.BackfillAccountPayload{UserID: payer.ID, AccountID: outcome.AccountID},
		})
	}

	lines, err := s.purchases.GetByIDs(ctx, o.PurchaseIDs)
	if err != nil {
		s.logger.Printf("order service: load lines for settlement order_id=%s error=%v", o.ID, err)
	} else {
		for _, l := range lines {
			tasks = append(tasks, settlement.NewTask{
				OrderID: o.ID,
				Kind:    settlement.KindDecrementStock,
				Payload: settlement.DecrementStockPayload{ProductID: l.ProductID, BuyCount: l.BuyCount},
			})
		}
	}

	if err := s.tasks.Enqueue(ctx, tasks); err != nil {
		s.logger.Printf("order service: enqueue settlement order_id=%s error=%v", o.ID, err)
	}
}

func (s *Service) publishTerminal(ctx context.Context, o *domain.Order, outcome *domain.PaymentOutcome) {
	eventType := events.TypeOrderPaid
	if o.Status == domain.OrderStatusPaymentFailed {
		eventType = events.TypeOrderPaymentFailed
	}
	e := events.NewOrderEvent(eventType, o.ID, o.UserID)
	e.GrandTotal = o.GrandTotalCents()
	e.TransactionID = outcome.TransactionID
	e.Error = outcome.Error
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Printf("order service: publish %s order_id=%s error=%v", eventType, o.ID, err)
	}
}

// ListInput narrows List results.
type ListInput struct {
	Status string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// Pagination describes a List result window.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// List returns the caller's orders, newest first.
func (s *Service) List(ctx context.Context, userID string, in ListInput) ([]domain.Order, *Pagination, error) {
	f := orderrepo.ListFilter{From: in.From, To: in.To, Page: in.Page, Limit: in.Limit}
	if in.Status != "" {
		status := domain.OrderStatus(in.Status)
		f.Status = &status
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}

	orders, total, err := s.orders.List(ctx, userID, f)
	if err != nil {
		return nil, nil, err
	}
	pages := total / f.Limit
	if total%f.Limit != 0 {
		pages++
	}
	return orders, &Pagination{Total: total, Page: f.Page, Limit: f.Limit, Pages: pages}, nil
}

// Detail is an order with its lines and a money summary.
type Detail struct {
	Order      domain.Order      `json:"order"`
	Lines      []domain.Purchase `json:"lines"`
	TotalItems int               `json:"totalItems"`
	GrandTotal int64             `json:"grandTotalCents"`
}

// Get returns one of the caller's orders with line details.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Detail, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrInvalidOrderID
	}
	o, err := s.orders.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	lines, err := s.purchases.GetByIDs(ctx, o.PurchaseIDs)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Order:      *o,
		Lines:      lines,
		TotalItems: len(lines),
		GrandTotal: o.GrandTotalCents(),
	}, nil
}
