package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopmart/internal/domain"
	"shopmart/internal/gateway/recurly"
	ordersvc "shopmart/internal/service/order"
	usersvc "shopmart/internal/service/user"
	"github.com/gin-gonic/gin"
)

type stubOrderService struct {
	createResult *ordersvc.CreateResult
	createErr    error
	payResult    *ordersvc.PayResult
	payErr       error
	listOrders   []domain.Order
	listErr      error
	detail       *ordersvc.Detail
	getErr       error

	lastUserID  string
	lastOrderID string
	lastTokenID string
	lastCreate  ordersvc.CreateInput
	lastList    ordersvc.ListInput
}

func (s *stubOrderService) Create(_ context.Context, userID string, in ordersvc.CreateInput) (*ordersvc.CreateResult, error) {
	s.lastUserID = userID
	s.lastCreate = in
	return s.createResult, s.createErr
}

func (s *stubOrderService) Pay(_ context.Context, userID, orderID, tokenID string) (*ordersvc.PayResult, error) {
	s.lastUserID = userID
	s.lastOrderID = orderID
	s.lastTokenID = tokenID
	return s.payResult, s.payErr
}

func (s *stubOrderService) List(_ context.Context, userID string, in ordersvc.ListInput) ([]domain.Order, *ordersvc.Pagination, error) {
	s.lastUserID = userID
	s.lastList = in
	if s.listErr != nil {
		return nil, nil, s.listErr
	}
	return s.listOrders, &ordersvc.Pagination{Total: len(s.listOrders), Page: in.Page, Limit: in.Limit, Pages: 1}, nil
}

func (s *stubOrderService) Get(_ context.Context, userID, orderID string) (*ordersvc.Detail, error) {
	s.lastUserID = userID
	s.lastOrderID = orderID
	return s.detail, s.getErr
}

type stubUserService struct {
	user      *domain.User
	lookupErr error
	loginErr  error
}

func (s *stubUserService) Register(_ context.Context, in usersvc.RegisterInput) (*domain.User, error) {
	if s.user == nil {
		return nil, errors.New("no stub user")
	}
	return s.user, nil
}

func (s *stubUserService) Login(_ context.Context, _, _ string) (*domain.User, string, string, error) {
	if s.loginErr != nil {
		return nil, "", "", s.loginErr
	}
	return s.user, "access-token", "refresh-token", nil
}

func (s *stubUserService) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.user, nil
}

func (s *stubUserService) AccessTTLSeconds() int { return 604800 }

type stubBilling struct {
	infos []recurly.BillingInfo
	err   error

	lastAccount string
}

func (s *stubBilling) ListBillingInfo(_ context.Context, accountCode string) ([]recurly.BillingInfo, error) {
	s.lastAccount = accountCode
	return s.infos, s.err
}

func newTestRouter(orders *stubOrderService, users *stubUserService, billing *stubBilling) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard, "", 0)
	return buildRouter(logger, nil, Deps{Orders: orders, Users: users, Billing: billing})
}

func doJSON(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func authedUser() *domain.User {
	return &domain.User{ID: "u1", Email: "user@example.com", RecurlyAccountID: "acct-1"}
}

func TestCreateOrder_Success(t *testing.T) {
	orders := &stubOrderService{createResult: &ordersvc.CreateResult{OrderID: "o1", GrandTotalCents: 30400}}
	router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodPost, "/api/orders", ordersvc.CreateInput{
		PurchaseIDs: []string{"l1"},
		FullName:    "T User",
		Phone:       "0123",
		Address:     "somewhere",
	}, "tok")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastUserID != "u1" {
		t.Fatalf("expected explicit user id, got %q", orders.lastUserID)
	}
	if len(orders.lastCreate.PurchaseIDs) != 1 {
		t.Fatalf("input not forwarded: %+v", orders.lastCreate)
	}
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	orders := &stubOrderService{}
	router := newTestRouter(orders, &stubUserService{lookupErr: usersvc.ErrInvalidToken}, &stubBilling{})

	rec := doJSON(router, http.MethodPost, "/api/orders", ordersvc.CreateInput{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodPost, "/api/orders", ordersvc.CreateInput{}, "bad-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
	if orders.lastUserID != "" {
		t.Fatalf("handler must not run without auth")
	}
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		tag  string
	}{
		{"missing fields", domain.ErrMissingFields, http.StatusBadRequest, "MISSING_FIELDS"},
		{"payer not found", domain.ErrPayerNotFound, http.StatusNotFound, "PAYER_NOT_FOUND"},
		{"empty cart", domain.ErrEmptyCart, http.StatusNotFound, "EMPTY_CART"},
		{"insufficient stock", &domain.InsufficientStockError{ProductName: "Product A", Available: 1}, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &stubOrderService{createErr: tc.err}
			router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

			rec := doJSON(router, http.MethodPost, "/api/orders", ordersvc.CreateInput{PurchaseIDs: []string{"l1"}}, "tok")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d body=%s", tc.code, rec.Code, rec.Body.String())
			}
			var body struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tc.tag {
				t.Fatalf("expected code %q, got %q", tc.tag, body.Code)
			}
		})
	}
}

func TestPayOrder_Success(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := &stubOrderService{payResult: &ordersvc.PayResult{
		OrderID:       "o1",
		Status:        domain.OrderStatusPaid,
		TransactionID: "txn-1",
		PaidAt:        paidAt,
	}}
	router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodPost, "/api/orders/o1/pay", payRequest{TokenID: "card-token"}, "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastOrderID != "o1" || orders.lastTokenID != "card-token" {
		t.Fatalf("params not forwarded: %q %q", orders.lastOrderID, orders.lastTokenID)
	}
}

func TestPayOrder_NoBodyIsAllowed(t *testing.T) {
	orders := &stubOrderService{payResult: &ordersvc.PayResult{OrderID: "o1", Status: domain.OrderStatusPaid}}
	router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodPost, "/api/orders/o1/pay", nil, "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without body, got %d", rec.Code)
	}
	if orders.lastTokenID != "" {
		t.Fatalf("expected empty token id, got %q", orders.lastTokenID)
	}
}

func TestPayOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		tag  string
	}{
		{"invalid id", domain.ErrInvalidOrderID, http.StatusBadRequest, "INVALID_ORDER_ID"},
		{"not payable", domain.ErrOrderNotPayable, http.StatusNotFound, "ORDER_NOT_PAYABLE"},
		{"declined", &domain.PaymentDeclinedError{Reason: "card declined"}, http.StatusBadRequest, "PAYMENT_DECLINED"},
		{"gateway fault", &domain.GatewayFaultError{Err: errors.New("connection reset")}, http.StatusBadGateway, "GATEWAY_FAULT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &stubOrderService{payErr: tc.err}
			router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

			rec := doJSON(router, http.MethodPost, "/api/orders/o1/pay", nil, "tok")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d body=%s", tc.code, rec.Code, rec.Body.String())
			}
			var body struct {
				Code string `json:"code"`
			}
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Code != tc.tag {
				t.Fatalf("expected code %q, got %q", tc.tag, body.Code)
			}
		})
	}
}

func TestListOrders_ForwardsQuery(t *testing.T) {
	orders := &stubOrderService{listOrders: []domain.Order{{ID: "o1"}, {ID: "o2"}}}
	router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodGet, "/api/orders?status=Paid&page=2&limit=5", nil, "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if orders.lastList.Status != "Paid" || orders.lastList.Page != 2 || orders.lastList.Limit != 5 {
		t.Fatalf("query not forwarded: %+v", orders.lastList)
	}
}

func TestListOrders_BadQueryFallsBackToDefaults(t *testing.T) {
	orders := &stubOrderService{}
	router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodGet, "/api/orders?page=zero&limit=-3&from=not-a-date", nil, "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if orders.lastList.Page != 1 || orders.lastList.Limit != 10 {
		t.Fatalf("expected defaults, got %+v", orders.lastList)
	}
	if orders.lastList.From != nil {
		t.Fatalf("unparseable from must be ignored")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := &stubOrderService{getErr: domain.ErrNotFound}
	router := newTestRouter(orders, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodGet, "/api/orders/o-missing", nil, "tok")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBillingInfo_UsesStoredAccount(t *testing.T) {
	billing := &stubBilling{infos: []recurly.BillingInfo{{ID: "b1", CardType: "Visa", LastFour: "1111"}}}
	router := newTestRouter(&stubOrderService{}, &stubUserService{user: authedUser()}, billing)

	rec := doJSON(router, http.MethodGet, "/api/user/billing-info", nil, "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if billing.lastAccount != "acct-1" {
		t.Fatalf("expected stored account code, got %q", billing.lastAccount)
	}
}

func TestBillingInfo_NoAccountMeansEmptyList(t *testing.T) {
	billing := &stubBilling{}
	user := &domain.User{ID: "u1", Email: "user@example.com"}
	router := newTestRouter(&stubOrderService{}, &stubUserService{user: user}, billing)

	rec := doJSON(router, http.MethodGet, "/api/user/billing-info", nil, "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if billing.lastAccount != "" {
		t.Fatalf("gateway must not be called without an account")
	}
	var body struct {
		Data []recurly.BillingInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data == nil || len(body.Data) != 0 {
		t.Fatalf("expected empty list, got %v", body.Data)
	}
}

func TestLogin_Success(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, &stubUserService{user: authedUser()}, &stubBilling{})

	rec := doJSON(router, http.MethodPost, "/api/login", loginRequest{Email: "user@example.com", Password: "secret1"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.AccessToken != "access-token" || body.Data.ExpiresIn != 604800 {
		t.Fatalf("unexpected login payload %+v", body.Data)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, &stubUserService{loginErr: usersvc.ErrInvalidCredentials}, &stubBilling{})

	rec := doJSON(router, http.MethodPost, "/api/login", loginRequest{Email: "user@example.com", Password: "wrong"}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubOrderService{}, &stubUserService{}, &stubBilling{})

	rec := doJSON(router, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
