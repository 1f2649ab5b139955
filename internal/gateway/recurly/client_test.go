package recurly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopmart/internal/domain"
)

func testOrder() *domain.Order {
	return &domain.Order{ID: "o1", TotalCents: 400, ShippingFeeCents: 30000}
}

func testPayer() *domain.User {
	return &domain.User{ID: "u1", Email: "buyer@example.com", Name: "Nguyen Van A"}
}

func TestChargeSuccess(t *testing.T) {
	var gotPath, gotAccept string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"charge_invoice":{"account":{"id":"acct-9"},"transactions":[{"id":"txn-7"}]}}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	outcome, err := c.Charge(context.Background(), testOrder(), testPayer(), "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Success || outcome.TransactionID != "txn-7" || outcome.AccountID != "acct-9" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if gotPath != "/purchases" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAccept != apiVersion {
		t.Fatalf("unexpected accept header %s", gotAccept)
	}

	account := gotBody["account"].(map[string]interface{})
	if account["code"] != "u1" {
		t.Fatalf("expected payer id as account code, got %v", account["code"])
	}
	if account["billing_info"].(map[string]interface{})["token_id"] != "tok-1" {
		t.Fatalf("token not forwarded: %v", account)
	}
	line := gotBody["line_items"].([]interface{})[0].(map[string]interface{})
	if line["unit_amount"].(float64) != 30400 {
		t.Fatalf("expected grand total 30400, got %v", line["unit_amount"])
	}
}

func TestChargeUsesStoredAccountCode(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"charge_invoice":{"account":{"id":"acct-9"},"transactions":[{"id":"txn-7"}]}}`))
	}))
	defer srv.Close()

	payer := testPayer()
	payer.RecurlyAccountID = "acct-9"
	c := New("key", srv.URL, nil)
	if _, err := c.Charge(context.Background(), testOrder(), payer, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	account := gotBody["account"].(map[string]interface{})
	if account["code"] != "acct-9" {
		t.Fatalf("expected stored account code, got %v", account["code"])
	}
	if _, ok := account["billing_info"]; ok {
		t.Fatalf("billing info must be omitted without a token")
	}
}

func TestChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"type":"transaction","message":"Your card was declined"}}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	outcome, err := c.Charge(context.Background(), testOrder(), testPayer(), "tok-1")
	if err != nil {
		t.Fatalf("decline must not be a transport error, got %v", err)
	}
	if outcome.Success {
		t.Fatalf("expected declined outcome")
	}
	if outcome.Error != "Your card was declined" || outcome.ErrorCode != "transaction" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestChargeServerFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	outcome, err := c.Charge(context.Background(), testOrder(), testPayer(), "")
	if err == nil {
		t.Fatalf("expected fault, got outcome %+v", outcome)
	}
}

func TestChargeTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New("key", srv.URL, nil)
	if _, err := c.Charge(context.Background(), testOrder(), testPayer(), ""); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestListBillingInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/code-u1/billing_infos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"b1","updated_at":"2026-01-02T00:00:00Z","payment_method":{"card_type":"Visa","last_four":"4242","exp_month":12,"exp_year":2030}}]}`))
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	infos, err := c.ListBillingInfo(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 1 || infos[0].CardType != "Visa" || infos[0].LastFour != "4242" {
		t.Fatalf("unexpected infos: %+v", infos)
	}
}

func TestListBillingInfoUnknownAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("key", srv.URL, nil)
	infos, err := c.ListBillingInfo(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty list, got %+v", infos)
	}
}
