// Package recurly adapts the Recurly v3 REST API to the narrow contract the
// order workflow needs: one-off charges and stored billing info lookups.
//
// A declined charge is reported as an unsuccessful PaymentOutcome, never as a
// Go error; errors are reserved for transport failures and unexpected server
// responses so the caller can tell the two cases apart.
package recurly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"shopmart/internal/domain"
)

const apiVersion = "application/vnd.recurly.v2021-02-25+json"

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

func New(apiKey, baseURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type accountPayload struct {
	Code        string       `json:"code"`
	Email       string       `json:"email"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	BillingInfo *billingInfo `json:"billing_info,omitempty"`
}

type billingInfo struct {
	TokenID string `json:"token_id"`
}

type lineItemPayload struct {
	Currency    string `json:"currency"`
	UnitAmount  int64  `json:"unit_amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Type        string `json:"type"`
	ProductCode string `json:"product_code"`
}

type purchasePayload struct {
	Currency         string            `json:"currency"`
	Account          accountPayload    `json:"account"`
	LineItems        []lineItemPayload `json:"line_items"`
	CollectionMethod string            `json:"collection_method"`
}

type purchaseResponse struct {
	ChargeInvoice struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
		Transactions []struct {
			ID string `json:"id"`
		} `json:"transactions"`
	} `json:"charge_invoice"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge runs a one-off purchase for the order's grand total. The account
// code is the payer's stored gateway account id when known, otherwise the
// payer's own id; tokenID attaches fresh card details when the frontend
// collected them.
func (c *Client) Charge(ctx context.Context, order *domain.Order, payer *domain.User, tokenID string) (*domain.PaymentOutcome, error) {
	first, last := splitName(payer.Name)
	account := accountPayload{
		Code:      payer.RecurlyAccountID,
		Email:     payer.Email,
		FirstName: first,
		LastName:  last,
	}
	if account.Code == "" {
		account.Code = payer.ID
	}
	if tokenID != "" {
		account.BillingInfo = &billingInfo{TokenID: tokenID}
	}

	payload := purchasePayload{
		Currency: "VND",
		Account:  account,
		LineItems: []lineItemPayload{{
			Currency:    "VND",
			UnitAmount:  order.GrandTotalCents(),
			Description: fmt.Sprintf("Order #%s", order.ID),
			Quantity:    1,
			Type:        "charge",
			ProductCode: "order-" + order.ID,
		}},
		CollectionMethod: "automatic",
	}

	status, body, err := c.do(ctx, http.MethodPost, "/purchases", payload)
	if err != nil {
		return nil, err
	}

	switch {
	case status >= 200 && status < 300:
		var resp purchaseResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode purchase response: %w", err)
		}
		outcome := &domain.PaymentOutcome{
			Success:     true,
			AccountID:   resp.ChargeInvoice.Account.ID,
			RawResponse: string(body),
		}
		if len(resp.ChargeInvoice.Transactions) > 0 {
			outcome.TransactionID = resp.ChargeInvoice.Transactions[0].ID
		}
		c.logger.Printf("recurly: charge ok order_id=%s transaction_id=%s", order.ID, outcome.TransactionID)
		return outcome, nil

	case status >= 400 && status < 500:
		var resp errorResponse
		_ = json.Unmarshal(body, &resp)
		reason := resp.Error.Message
		if reason == "" {
			reason = fmt.Sprintf("gateway rejected the charge (status %d)", status)
		}
		c.logger.Printf("recurly: charge declined order_id=%s type=%s", order.ID, resp.Error.Type)
		return &domain.PaymentOutcome{
			Success:     false,
			Error:       reason,
			ErrorCode:   resp.Error.Type,
			RawResponse: string(body),
		}, nil

	default:
		return nil, fmt.Errorf("recurly: unexpected status %d", status)
	}
}

// BillingInfo is a stored card summary safe to show to the frontend.
type BillingInfo struct {
	ID        string `json:"id"`
	CardType  string `json:"card_type"`
	LastFour  string `json:"last_four"`
	ExpMonth  int    `json:"exp_month"`
	ExpYear   int    `json:"exp_year"`
	UpdatedAt string `json:"updated_at"`
}

type billingInfoListResponse struct {
	Data []struct {
		ID            string `json:"id"`
		UpdatedAt     string `json:"updated_at"`
		PaymentMethod struct {
			CardType string `json:"card_type"`
			LastFour string `json:"last_four"`
			ExpMonth int    `json:"exp_month"`
			ExpYear  int    `json:"exp_year"`
		} `json:"payment_method"`
	} `json:"data"`
}

// ListBillingInfo returns the stored payment methods for an account. An
// unknown account is an empty list, not an error.
func (c *Client) ListBillingInfo(ctx context.Context, accountCode string) ([]BillingInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/accounts/code-"+accountCode+"/billing_infos", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []BillingInfo{}, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("recurly: unexpected status %d", status)
	}

	var resp billingInfoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode billing info response: %w", err)
	}
	out := make([]BillingInfo, 0, len(resp.Data))
	for _, b := range resp.Data {
		out = append(out, BillingInfo{
			ID:        b.ID,
			CardType:  b.PaymentMethod.CardType,
			LastFour:  b.PaymentMethod.LastFour,
			ExpMonth:  b.PaymentMethod.ExpMonth,
			ExpYear:   b.PaymentMethod.ExpYear,
			UpdatedAt: b.UpdatedAt,
		})
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Customer", " "
	}
	if len(parts) == 1 {
		return parts[0], " "
	}
	return parts[0], strings.Join(parts[1:], " ")
}
