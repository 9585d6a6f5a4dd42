// Package gateway wraps the Razorpay Orders API. The HTTP call carries a hard
// client timeout so a hung gateway can never hold a store transaction open;
// callers create the gateway order before opening any local transaction.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const ordersURL = "https://api.razorpay.com/v1/orders"

// Gateway creates payment orders with an external provider.
type Gateway interface {
	// CreateOrder registers an order for the given amount (minor units) and
	// returns the provider's order id.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (string, error)
}

// RazorpayGateway talks to the live Razorpay API with basic auth.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayGateway(keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: timeout},
	}
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return "", fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ordersURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("razorpay order create: status %d: %s", resp.StatusCode, payload)
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if order.ID == "" {
		return "", fmt.Errorf("razorpay order create: empty order id")
	}
	return order.ID, nil
}
