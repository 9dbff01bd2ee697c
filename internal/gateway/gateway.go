// Package gateway is the HTTP client for the external payment gateway. The
// escrow flow consumes three capabilities: open a funds-hold order, verify a
// payment signature, and execute a payout to a fund account.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/taskbridge/taskbridge-gobackend/internal/config"
)

type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	currency  string
	http      *http.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		currency:  cfg.Currency,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type payoutRequest struct {
	FundAccountID string `json:"fund_account_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Mode          string `json:"mode"`
	Purpose       string `json:"purpose"`
	ReferenceID   string `json:"reference_id"`
}

type payoutResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// minorUnits converts a decimal amount to the gateway's integer minor units.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder opens a funds-hold order and returns the gateway order id.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (string, error) {
	reqBody := orderRequest{
		Amount:   minorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	var result orderResponse
	if err := c.post(ctx, "/v1/orders", reqBody, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("gateway returned no order id")
	}
	return result.ID, nil
}

// VerifySignature checks the keyed hash the gateway computes over
// "order_id|payment_id" when a payment succeeds.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CreatePayout executes a payout to a fund account and returns the payout id.
func (c *Client) CreatePayout(ctx context.Context, fundAccountID string, amount float64, currency, reference string) (string, error) {
	reqBody := payoutRequest{
		FundAccountID: fundAccountID,
		Amount:        minorUnits(amount),
		Currency:      currency,
		Mode:          "IMPS",
		Purpose:       "payout",
		ReferenceID:   reference,
	}

	var result payoutResponse
	if err := c.post(ctx, "/v1/payouts", reqBody, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("gateway returned no payout id")
	}
	return result.ID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.New("gateway error: " + string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
