package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zapkart/zapkart-backend/pkg/config"
)

// Client talks to the hosted payment gateway. Payments are initiated
// server-side; the customer completes them on the gateway's page and
// the confirmation is verified against the signing secret before any
// order is marked paid.
type Client struct {
	baseURL       string
	keyID         string
	signingSecret []byte
	httpClient    *http.Client
}

func New(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		keyID:         cfg.KeyID,
		signingSecret: []byte(cfg.SigningSecret),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
	}
}

type InitiateRequest struct {
	OrderRef    string `json:"order_ref"`
	AmountPaise int64  `json:"amount_paise"`
	Currency    string `json:"currency"`
	CustomerRef string `json:"customer_ref"`
}

type InitiateResponse struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

// Initiate creates a hosted payment and returns the redirect URL the
// customer completes the payment on.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if req.Currency == "" {
		req.Currency = "INR"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode initiate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build initiate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Key-Id", c.keyID)
	httpReq.Header.Set("X-Signature", c.sign(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("initiate payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, snippet)
	}

	var out InitiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode initiate response: %w", err)
	}
	return &out, nil
}

// Confirmation is the signed payload the gateway posts back, or that a
// client relays, when a payment completes.
type Confirmation struct {
	PaymentID   string `json:"payment_id"`
	OrderRef    string `json:"order_ref"`
	AmountPaise int64  `json:"amount_paise"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
}

// VerifyConfirmation checks the HMAC signature over the raw payload.
// A relayed confirmation that does not verify is worthless; callers
// must not mark anything paid without this passing.
func (c *Client) VerifyConfirmation(raw []byte, signature string) (*Confirmation, error) {
	expected := c.sign(raw)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("confirmation signature mismatch")
	}

	var conf Confirmation
	if err := json.Unmarshal(raw, &conf); err != nil {
		return nil, fmt.Errorf("decode confirmation: %w", err)
	}
	if conf.PaymentID == "" || conf.OrderRef == "" {
		return nil, fmt.Errorf("confirmation missing identifiers")
	}
	if age := time.Since(time.Unix(conf.Timestamp, 0)); age > 15*time.Minute || age < -time.Minute {
		return nil, fmt.Errorf("confirmation timestamp outside tolerance")
	}
	return &conf, nil
}

func (c *Client) sign(payload []byte) string {
	mac := hmac.New(sha256.New, c.signingSecret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign exposes the signature computation for tests and for callers that
// need to relay signed payloads.
func (c *Client) Sign(payload []byte) string {
	return c.sign(payload)
}
