package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zapkart/zapkart-backend/pkg/config"
)

func testClient(baseURL string) *Client {
	return New(config.GatewayConfig{
		BaseURL:       baseURL,
		KeyID:         "key-1",
		SigningSecret: "shh-secret",
		Timeout:       5 * time.Second,
	})
}

func TestInitiateSendsSignedRequest(t *testing.T) {
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(InitiateResponse{
			PaymentID:   "pay_123",
			RedirectURL: "https://gateway.example.com/pay/123",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	resp, err := c.Initiate(context.Background(), InitiateRequest{
		OrderRef:    "order-1",
		AmountPaise: 45000,
		CustomerRef: "cust-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PaymentID != "pay_123" {
		t.Fatalf("unexpected payment id %s", resp.PaymentID)
	}
	if gotSignature != c.Sign(gotBody) {
		t.Fatalf("request signature does not match body")
	}
}

func TestInitiateSurfacesGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Initiate(context.Background(), InitiateRequest{OrderRef: "x", AmountPaise: 1}); err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
}

func TestVerifyConfirmation(t *testing.T) {
	c := testClient("http://unused")

	conf := Confirmation{
		PaymentID:   "pay_9",
		OrderRef:    "order-9",
		AmountPaise: 45000,
		Status:      "succeeded",
		Timestamp:   time.Now().Unix(),
	}
	raw, _ := json.Marshal(conf)

	verified, err := c.VerifyConfirmation(raw, c.Sign(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verified.PaymentID != "pay_9" {
		t.Fatalf("unexpected payment id %s", verified.PaymentID)
	}

	if _, err := c.VerifyConfirmation(raw, "deadbeef"); err == nil {
		t.Fatalf("tampered signature should fail")
	}

	stale := conf
	stale.Timestamp = time.Now().Add(-time.Hour).Unix()
	rawStale, _ := json.Marshal(stale)
	if _, err := c.VerifyConfirmation(rawStale, c.Sign(rawStale)); err == nil {
		t.Fatalf("stale confirmation should fail")
	}
}
