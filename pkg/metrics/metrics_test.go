package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestObserveHTTPIncrementsCounter(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/orders", "POST", 201, 42*time.Millisecond)
	m.ObserveHTTP("/api/v1/orders", "POST", 201, 10*time.Millisecond)

	metric := &dto.Metric{}
	counter, err := m.HTTPRequests.GetMetricWithLabelValues("/api/v1/orders", "POST", "201")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 requests recorded, got %v", got)
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := New()
	m.OrdersPlaced.Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "zapkart_orders_placed_total") {
		t.Fatalf("expected orders counter in scrape output")
	}
}
