package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service's Prometheus collectors.
type Registry struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	OrdersPlaced     prometheus.Counter
	CheckoutFailures *prometheus.CounterVec

	DeliveryTransitions *prometheus.CounterVec

	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter
	OutboxLag       prometheus.Gauge
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Registry{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapkart_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zapkart_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zapkart_orders_placed_total",
			Help: "Orders successfully placed.",
		}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapkart_checkout_failures_total",
			Help: "Checkout failures by reason.",
		}, []string{"reason"}),
		DeliveryTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapkart_delivery_transitions_total",
			Help: "Delivery request transitions by target status.",
		}, []string{"to"}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zapkart_outbox_published_total",
			Help: "Outbox events published to Pub/Sub.",
		}),
		OutboxFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zapkart_outbox_publish_failures_total",
			Help: "Outbox publish attempts that failed.",
		}),
		OutboxLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zapkart_outbox_pending_events",
			Help: "Outbox events awaiting publication.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequests, m.HTTPDuration,
		m.OrdersPlaced, m.CheckoutFailures,
		m.DeliveryTransitions,
		m.OutboxPublished, m.OutboxFailures, m.OutboxLag,
	)
	return m
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Registry) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
