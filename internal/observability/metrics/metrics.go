package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	paymentsApplied *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	checkoutIntents *prometheus.CounterVec
}

// New registers the domain instruments on the given registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		paymentsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospitald_payments_applied_total",
			Help: "Payments applied to bills, by source and outcome.",
		}, []string{"source", "outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospitald_gateway_webhook_events_total",
			Help: "Gateway webhook events received, by event type.",
		}, []string{"event_type"}),
		checkoutIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospitald_checkout_intents_total",
			Help: "Checkout intent requests, by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.paymentsApplied, m.webhookEvents, m.checkoutIntents} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// RecordPaymentApplied increments payment application counts.
func (m *Metrics) RecordPaymentApplied(source, outcome string) {
	if m == nil {
		return
	}
	m.paymentsApplied.WithLabelValues(strings.TrimSpace(source), strings.TrimSpace(outcome)).Inc()
}

// RecordWebhookEvent increments webhook event counts.
func (m *Metrics) RecordWebhookEvent(eventType string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(strings.TrimSpace(eventType)).Inc()
}

// RecordCheckoutIntent increments checkout intent counts.
func (m *Metrics) RecordCheckoutIntent(outcome string) {
	if m == nil {
		return
	}
	m.checkoutIntents.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP instruments on the given registerer.
func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	h := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospitald_http_requests_total",
			Help: "Inbound HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hospitald_http_request_duration_seconds",
			Help:    "Inbound HTTP request duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{h.requests, h.duration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return h, nil
}

// GinMiddleware records request counts and latency per route.
func (h *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		h.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		h.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
