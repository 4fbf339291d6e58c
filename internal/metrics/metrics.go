package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

// Metrics holds the collectors exported on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	CartOps        *prometheus.CounterVec
	CartCache      *prometheus.CounterVec
	CheckoutSteps  *prometheus.CounterVec
	CheckoutGuards *prometheus.CounterVec
	OrdersCreated  prometheus.Counter
	OrderStatus    *prometheus.CounterVec
	OutboxEvents   *prometheus.CounterVec
	CatalogRefresh *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		CartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart mutations by operation and outcome.",
		}, []string{"op", "result"}),
		CartCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "cache_lookups_total",
			Help:      "Cart cache lookups by outcome.",
		}, []string{"result"}),
		CheckoutSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "transitions_total",
			Help:      "Checkout step transitions by target step.",
		}, []string{"step"}),
		CheckoutGuards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "guard_failures_total",
			Help:      "Checkout operations refused, by error code.",
		}, []string{"code"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders placed.",
		}),
		OrderStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status changes by target status.",
		}, []string{"status"}),
		OutboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox events handled by the relay.",
		}, []string{"result"}),
		CatalogRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "token_refreshes_total",
			Help:      "Catalog token refreshes by outcome.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.LatencyMS,
		m.CartOps,
		m.CartCache,
		m.CheckoutSteps,
		m.CheckoutGuards,
		m.OrdersCreated,
		m.OrderStatus,
		m.OutboxEvents,
		m.CatalogRefresh,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CartOp(op string, err error) {
	if m == nil {
		return
	}
	m.CartOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CartCache.WithLabelValues("hit").Inc()
		return
	}
	m.CartCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) CheckoutStep(step string) {
	if m == nil {
		return
	}
	m.CheckoutSteps.WithLabelValues(step).Inc()
}

func (m *Metrics) CheckoutRefused(code string) {
	if m == nil {
		return
	}
	m.CheckoutGuards.WithLabelValues(code).Inc()
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) OrderStatusChanged(status string) {
	if m == nil {
		return
	}
	m.OrderStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) OutboxEvent(err error) {
	if m == nil {
		return
	}
	m.OutboxEvents.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) TokenRefresh(err error) {
	if m == nil {
		return
	}
	m.CatalogRefresh.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
