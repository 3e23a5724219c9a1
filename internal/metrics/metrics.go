package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics is nil-safe: components built without metrics call the same
// methods and nothing is recorded.
type Metrics struct {
	requests        *prometheus.CounterVec
	latencyMS       *prometheus.HistogramVec
	cartRollbacks   *prometheus.CounterVec
	quoteFetches    *prometheus.CounterVec
	stockFetches    *prometheus.CounterVec
	ordersSubmitted *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		latencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		cartRollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_rollbacks_total",
			Help:      "Optimistic cart mutations rolled back after a failed request.",
		}, []string{"operation"}),
		quoteFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_fetches_total",
			Help:      "Shipping quote fetches issued to the shipping service.",
		}, []string{"result"}),
		stockFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_fetches_total",
			Help:      "Bulk stock fetches issued to the stock service.",
		}, []string{"result"}),
		ordersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Order creation attempts by delivery type.",
		}, []string{"delivery_type", "result"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.latencyMS, m.cartRollbacks, m.quoteFetches, m.stockFetches, m.ordersSubmitted)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) CartRollback(operation string) {
	if m == nil {
		return
	}
	m.cartRollbacks.WithLabelValues(operation).Inc()
}

func (m *Metrics) QuoteFetch(err error) {
	if m == nil {
		return
	}
	m.quoteFetches.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) StockFetch(err error) {
	if m == nil {
		return
	}
	m.stockFetches.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) OrderSubmitted(deliveryType string, err error) {
	if m == nil {
		return
	}
	m.ordersSubmitted.WithLabelValues(deliveryType, result(err)).Inc()
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
