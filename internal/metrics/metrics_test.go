package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CartRollback("update_quantity")
	m.CartRollback("update_quantity")
	m.QuoteFetch(nil)
	m.QuoteFetch(errors.New("boom"))
	m.OrderSubmitted("RECOJO_EN_TIENDA", nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cartRollbacks.WithLabelValues("update_quantity")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.quoteFetches.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.quoteFetches.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ordersSubmitted.WithLabelValues("RECOJO_EN_TIENDA", "ok")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CartRollback("add_item")
		m.StockFetch(nil)
		m.QuoteFetch(nil)
		m.OrderSubmitted("ENVIO_A_DOMICILIO", nil)
	})
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/cart/items/{product_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart/items/42", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("/cart/items/{product_id}", http.MethodGet, "418")))
}
