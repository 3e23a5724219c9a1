package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

func TestCartClient_UpdateItem(t *testing.T) {
	var gotPath, gotQuery, gotMethod, gotRequestID string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotMethod = r.URL.Path, r.URL.RawQuery, r.Method
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","items":[{"productId":1,"variantId":4,"quantity":3,"unitPrice":"100"}]}`))
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, WithHTTPClient(srv.Client()))
	variant := int64(4)
	ctx := WithRequestID(context.Background(), "req-1")

	cart, err := c.UpdateItem(ctx, "c1", 1, &variant, 3)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/carts/c1/items/1", gotPath)
	assert.Equal(t, "variantId=4", gotQuery)
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, float64(3), gotBody["quantity"])
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
}

func TestCartClient_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no cart"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, WithHTTPClient(srv.Client()))
	_, err := c.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.False(t, httpErr.Temporary())
}

func TestBaseClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewStockClient(srv.URL,
		WithHTTPClient(srv.Client()),
		WithBreakerSettings(gobreaker.Settings{
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 2
			},
		}),
	)

	for i := 0; i < 2; i++ {
		_, err := c.BulkStock(context.Background(), []int64{1})
		require.Error(t, err)
	}
	_, err := c.BulkStock(context.Background(), []int64{1})

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBaseClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewContactClient(srv.URL,
		WithHTTPClient(srv.Client()),
		WithBreakerSettings(gobreaker.Settings{
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 1
			},
		}),
	)

	for i := 0; i < 3; i++ {
		_, err := c.FindContact(context.Background(), "acc-1")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestOrderClient_SendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotPayload domain.OrderPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(IdempotencyHeader)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"o-1","orderNumber":"ORD-0001"}`))
	}))
	defer srv.Close()

	c := NewOrderClient(srv.URL, WithHTTPClient(srv.Client()))
	order, err := c.CreateOrder(context.Background(), domain.OrderPayload{
		CartID:       "c1",
		DeliveryType: domain.DeliveryTypePickup,
	}, "key-123")

	require.NoError(t, err)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, domain.DeliveryTypePickup, gotPayload.DeliveryType)
	assert.Equal(t, "ORD-0001", order.OrderNumber)
}

func TestShippingClient_Quote(t *testing.T) {
	var got QuoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quotes", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"originWarehouse":{"id":"w1","name":"Central"},
			"distanceKm":12.5,
			"carrierOptions":[{"quoteId":"q1","carrierCode":"OLVA","cost":"15.00"}],
			"pickupOption":{"available":true,"stores":[{"id":"s1","name":"Miraflores"}]}
		}`))
	}))
	defer srv.Close()

	lat, lng := -12.1, -77.0
	c := NewShippingClient(srv.URL, WithHTTPClient(srv.Client()))
	quote, err := c.Quote(context.Background(), QuoteRequest{
		Lat: &lat, Lng: &lng,
		Items: []QuoteItem{{ProductID: 1, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, []QuoteItem{{ProductID: 1, Quantity: 2}}, got.Items)
	assert.Equal(t, "w1", quote.OriginWarehouse.ID)
	require.Len(t, quote.CarrierOptions, 1)
	assert.Equal(t, "15.00", quote.CarrierOptions[0].Cost.StringFixed(2))
	require.Len(t, quote.PickupOption.Stores, 1)
}

func TestLocationClient_LookupIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "203.0.113.7", r.URL.Query().Get("ip"))
		_, _ = w.Write([]byte(`{"lat":-12.04,"lng":-77.03}`))
	}))
	defer srv.Close()

	c := NewLocationClient(srv.URL, WithHTTPClient(srv.Client()))
	coords, err := c.LookupIP(context.Background(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, -12.04, coords.Lat)
}

func TestBaseClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewCartClient(url, WithTimeout(time.Second))
	_, err := c.Create(context.Background(), nil)

	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}
