package order

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/checkout"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type mockOrders struct {
	err      error
	payloads []domain.OrderPayload
	keys     []string
}

func (m *mockOrders) CreateOrder(_ context.Context, payload domain.OrderPayload, key string) (*domain.Order, error) {
	m.payloads = append(m.payloads, payload)
	m.keys = append(m.keys, key)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Order{ID: "o-1", OrderNumber: "ORD-0001", Status: "CREATED"}, nil
}

type mockCart struct {
	cleared int
	err     error
}

func (m *mockCart) Clear(context.Context) error {
	m.cleared++
	return m.err
}

type mockWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func baseContext() checkout.Context {
	variant := int64(4)
	c := checkout.Context{
		AccountID: "acc-1",
		Cart: &domain.Cart{ID: "cart-1", Items: []domain.CartItem{
			{ProductID: 1, Name: "Polo", Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
			{ProductID: 2, VariantID: &variant, Name: "Gorra", Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
		}},
		Contact: &domain.ContactInfo{ID: "ct-1", FullName: "Ana Quispe", Email: "ana@example.com", Phone: "999"},
	}
	return c
}

func homeContext() checkout.Context {
	c := baseContext()
	c.DeliveryMethod = domain.DeliveryStandard
	c.Address = &domain.Address{ID: "a1", Line1: "Av. Arequipa 100", City: "Lima"}
	c.Selection = &domain.ShippingSelection{
		Carrier:         &domain.CarrierOption{QuoteID: "q1", CarrierCode: "OLVA", CarrierName: "Olva", Cost: decimal.RequireFromString("12.50"), EtaDate: "2026-10-21"},
		OriginWarehouse: domain.Warehouse{ID: "w1"},
		DistanceKm:      8.5,
	}
	c.Costs = checkout.ComputeCosts(c, checkout.DefaultRates())
	return c
}

func pickupContext() checkout.Context {
	c := baseContext()
	c.DeliveryMethod = domain.DeliveryPickup
	c.Selection = &domain.ShippingSelection{
		Store:           &domain.Store{ID: "storeA", Name: "Tienda A", Address: "Jr. Union 1"},
		OriginWarehouse: domain.Warehouse{ID: "w1"},
		Pickup:          &domain.PickupInfo{EtaDays: 2, EtaDate: "2026-10-20"},
	}
	c.Costs = checkout.ComputeCosts(c, checkout.DefaultRates())
	return c
}

func TestBuildPayload_HomeDelivery(t *testing.T) {
	p, err := BuildPayload(homeContext())

	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryTypeHome, p.DeliveryType)
	assert.Nil(t, p.Pickup)
	require.NotNil(t, p.Shipping)
	assert.Equal(t, "OLVA", p.Shipping.CarrierCode)
	assert.Equal(t, "12.5", p.Shipping.Cost.String())
	assert.Equal(t, "a1", p.Shipping.Address.ID)
	assert.Equal(t, 8.5, p.Shipping.DistanceKm)
	assert.Equal(t, "262.5", p.Costs.Total.String())
	require.Len(t, p.Items, 2)
	assert.Equal(t, "200", p.Items[0].Subtotal.String())
	assert.Equal(t, int64(4), *p.Items[1].VariantID)
}

func TestBuildPayload_Pickup(t *testing.T) {
	p, err := BuildPayload(pickupContext())

	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryTypePickup, p.DeliveryType)
	assert.Nil(t, p.Shipping)
	require.NotNil(t, p.Pickup)
	assert.Equal(t, "storeA", p.Pickup.StoreID)
	assert.Equal(t, 2, p.Pickup.EtaDays)
	assert.True(t, p.Costs.Shipping.IsZero())
}

func TestBuildPayload_MissingPieces(t *testing.T) {
	noContact := homeContext()
	noContact.Contact = nil

	blankPhone := homeContext()
	blankPhone.Contact = &domain.ContactInfo{FullName: "Ana", Email: "ana@example.com"}

	noItems := homeContext()
	noItems.Cart = &domain.Cart{ID: "cart-1"}

	noMethod := homeContext()
	noMethod.DeliveryMethod = ""

	noCarrier := homeContext()
	noCarrier.Selection = nil

	noStore := pickupContext()
	noStore.Selection = nil

	tests := []struct {
		name string
		ctx  checkout.Context
		want error
	}{
		{"no contact", noContact, ErrMissingContact},
		{"blank phone", blankPhone, ErrMissingContact},
		{"no items", noItems, ErrEmptyOrder},
		{"no method", noMethod, ErrMissingDelivery},
		{"no carrier", noCarrier, ErrMissingDelivery},
		{"no store", noStore, ErrMissingDelivery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPayload(tt.ctx)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfirm_SuccessClearsCartAndPublishes(t *testing.T) {
	orders := &mockOrders{}
	cart := &mockCart{}
	writer := &mockWriter{}
	s := NewSubmitter(orders, cart, NewKafkaPublisherWithWriter(writer), nil, nil)

	placed, err := s.Confirm(context.Background(), pickupContext())

	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", placed.OrderNumber)
	assert.Equal(t, 1, cart.cleared)
	require.Len(t, orders.keys, 1)
	assert.NotEmpty(t, orders.keys[0])

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, "o-1", string(msg.Key))
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))
	var event OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, domain.DeliveryTypePickup, event.DeliveryType)
	assert.Equal(t, "250", event.Total.String())
	assert.Equal(t, 2, event.ItemCount)
}

func TestConfirm_FailureMutatesNothing(t *testing.T) {
	orders := &mockOrders{err: errors.New("order service 500")}
	cart := &mockCart{}
	writer := &mockWriter{}
	s := NewSubmitter(orders, cart, NewKafkaPublisherWithWriter(writer), nil, nil)

	_, err := s.Confirm(context.Background(), homeContext())

	require.ErrorContains(t, err, "order service 500")
	assert.Zero(t, cart.cleared)
	assert.Empty(t, writer.msgs)
}

func TestConfirm_EachAttemptGetsItsOwnKey(t *testing.T) {
	orders := &mockOrders{err: errors.New("timeout")}
	s := NewSubmitter(orders, &mockCart{}, nil, nil, nil)

	_, _ = s.Confirm(context.Background(), homeContext())
	_, _ = s.Confirm(context.Background(), homeContext())

	require.Len(t, orders.keys, 2)
	assert.NotEqual(t, orders.keys[0], orders.keys[1])
}

func TestConfirm_ClearAndPublishFailuresDoNotFailOrder(t *testing.T) {
	s := NewSubmitter(&mockOrders{}, &mockCart{err: errors.New("cart down")}, NewKafkaPublisherWithWriter(&mockWriter{err: errors.New("broker down")}), nil, nil)

	placed, err := s.Confirm(context.Background(), homeContext())

	require.NoError(t, err)
	assert.Equal(t, "o-1", placed.ID)
}

func TestConfirm_InvalidContextNeverReachesService(t *testing.T) {
	orders := &mockOrders{}
	s := NewSubmitter(orders, &mockCart{}, nil, nil, nil)
	c := homeContext()
	c.Contact = nil

	_, err := s.Confirm(context.Background(), c)

	assert.ErrorIs(t, err, ErrMissingContact)
	assert.Empty(t, orders.payloads)
}
