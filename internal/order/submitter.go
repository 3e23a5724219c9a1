package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/checkout"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
)

var (
	ErrMissingContact  = errors.New("order needs contact information")
	ErrMissingDelivery = errors.New("order needs delivery information")
	ErrEmptyOrder      = errors.New("order needs at least one item")
)

// Service is the order creation endpoint.
type Service interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload, idempotencyKey string) (*domain.Order, error)
}

// CartClearer empties the shopper's cart once the order exists.
type CartClearer interface {
	Clear(ctx context.Context) error
}

type Submitter struct {
	orders    Service
	cart      CartClearer
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	newKey    func() string
}

func NewSubmitter(orders Service, cart CartClearer, publisher Publisher, m *metrics.Metrics, log *slog.Logger) *Submitter {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Submitter{
		orders:    orders,
		cart:      cart,
		publisher: publisher,
		metrics:   m,
		log:       logger.OrDefault(log).With("component", "order"),
		newKey:    uuid.NewString,
	}
}

// Confirm submits the order once. A failure returns the error and changes
// nothing; the caller may retry with the same context. After a success the
// cart is cleared and an OrderPlaced event published, and neither failing
// undoes the order.
func (s *Submitter) Confirm(ctx context.Context, c checkout.Context) (*domain.Order, error) {
	payload, err := BuildPayload(c)
	if err != nil {
		return nil, err
	}

	key := s.newKey()
	placed, err := s.orders.CreateOrder(ctx, payload, key)
	s.metrics.OrderSubmitted(string(payload.DeliveryType), err)
	if err != nil {
		s.log.ErrorContext(ctx, "order submission failed", "cart_id", payload.CartID, "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.InfoContext(ctx, "order placed", "order_id", placed.ID, "order_number", placed.OrderNumber, "delivery_type", payload.DeliveryType)

	if err := s.cart.Clear(ctx); err != nil {
		s.log.WarnContext(ctx, "failed to clear cart after order", "cart_id", payload.CartID, "order_id", placed.ID, "error", err)
	}

	event := OrderPlaced{
		OrderID:      placed.ID,
		OrderNumber:  placed.OrderNumber,
		CartID:       payload.CartID,
		AccountID:    payload.AccountID,
		DeliveryType: payload.DeliveryType,
		Total:        payload.Costs.Total,
		ItemCount:    len(payload.Items),
		PlacedAt:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish order placed event", "order_id", placed.ID, "error", err)
	}
	return placed, nil
}

// BuildPayload maps a complete checkout context to the order payload. Home
// delivery and pickup produce different delivery blocks.
func BuildPayload(c checkout.Context) (domain.OrderPayload, error) {
	if c.Contact == nil || !c.Contact.Complete() {
		return domain.OrderPayload{}, ErrMissingContact
	}
	if c.Cart == nil || c.Cart.IsEmpty() {
		return domain.OrderPayload{}, ErrEmptyOrder
	}
	if !c.DeliveryMethod.Valid() {
		return domain.OrderPayload{}, fmt.Errorf("%w: no delivery method", ErrMissingDelivery)
	}

	payload := domain.OrderPayload{
		CartID:       c.Cart.ID,
		AccountID:    c.AccountID,
		Contact:      *c.Contact,
		DeliveryType: c.DeliveryMethod.DeliveryType(),
		Items:        lines(c.Cart),
		Costs:        c.Costs,
	}

	var origin domain.Warehouse
	var distance float64
	if c.Selection != nil {
		origin = c.Selection.OriginWarehouse
		distance = c.Selection.DistanceKm
	}

	if c.DeliveryMethod.IsPickup() {
		store := c.Store()
		if store == nil {
			return domain.OrderPayload{}, fmt.Errorf("%w: no pickup store", ErrMissingDelivery)
		}
		pickup := &domain.StorePickup{
			StoreID:         store.ID,
			StoreName:       store.Name,
			StoreAddress:    store.Address,
			OriginWarehouse: origin,
		}
		if info := c.Selection.Pickup; info != nil {
			pickup.EtaDays = info.EtaDays
			pickup.EtaDate = info.EtaDate
		}
		payload.Pickup = pickup
		return payload, nil
	}

	carrier := c.Carrier()
	if c.Address == nil || carrier == nil {
		return domain.OrderPayload{}, fmt.Errorf("%w: address and carrier are required", ErrMissingDelivery)
	}
	payload.Shipping = &domain.HomeDelivery{
		Method:          c.DeliveryMethod,
		Address:         *c.Address,
		QuoteID:         carrier.QuoteID,
		CarrierCode:     carrier.CarrierCode,
		CarrierName:     carrier.CarrierName,
		Cost:            c.Costs.Shipping,
		EtaDate:         carrier.EtaDate,
		OriginWarehouse: origin,
		DistanceKm:      distance,
	}
	return payload, nil
}

func lines(cart *domain.Cart) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		out = append(out, domain.OrderLine{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.LineTotal(),
		})
	}
	return out
}
