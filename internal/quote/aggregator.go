package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/client"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/geo"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
)

var (
	ErrOptionNotFound    = errors.New("shipping option not found in quote")
	ErrNoQuote           = errors.New("no shipping quote available")
	ErrEmptyCart         = errors.New("cannot quote an empty cart")
	ErrNoDestination     = errors.New("destination has neither coordinates nor address")
	ErrPickupUnavailable = errors.New("pickup is not available for this quote")
)

// Service is the quote endpoint of the shipping service.
type Service interface {
	Quote(ctx context.Context, req client.QuoteRequest) (*domain.ShippingQuote, error)
}

// Aggregator caches one shipping quote per destination and cart content.
// It does not know which delivery method the shopper picked: callers read
// either Carriers or Pickup from the same cached quote.
type Aggregator struct {
	service Service
	metrics *metrics.Metrics
	log     *slog.Logger
	sfg     singleflight.Group

	mu     sync.RWMutex
	key    string
	wanted string
	quote  *domain.ShippingQuote
	err    error
}

func NewAggregator(service Service, m *metrics.Metrics, log *slog.Logger) *Aggregator {
	return &Aggregator{
		service: service,
		metrics: m,
		log:     logger.OrDefault(log).With("component", "quote"),
	}
}

// Key identifies a quote: destination plus the per-product quantities of the
// cart, in cart order. Quantities of variants of one product are summed.
func Key(lat, lng *float64, addressText string, cart *domain.Cart) string {
	var b strings.Builder
	if lat != nil && lng != nil {
		b.WriteString(strconv.FormatFloat(*lat, 'f', 6, 64))
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(*lng, 'f', 6, 64))
	} else {
		b.WriteString(strings.ToLower(strings.TrimSpace(addressText)))
	}
	b.WriteByte('|')
	for i, item := range items(cart) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(item.ProductID, 10))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(item.Quantity))
	}
	return b.String()
}

func items(cart *domain.Cart) []client.QuoteItem {
	if cart == nil {
		return nil
	}
	var out []client.QuoteItem
	for _, line := range cart.Items {
		i := slices.IndexFunc(out, func(q client.QuoteItem) bool { return q.ProductID == line.ProductID })
		if i >= 0 {
			out[i].Quantity += line.Quantity
			continue
		}
		out = append(out, client.QuoteItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

// Quote returns the shipping quote for cart and dest. An unchanged key is
// answered from memory; any change triggers exactly one fetch. Failures
// never escape: the result is nil and Err reports why.
func (a *Aggregator) Quote(ctx context.Context, cart *domain.Cart, dest domain.Destination) *domain.ShippingQuote {
	req := client.QuoteRequest{Items: items(cart)}
	switch {
	case dest.Coordinates != nil:
		req.Lat, req.Lng = &dest.Coordinates.Lat, &dest.Coordinates.Lng
	case dest.Address != nil:
		if coords, ok := dest.Address.Coordinates(); ok {
			req.Lat, req.Lng = &coords.Lat, &coords.Lng
		}
		req.AddressText = dest.Address.Text()
	}

	if len(req.Items) == 0 {
		a.fail("", ErrEmptyCart)
		return nil
	}
	if req.Lat == nil && req.AddressText == "" {
		a.fail("", ErrNoDestination)
		return nil
	}

	key := Key(req.Lat, req.Lng, req.AddressText, cart)

	a.mu.Lock()
	if key == a.key && a.quote != nil {
		q := a.quote
		a.wanted = key
		a.mu.Unlock()
		return q
	}
	a.wanted = key
	a.mu.Unlock()

	v, _, _ := a.sfg.Do(key, func() (any, error) {
		a.mu.RLock()
		cached := key == a.key && a.quote != nil
		q := a.quote
		a.mu.RUnlock()
		if cached {
			return q, nil
		}

		quote, err := a.service.Quote(ctx, req)
		a.metrics.QuoteFetch(err)
		if err != nil {
			a.log.WarnContext(ctx, "shipping quote failed", "key", key, "error", err)
			a.fail(key, fmt.Errorf("fetch quote: %w", err))
			return (*domain.ShippingQuote)(nil), nil
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		// A newer destination or cart was requested meanwhile; keep its result.
		if a.wanted != key {
			return quote, nil
		}
		a.key = key
		a.quote = quote
		a.err = nil
		return quote, nil
	})

	q, _ := v.(*domain.ShippingQuote)
	return q
}

// QuoteNearby quotes for the shopper's current position as resolved by
// locator. A location failure is reported like a fetch failure.
func (a *Aggregator) QuoteNearby(ctx context.Context, cart *domain.Cart, locator geo.Locator) *domain.ShippingQuote {
	coords, err := locator.Locate(ctx)
	if err != nil {
		a.fail("", err)
		return nil
	}
	return a.Quote(ctx, cart, domain.Destination{Coordinates: &coords})
}

// fail clears the cached quote so the option lists read empty. A failure
// for a key that is no longer wanted is dropped.
func (a *Aggregator) fail(key string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if key != "" && a.wanted != key {
		return
	}
	if key == "" {
		a.wanted = ""
	}
	a.key = ""
	a.quote = nil
	a.err = err
}

// Invalidate drops the cached quote; the next Quote fetches again.
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	a.key = ""
	a.quote = nil
	a.err = nil
	a.mu.Unlock()
}

func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Current returns the cached quote, nil when there is none.
func (a *Aggregator) Current() *domain.ShippingQuote {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.quote
}

// Carriers lists the home delivery options of the cached quote.
func (a *Aggregator) Carriers() []domain.CarrierOption {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.quote == nil {
		return []domain.CarrierOption{}
	}
	return slices.Clone(a.quote.CarrierOptions)
}

// Pickup returns the pickup part of the cached quote. Without a quote it is
// unavailable with no stores.
func (a *Aggregator) Pickup() domain.PickupOption {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.quote == nil {
		return domain.PickupOption{Stores: []domain.Store{}}
	}
	p := a.quote.PickupOption
	p.Stores = slices.Clone(p.Stores)
	if p.Stores == nil {
		p.Stores = []domain.Store{}
	}
	return p
}

// SelectCarrier builds the home delivery selection for the carrier whose
// quote id or carrier code is id. The quote is not modified.
func (a *Aggregator) SelectCarrier(id string) (domain.ShippingSelection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.quote == nil {
		return domain.ShippingSelection{}, ErrNoQuote
	}
	i := slices.IndexFunc(a.quote.CarrierOptions, func(c domain.CarrierOption) bool {
		return c.QuoteID == id || c.CarrierCode == id
	})
	if i < 0 {
		return domain.ShippingSelection{}, fmt.Errorf("carrier %q: %w", id, ErrOptionNotFound)
	}

	carrier := a.quote.CarrierOptions[i]
	distance := carrier.DistanceKm
	if distance == 0 {
		distance = a.quote.DistanceKm
	}
	return domain.ShippingSelection{
		Carrier:         &carrier,
		OriginWarehouse: a.quote.OriginWarehouse,
		DistanceKm:      distance,
	}, nil
}

// SelectStore builds the pickup selection for storeID.
func (a *Aggregator) SelectStore(storeID string) (domain.ShippingSelection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.quote == nil {
		return domain.ShippingSelection{}, ErrNoQuote
	}
	pickup := a.quote.PickupOption
	i := slices.IndexFunc(pickup.Stores, func(s domain.Store) bool { return s.ID == storeID })
	if i < 0 {
		return domain.ShippingSelection{}, fmt.Errorf("store %q: %w", storeID, ErrOptionNotFound)
	}
	if !pickup.Available {
		return domain.ShippingSelection{}, ErrPickupUnavailable
	}

	store := pickup.Stores[i]
	return domain.ShippingSelection{
		Store:           &store,
		OriginWarehouse: a.quote.OriginWarehouse,
		Pickup: &domain.PickupInfo{
			EtaDays:     pickup.EtaDays,
			EtaDate:     pickup.EtaDate,
			Description: pickup.Description,
		},
	}, nil
}
