package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
)

var (
	ErrOutOfStock    = errors.New("product is out of stock")
	ErrExceedsStock  = errors.New("requested quantity exceeds available stock")
	ErrInvalidAmount = errors.New("quantity must be at least 1")
)

// Fetcher is the bulk endpoint of the stock service.
type Fetcher interface {
	BulkStock(ctx context.Context, productIDs []int64) ([]domain.StockSnapshot, error)
}

// Cache holds the last known stock per product. A fetch for the same set of
// ids as the previous successful one is answered from memory.
type Cache struct {
	fetcher Fetcher
	metrics *metrics.Metrics
	log     *slog.Logger
	sfg     singleflight.Group

	mu        sync.RWMutex
	snapshots map[int64]domain.StockSnapshot
	lastKey   string
	err       error
}

func NewCache(fetcher Fetcher, m *metrics.Metrics, log *slog.Logger) *Cache {
	return &Cache{
		fetcher:   fetcher,
		metrics:   m,
		log:       logger.OrDefault(log),
		snapshots: make(map[int64]domain.StockSnapshot),
	}
}

// Key is the order-insensitive fetch key for a set of product ids.
func Key(productIDs []int64) (string, []int64) {
	ids := slices.Clone(productIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ","), ids
}

// Fetch refreshes the snapshots for productIDs. On failure the previous
// snapshots are kept and the error is returned alongside them.
func (c *Cache) Fetch(ctx context.Context, productIDs []int64) (map[int64]domain.StockSnapshot, error) {
	key, ids := Key(productIDs)
	if key == "" {
		return c.Snapshots(), nil
	}

	c.mu.RLock()
	cached := key == c.lastKey
	c.mu.RUnlock()
	if cached {
		return c.Snapshots(), nil
	}

	_, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		done := key == c.lastKey
		c.mu.RUnlock()
		if done {
			return nil, nil
		}

		snapshots, err := c.fetcher.BulkStock(ctx, ids)
		c.metrics.StockFetch(err)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.err = err
			return nil, err
		}
		// ids the service did not answer for are unknown from now on
		for _, id := range ids {
			delete(c.snapshots, id)
		}
		for _, s := range snapshots {
			c.snapshots[s.ProductID] = s
		}
		c.lastKey = key
		c.err = nil
		return nil, nil
	})
	if err != nil {
		c.log.WarnContext(ctx, "stock fetch failed, keeping previous snapshots", "key", key, "error", err)
		return c.Snapshots(), fmt.Errorf("fetch stock: %w", err)
	}
	return c.Snapshots(), nil
}

// Snapshots returns a copy of the cached state.
func (c *Cache) Snapshots() map[int64]domain.StockSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.snapshots)
}

// Err is the error of the last fetch, nil after a success.
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Invalidate forgets the last key so the next fetch goes to the network.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.lastKey = ""
	c.mu.Unlock()
}

// Holds reports whether the cache has a snapshot for any of productIDs.
func (c *Cache) Holds(productIDs []int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range productIDs {
		if _, ok := c.snapshots[id]; ok {
			return true
		}
	}
	return false
}

// StatusFor fails closed: an unknown product has no stock.
func (c *Cache) StatusFor(productID int64, requested int) domain.StockStatus {
	c.mu.RLock()
	snap, ok := c.snapshots[productID]
	c.mu.RUnlock()
	if !ok {
		return domain.StockStatus{ExceedsQuantity: true}
	}

	available := max(snap.AvailableStock, 0)
	return domain.StockStatus{
		Available:       available,
		HasStock:        available > 0,
		ExceedsQuantity: requested > available,
		MaxQuantity:     available,
	}
}

func (c *Cache) Validate(items []domain.CartItem) domain.StockValidation {
	result := domain.StockValidation{
		IsValid:        true,
		PerItemDetails: make([]domain.StockItemDetail, 0, len(items)),
	}
	for _, item := range items {
		status := c.StatusFor(item.ProductID, item.Quantity)
		result.PerItemDetails = append(result.PerItemDetails, domain.StockItemDetail{
			ProductID:   item.ProductID,
			Requested:   item.Quantity,
			StockStatus: status,
		})
		if !status.HasStock {
			result.HasOutOfStock = true
		} else if status.ExceedsQuantity {
			result.HasExceeded = true
		}
	}
	result.IsValid = !result.HasOutOfStock && !result.HasExceeded
	return result
}

// CanSetQuantity gates a quantity change locally so an impossible value
// never reaches the cart service.
func (c *Cache) CanSetQuantity(productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidAmount
	}
	status := c.StatusFor(productID, quantity)
	if !status.HasStock {
		return ErrOutOfStock
	}
	if status.ExceedsQuantity {
		return fmt.Errorf("%w: at most %d available", ErrExceedsStock, status.MaxQuantity)
	}
	return nil
}
