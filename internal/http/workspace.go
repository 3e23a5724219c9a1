package http

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/address"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/cart"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/order"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/quote"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/session"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/stock"
)

const (
	DefaultWorkspaceTTL = 30 * time.Minute
	SweepInterval       = time.Minute
)

// ShippingService is the address and quote API of the shipping service.
type ShippingService interface {
	address.Service
	quote.Service
}

// Services are the collaborators every workspace talks to.
type Services struct {
	Cart     cart.Service
	Shipping ShippingService
	Stock    stock.Fetcher
	Orders   order.Service
}

// Workspace is the per-shopper state: one cart, stock cache, address book
// and quote aggregator, bound to one browser session.
type Workspace struct {
	id        string
	Cart      *cart.Store
	Stock     *stock.Cache
	Addresses *address.Book
	Quotes    *quote.Aggregator
	Orders    *order.Submitter

	loaded   atomic.Bool
	lastSeen atomic.Int64
}

func (ws *Workspace) ID() string {
	return ws.id
}

// Account is the signed-in account of the workspace, empty for guests.
func (ws *Workspace) Account() string {
	return ws.Cart.Session().AccountID
}

// CurrentCart loads the session's cart on first use and answers from memory
// afterwards.
func (ws *Workspace) CurrentCart(ctx context.Context) (*domain.Cart, error) {
	if ws.loaded.Load() {
		return ws.Cart.Get(), nil
	}
	c, err := ws.Cart.Load(ctx)
	if err != nil {
		return nil, err
	}
	ws.loaded.Store(true)
	return c, nil
}

// Registry keeps one workspace per session id and drops the ones idle for
// longer than ttl.
type Registry struct {
	services  Services
	sessions  *session.Manager
	publisher order.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	ttl       time.Duration
	now       func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(services Services, sessions *session.Manager, publisher order.Publisher, m *metrics.Metrics, log *slog.Logger, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultWorkspaceTTL
	}
	return &Registry{
		services:   services,
		sessions:   sessions,
		publisher:  publisher,
		metrics:    m,
		log:        logger.OrDefault(log),
		ttl:        ttl,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Acquire returns the workspace of session id, building it from the stored
// session when it is not in memory. An empty id starts a new session.
func (r *Registry) Acquire(ctx context.Context, id string) (*Workspace, error) {
	if ws := r.lookup(id); ws != nil {
		return ws, nil
	}

	sess, err := r.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[sess.ID]; ok {
		ws.lastSeen.Store(r.now().UnixNano())
		return ws, nil
	}
	ws := r.build(sess)
	r.workspaces[sess.ID] = ws
	return ws, nil
}

func (r *Registry) lookup(id string) *Workspace {
	if id == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return nil
	}
	ws.lastSeen.Store(r.now().UnixNano())
	return ws
}

func (r *Registry) build(sess *session.Session) *Workspace {
	log := r.log.With("session_id", sess.ID)
	cartStore := cart.NewStore(r.services.Cart, sess, r.sessions, r.metrics, log)
	ws := &Workspace{
		id:        sess.ID,
		Cart:      cartStore,
		Stock:     stock.NewCache(r.services.Stock, r.metrics, log),
		Addresses: address.NewBook(r.services.Shipping, log),
		Quotes:    quote.NewAggregator(r.services.Shipping, r.metrics, log),
		Orders:    order.NewSubmitter(r.services.Orders, cartStore, r.publisher, r.metrics, log),
	}
	ws.lastSeen.Store(r.now().UnixNano())
	return ws
}

// Sweep drops idle workspaces and returns how many were dropped. Their
// sessions stay in the session store.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, ws := range r.workspaces {
		if ws.lastSeen.Load() < cutoff {
			delete(r.workspaces, id)
			dropped++
		}
	}
	return dropped
}

// InvalidateStock makes every workspace holding one of productIDs refetch
// its stock on next use.
func (r *Registry) InvalidateStock(productIDs []int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ws := range r.workspaces {
		if ws.Stock.Holds(productIDs) {
			ws.Stock.Invalidate()
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("idle workspaces dropped", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
