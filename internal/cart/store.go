package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/client"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/session"
)

var (
	ErrMutationInFlight = errors.New("another cart mutation is in flight")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrItemNotFound     = errors.New("item not found in cart")
)

// Service is the remote cart service.
type Service interface {
	Create(ctx context.Context, ownerID *string) (*domain.Cart, error)
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error)
	UpdateItem(ctx context.Context, cartID string, productID int64, variantID *int64, quantity int) (*domain.Cart, error)
	DeleteItem(ctx context.Context, cartID string, productID int64, variantID *int64) (*domain.Cart, error)
	Bind(ctx context.Context, cartID, ownerID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) (*domain.Cart, error)
	Adopt(ctx context.Context, ownerID, anonymousCartID string) (*domain.Cart, error)
}

// Store is the single owner of the shopper's cart. Mutations are applied
// locally first, then confirmed by the cart service or rolled back.
// Only one mutation may be pending at a time.
type Store struct {
	service Service
	sess    *session.Session
	saver   session.Saver
	metrics *metrics.Metrics
	log     *slog.Logger

	inFlight atomic.Bool

	mu        sync.RWMutex
	cart      *domain.Cart
	err       error
	listeners map[int]func(*domain.Cart)
	nextID    int
}

func NewStore(service Service, sess *session.Session, saver session.Saver, m *metrics.Metrics, log *slog.Logger) *Store {
	return &Store{
		service:   service,
		sess:      sess,
		saver:     saver,
		metrics:   m,
		log:       logger.OrDefault(log).With("component", "cart", "session_id", sess.ID),
		listeners: make(map[int]func(*domain.Cart)),
	}
}

// Get returns a copy of the current cart, nil when the shopper has none.
func (s *Store) Get() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Err returns the error of the last mutation, nil after a success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Session returns a copy of the injected session.
func (s *Store) Session() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.sess
}

// Subscribe registers fn for every published cart state and returns a
// function that removes it.
func (s *Store) Subscribe(fn func(*domain.Cart)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(cart *domain.Cart, err error) {
	s.mu.Lock()
	s.cart = cart.Clone()
	s.err = err
	fns := make([]func(*domain.Cart), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(cart.Clone())
	}
}

func (s *Store) acquire() error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrMutationInFlight
	}
	return nil
}

func (s *Store) release() {
	s.inFlight.Store(false)
}

func (s *Store) setCartID(ctx context.Context, id string) {
	s.mu.Lock()
	s.sess.CartID = id
	snapshot := *s.sess
	s.mu.Unlock()

	if s.saver == nil {
		return
	}
	if err := s.saver.Save(ctx, &snapshot); err != nil {
		s.log.WarnContext(ctx, "failed to persist session", "error", err)
	}
}

// mutate runs the optimistic protocol: publish next, call remote, then
// publish the server's cart or roll back to the snapshot.
func (s *Store) mutate(ctx context.Context, op string, snapshot, next *domain.Cart, remote func(context.Context) (*domain.Cart, error)) error {
	s.publish(next, nil)

	confirmed, err := remote(ctx)
	if err != nil {
		s.metrics.CartRollback(op)
		s.log.WarnContext(ctx, "cart mutation failed, rolling back", "operation", op, "error", err)
		s.publish(snapshot, err)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(confirmed, nil)
	return nil
}

// Load fetches the cart referenced by the session. A cart the service no
// longer knows is treated as no cart: the session forgets its id.
func (s *Store) Load(ctx context.Context) (*domain.Cart, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	cartID := s.Session().CartID
	if cartID == "" {
		return nil, nil
	}

	cart, err := s.service.Get(ctx, cartID)
	if errors.Is(err, client.ErrNotFound) {
		s.log.InfoContext(ctx, "cart not found, clearing local reference", "cart_id", cartID)
		s.setCartID(ctx, "")
		s.publish(nil, nil)
		return nil, nil
	}
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return nil, fmt.Errorf("load cart: %w", err)
	}

	s.publish(cart, nil)
	return cart.Clone(), nil
}

// AddItem adds item, merging with an existing line of the same product and
// variant. The remote cart is created on first use.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := domain.Validate(item); err != nil {
		return err
	}
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	snapshot := s.Get()
	next := snapshot.Clone()
	if next == nil {
		next = &domain.Cart{ID: s.Session().CartID}
	}
	if i := next.Find(item.Key()); i >= 0 {
		next.Items[i].Quantity += item.Quantity
	} else {
		next.Items = append(next.Items, item)
	}

	return s.mutate(ctx, "add_item", snapshot, next, func(ctx context.Context) (*domain.Cart, error) {
		cartID, err := s.ensureCart(ctx)
		if err != nil {
			return nil, err
		}
		return s.service.AddItem(ctx, cartID, item)
	})
}

// ensureCart returns the session's cart id, creating (and binding) a remote
// cart when there is none yet.
func (s *Store) ensureCart(ctx context.Context) (string, error) {
	sess := s.Session()
	if sess.CartID != "" {
		return sess.CartID, nil
	}

	created, err := s.service.Create(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("create cart: %w", err)
	}
	s.setCartID(ctx, created.ID)
	s.log.InfoContext(ctx, "cart created", "cart_id", created.ID)

	if sess.Authenticated() {
		if _, err := s.service.Bind(ctx, created.ID, sess.AccountID); err != nil {
			s.log.WarnContext(ctx, "failed to bind cart to account", "cart_id", created.ID, "account_id", sess.AccountID, "error", err)
		}
	}
	return created.ID, nil
}

// UpdateQuantity sets the quantity of a line. Quantities below 1 are
// ignored; removing a line goes through RemoveItem.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int, variantID *int64) error {
	if quantity < 1 {
		return nil
	}
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	snapshot := s.Get()
	i := snapshot.Find(domain.KeyOf(productID, variantID))
	if i < 0 {
		return ErrItemNotFound
	}
	next := snapshot.Clone()
	next.Items[i].Quantity = quantity

	return s.mutate(ctx, "update_quantity", snapshot, next, func(ctx context.Context) (*domain.Cart, error) {
		return s.service.UpdateItem(ctx, snapshot.ID, productID, variantID, quantity)
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID int64, variantID *int64) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	snapshot := s.Get()
	i := snapshot.Find(domain.KeyOf(productID, variantID))
	if i < 0 {
		return ErrItemNotFound
	}
	next := snapshot.Clone()
	next.Items = append(next.Items[:i], next.Items[i+1:]...)

	return s.mutate(ctx, "remove_item", snapshot, next, func(ctx context.Context) (*domain.Cart, error) {
		return s.service.DeleteItem(ctx, snapshot.ID, productID, variantID)
	})
}

// Clear empties the cart. Without a cart it does nothing.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	snapshot := s.Get()
	if snapshot == nil || snapshot.ID == "" {
		return nil
	}
	next := snapshot.Clone()
	next.Items = []domain.CartItem{}

	return s.mutate(ctx, "clear", snapshot, next, func(ctx context.Context) (*domain.Cart, error) {
		return s.service.Clear(ctx, snapshot.ID)
	})
}

// SignIn hands the local cart to accountID. The service merges it into the
// account's cart or adopts it; without a local cart the account's own cart,
// if any, becomes the current one.
func (s *Store) SignIn(ctx context.Context, accountID string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	s.sess.AccountID = accountID
	anonymousCartID := s.sess.CartID
	s.mu.Unlock()

	adopted, err := s.service.Adopt(ctx, accountID, anonymousCartID)
	if errors.Is(err, client.ErrNotFound) && anonymousCartID == "" {
		s.setCartID(ctx, "")
		return nil
	}
	if err != nil {
		s.setCartID(ctx, anonymousCartID)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return fmt.Errorf("transfer cart to account: %w", err)
	}

	s.setCartID(ctx, adopted.ID)
	s.publish(adopted, nil)
	s.log.InfoContext(ctx, "cart transferred to account", "cart_id", adopted.ID, "account_id", accountID)
	return nil
}

// SignOut forgets the account and the local cart reference. The remote cart
// is left alone so the account can find it again.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	s.sess.AccountID = ""
	s.mu.Unlock()
	s.setCartID(ctx, "")
	s.publish(nil, nil)
	return nil
}
