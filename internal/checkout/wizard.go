package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/cache"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/client"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
)

// ContactService resolves the checkout contact profile of an account.
type ContactService interface {
	FindContact(ctx context.Context, accountID string) (*domain.ContactInfo, error)
	CreateContact(ctx context.Context, contact domain.ContactInfo) (*domain.ContactInfo, error)
}

// Submitter places the order built from a complete context.
type Submitter interface {
	Confirm(ctx context.Context, c Context) (*domain.Order, error)
}

// Wizard owns checkout sessions and moves them through
// delivery method, contact, address or pickup, and review. Callers refer to
// a session by its id; every change is stored before it is returned.
type Wizard struct {
	store    cache.Store[Session]
	contacts ContactService
	rates    Rates
	log      *slog.Logger
	now      func() time.Time

	locks sync.Map
}

func NewWizard(store cache.Store[Session], contacts ContactService, rates Rates, log *slog.Logger) *Wizard {
	return &Wizard{
		store:    store,
		contacts: contacts,
		rates:    rates,
		log:      logger.OrDefault(log).With("component", "checkout"),
		now:      time.Now,
	}
}

func (w *Wizard) lock(id string) func() {
	v, _ := w.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Start opens a checkout for cart. Without a cart, or with an empty one,
// there is nothing to check out and the shopper belongs on the cart page.
func (w *Wizard) Start(ctx context.Context, owner, accountID string, cart *domain.Cart) (*Session, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrNoCart
	}

	now := w.now()
	s := Session{
		ID:    uuid.NewString(),
		Owner: owner,
		Step:  StepDeliveryMethod,
		Context: Context{
			AccountID: accountID,
			Cart:      cart.Clone(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Context.Costs = ComputeCosts(s.Context, w.rates)

	if err := w.store.Set(ctx, s.ID, &s); err != nil {
		return nil, fmt.Errorf("save checkout session: %w", err)
	}
	w.log.InfoContext(ctx, "checkout started", "checkout_id", s.ID, "cart_id", cart.ID)
	return &s, nil
}

func (w *Wizard) Get(ctx context.Context, owner, id string) (*Session, error) {
	return w.load(ctx, owner, id)
}

func (w *Wizard) load(ctx context.Context, owner, id string) (*Session, error) {
	s, err := w.store.Get(ctx, id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	if s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// update applies fn to a copy of the session, recomputes costs and stores
// the copy. When fn fails the stored session is left as it was.
func (w *Wizard) update(ctx context.Context, owner, id string, fn func(*Session) error) (*Session, error) {
	unlock := w.lock(id)
	defer unlock()

	current, err := w.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current.Step.IsTerminal() {
		return nil, ErrCheckoutCompleted
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.Context.Costs = ComputeCosts(next.Context, w.rates)
	next.UpdatedAt = w.now()

	if err := w.store.Set(ctx, id, &next); err != nil {
		return nil, fmt.Errorf("save checkout session: %w", err)
	}
	return &next, nil
}

func requireStep(s *Session, step Step) error {
	if s.Step != step {
		return fmt.Errorf("%w: at %s, need %s", ErrWrongStep, s.Step, step)
	}
	return nil
}

// SelectDeliveryMethod records the method. Switching between home delivery
// and pickup drops the selection made for the other mode.
func (w *Wizard) SelectDeliveryMethod(ctx context.Context, owner, id string, method domain.DeliveryMethod) (*Session, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown delivery method %q", ErrIncompatibleMethod, method)
	}
	return w.update(ctx, owner, id, func(s *Session) error {
		if err := requireStep(s, StepDeliveryMethod); err != nil {
			return err
		}
		c := &s.Context
		if method.IsPickup() && c.Carrier() != nil {
			c.Selection = nil
		}
		if !method.IsPickup() && c.Store() != nil {
			c.Selection = nil
		}
		c.DeliveryMethod = method
		return nil
	})
}

// SetContact stores what the shopper typed. Completeness is checked when
// continuing, not here.
func (w *Wizard) SetContact(ctx context.Context, owner, id string, contact domain.ContactInfo) (*Session, error) {
	return w.update(ctx, owner, id, func(s *Session) error {
		if err := requireStep(s, StepContactInfo); err != nil {
			return err
		}
		// The resolved profile id survives only if nothing changed.
		contact.ID = ""
		if prev := s.Context.Contact; prev != nil && sameContact(*prev, contact) {
			contact.ID = prev.ID
		}
		s.Context.Contact = &contact
		return nil
	})
}

func sameContact(a, b domain.ContactInfo) bool {
	return a.FullName == b.FullName && a.Email == b.Email && a.Phone == b.Phone
}

func (w *Wizard) SelectAddress(ctx context.Context, owner, id string, address domain.Address) (*Session, error) {
	return w.update(ctx, owner, id, func(s *Session) error {
		if err := requireStep(s, StepShipping); err != nil {
			return err
		}
		if s.Context.DeliveryMethod.IsPickup() {
			return fmt.Errorf("%w: pickup needs no address", ErrIncompatibleMethod)
		}
		if s.Context.Address == nil || s.Context.Address.ID != address.ID {
			// A carrier was quoted for the previous address.
			s.Context.Selection = nil
		}
		s.Context.Address = &address
		return nil
	})
}

// SelectCarrier records a home delivery selection from the quote step.
func (w *Wizard) SelectCarrier(ctx context.Context, owner, id string, sel domain.ShippingSelection) (*Session, error) {
	if sel.Carrier == nil {
		return nil, fmt.Errorf("%w: selection has no carrier", ErrIncompatibleMethod)
	}
	return w.update(ctx, owner, id, func(s *Session) error {
		if err := requireStep(s, StepShipping); err != nil {
			return err
		}
		if s.Context.DeliveryMethod.IsPickup() {
			return fmt.Errorf("%w: pickup has no carrier", ErrIncompatibleMethod)
		}
		s.Context.Selection = &sel
		return nil
	})
}

// SelectStore records a pickup selection from the quote step.
func (w *Wizard) SelectStore(ctx context.Context, owner, id string, sel domain.ShippingSelection) (*Session, error) {
	if !sel.IsPickup() {
		return nil, fmt.Errorf("%w: selection has no store", ErrIncompatibleMethod)
	}
	return w.update(ctx, owner, id, func(s *Session) error {
		if err := requireStep(s, StepShipping); err != nil {
			return err
		}
		if !s.Context.DeliveryMethod.IsPickup() {
			return fmt.Errorf("%w: %s is home delivery", ErrIncompatibleMethod, s.Context.DeliveryMethod)
		}
		s.Context.Selection = &sel
		s.Context.Address = nil
		return nil
	})
}

// RefreshCart replaces the cart snapshot so costs follow the latest cart.
// A change in lines or quantities drops the shipping selection.
func (w *Wizard) RefreshCart(ctx context.Context, owner, id string, cart *domain.Cart) (*Session, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrNoCart
	}
	return w.update(ctx, owner, id, func(s *Session) error {
		if !sameLines(s.Context.Cart, cart) {
			// Quotes are priced for the cart they were asked with.
			s.Context.Selection = nil
		}
		s.Context.Cart = cart.Clone()
		return nil
	})
}

func sameLines(a, b *domain.Cart) bool {
	if a == nil || b == nil || len(a.Items) != len(b.Items) {
		return false
	}
	quantities := make(map[domain.ItemKey]int, len(a.Items))
	for _, item := range a.Items {
		quantities[item.Key()] = item.Quantity
	}
	for _, item := range b.Items {
		if q, ok := quantities[item.Key()]; !ok || q != item.Quantity {
			return false
		}
	}
	return true
}

// CanContinue reports whether the current step is complete.
func (w *Wizard) CanContinue(s Session) bool {
	return Missing(s) == nil
}

// Missing explains why the current step is incomplete, nil when it is
// complete. The review step needs every earlier step complete.
func Missing(s Session) error {
	steps := []Step{s.Step}
	if s.Step == StepReview {
		steps = []Step{StepDeliveryMethod, StepContactInfo, StepShipping}
	}
	for _, step := range steps {
		if reason := missing(step, s.Context); reason != "" {
			return fmt.Errorf("%w: %s", ErrStepIncomplete, reason)
		}
	}
	return nil
}

func missing(step Step, c Context) string {
	switch step {
	case StepDeliveryMethod:
		if !c.DeliveryMethod.Valid() {
			return "choose a delivery method"
		}
	case StepContactInfo:
		if c.Contact == nil || !c.Contact.Complete() {
			return "full name, email and phone are required"
		}
	case StepShipping:
		if c.DeliveryMethod.IsPickup() {
			if c.Store() == nil {
				return "choose a pickup store"
			}
			return ""
		}
		if c.Address == nil {
			return "choose a delivery address"
		}
		if c.Carrier() == nil {
			return "choose a carrier"
		}
	case StepCompleted:
		return "checkout already completed"
	}
	return ""
}

// Continue moves one step forward once the current step is complete.
// Leaving the contact step resolves the contact profile first: it is looked
// up for the account and created when missing. A failure keeps the session
// on the contact step.
func (w *Wizard) Continue(ctx context.Context, owner, id string) (*Session, error) {
	return w.update(ctx, owner, id, func(s *Session) error {
		next := s.Step.Next()
		if s.Step == StepReview || !CanTransitionTo(s.Step, next) {
			return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, s.Step, next)
		}
		if err := Missing(*s); err != nil {
			return err
		}
		if s.Step == StepContactInfo {
			if err := w.resolveContact(ctx, &s.Context); err != nil {
				return err
			}
		}
		w.log.DebugContext(ctx, "checkout step advanced", "checkout_id", s.ID, "from", s.Step, "to", next)
		s.Step = next
		return nil
	})
}

func (w *Wizard) resolveContact(ctx context.Context, c *Context) error {
	contact := *c.Contact
	if contact.ID != "" {
		return nil
	}
	contact.AccountID = c.AccountID
	if err := domain.Validate(contact); err != nil {
		return err
	}

	if c.AccountID != "" {
		found, err := w.contacts.FindContact(ctx, c.AccountID)
		if err == nil {
			contact.ID = found.ID
			c.Contact = &contact
			return nil
		}
		if !errors.Is(err, client.ErrNotFound) {
			w.log.WarnContext(ctx, "contact lookup failed", "account_id", c.AccountID, "error", err)
			return fmt.Errorf("%w: %w", ErrContactUnavailable, err)
		}
	}

	created, err := w.contacts.CreateContact(ctx, contact)
	if err != nil {
		w.log.WarnContext(ctx, "contact creation failed", "account_id", c.AccountID, "error", err)
		return fmt.Errorf("%w: %w", ErrContactUnavailable, err)
	}
	contact.ID = created.ID
	c.Contact = &contact
	return nil
}

// Back returns to the previous step with the context untouched.
func (w *Wizard) Back(ctx context.Context, owner, id string) (*Session, error) {
	return w.update(ctx, owner, id, func(s *Session) error {
		prev := s.Step.Previous()
		if prev == "" || !CanTransitionTo(s.Step, prev) {
			return fmt.Errorf("%w: no step before %s", IllegalTransitionError, s.Step)
		}
		s.Step = prev
		return nil
	})
}

// Confirm submits the order from the review step. On success the session is
// completed and discarded; on failure it stays at review, unchanged, so the
// shopper can retry.
func (w *Wizard) Confirm(ctx context.Context, owner, id string, submitter Submitter) (*Session, error) {
	unlock := w.lock(id)
	defer unlock()

	current, err := w.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := requireStep(current, StepReview); err != nil {
		return nil, err
	}
	if err := Missing(*current); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Context.Costs = ComputeCosts(next.Context, w.rates)
	placed, err := submitter.Confirm(ctx, next.Context)
	if err != nil {
		return nil, err
	}

	next.Step = StepCompleted
	next.Context.Order = placed
	next.UpdatedAt = w.now()

	if err := w.store.Delete(ctx, id); err != nil {
		w.log.WarnContext(ctx, "failed to discard completed checkout", "checkout_id", id, "error", err)
	}
	w.locks.Delete(id)
	w.log.InfoContext(ctx, "checkout completed", "checkout_id", id, "order_id", placed.ID)
	return &next, nil
}

// Abandon discards a session that will not be completed.
func (w *Wizard) Abandon(ctx context.Context, owner, id string) error {
	unlock := w.lock(id)
	defer unlock()

	if _, err := w.load(ctx, owner, id); err != nil {
		return err
	}
	w.locks.Delete(id)
	return w.store.Delete(ctx, id)
}
