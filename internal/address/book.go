package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
)

var (
	ErrMutationInFlight = errors.New("another address mutation is in flight")
	ErrAddressNotFound  = errors.New("address not found")
)

// Service is the remote address service.
type Service interface {
	ListAddresses(ctx context.Context, ownerID string) ([]domain.Address, error)
	CreateAddress(ctx context.Context, form domain.AddressForm) (*domain.Address, error)
	UpdateAddress(ctx context.Context, id string, patch domain.AddressPatch) (*domain.Address, error)
	DeleteAddress(ctx context.Context, id string) error
	SetPrimary(ctx context.Context, id string) (*domain.Address, error)
}

// Book holds one owner's saved addresses. Remove and SetPrimary are applied
// locally before the service answers and reverted when it fails. Mutations
// are serialized: a second one while another is pending is rejected.
type Book struct {
	service Service
	log     *slog.Logger

	inFlight atomic.Bool

	mu        sync.RWMutex
	ownerID   string
	addresses []domain.Address
	err       error
}

func NewBook(service Service, log *slog.Logger) *Book {
	return &Book{
		service: service,
		log:     logger.OrDefault(log).With("component", "address_book"),
	}
}

// Addresses returns a copy of the current list.
func (b *Book) Addresses() []domain.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.addresses)
}

// Err returns the failure of the last operation, nil after a success.
func (b *Book) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// Primary returns the primary address, if any.
func (b *Book) Primary() (domain.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, a := range b.addresses {
		if a.IsPrimary {
			return a, true
		}
	}
	return domain.Address{}, false
}

// Find returns the address with id.
func (b *Book) Find(id string) (domain.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.index(id); i >= 0 {
		return b.addresses[i], true
	}
	return domain.Address{}, false
}

func (b *Book) index(id string) int {
	return slices.IndexFunc(b.addresses, func(a domain.Address) bool { return a.ID == id })
}

func (b *Book) set(addresses []domain.Address, err error) {
	b.mu.Lock()
	b.addresses = addresses
	b.err = err
	b.mu.Unlock()
}

func (b *Book) fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *Book) acquire() error {
	if !b.inFlight.CompareAndSwap(false, true) {
		return ErrMutationInFlight
	}
	return nil
}

func (b *Book) release() {
	b.inFlight.Store(false)
}

// List loads the owner's addresses. Guests have none: an empty ownerID
// yields an empty list without calling the service. A failed load keeps
// the previous list.
func (b *Book) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	if ownerID == "" {
		b.mu.Lock()
		b.ownerID = ""
		b.addresses = []domain.Address{}
		b.err = nil
		b.mu.Unlock()
		return []domain.Address{}, nil
	}

	addresses, err := b.service.ListAddresses(ctx, ownerID)
	if err != nil {
		b.fail(err)
		b.log.WarnContext(ctx, "failed to list addresses", "owner_id", ownerID, "error", err)
		return b.Addresses(), fmt.Errorf("list addresses: %w", err)
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}

	b.mu.Lock()
	b.ownerID = ownerID
	b.addresses = addresses
	b.err = nil
	b.mu.Unlock()
	return slices.Clone(addresses), nil
}

// Create saves a new address. A new primary address clears the others.
// Without an owner in the form, the owner of the last List is used.
func (b *Book) Create(ctx context.Context, form domain.AddressForm) (*domain.Address, error) {
	if form.OwnerID == "" {
		b.mu.RLock()
		form.OwnerID = b.ownerID
		b.mu.RUnlock()
	}
	if err := domain.Validate(form); err != nil {
		return nil, err
	}
	if err := b.acquire(); err != nil {
		return nil, err
	}
	defer b.release()

	created, err := b.service.CreateAddress(ctx, form)
	if err != nil {
		b.fail(err)
		return nil, fmt.Errorf("create address: %w", err)
	}

	next := b.Addresses()
	if created.IsPrimary {
		next = markPrimary(next, "")
	}
	next = append(next, *created)
	b.set(next, nil)
	return created, nil
}

// Update applies patch to the address with id once the service accepts it.
func (b *Book) Update(ctx context.Context, id string, patch domain.AddressPatch) (*domain.Address, error) {
	if err := domain.Validate(patch); err != nil {
		return nil, err
	}
	if err := b.acquire(); err != nil {
		return nil, err
	}
	defer b.release()

	updated, err := b.service.UpdateAddress(ctx, id, patch)
	if err != nil {
		b.fail(err)
		return nil, fmt.Errorf("update address %s: %w", id, err)
	}

	next := b.Addresses()
	if i := slices.IndexFunc(next, func(a domain.Address) bool { return a.ID == id }); i >= 0 {
		next[i] = *updated
	} else {
		next = append(next, *updated)
	}
	b.set(next, nil)
	return updated, nil
}

// Remove drops the address locally, then deletes it remotely. On failure the
// row goes back to its original position. Removing the primary leaves
// another row primary unless the list is now empty.
func (b *Book) Remove(ctx context.Context, id string) error {
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	snapshot := b.Addresses()
	i := slices.IndexFunc(snapshot, func(a domain.Address) bool { return a.ID == id })
	if i < 0 {
		return ErrAddressNotFound
	}
	removed := snapshot[i]
	b.set(slices.Delete(slices.Clone(snapshot), i, i+1), nil)

	if err := b.service.DeleteAddress(ctx, id); err != nil {
		b.mu.Lock()
		b.addresses = slices.Insert(slices.Clone(b.addresses), min(i, len(b.addresses)), removed)
		b.err = err
		b.mu.Unlock()
		b.log.WarnContext(ctx, "address removal failed, restoring", "address_id", id, "error", err)
		return fmt.Errorf("remove address %s: %w", id, err)
	}
	if removed.IsPrimary {
		b.replacePrimary(ctx)
	}
	return nil
}

// replacePrimary runs after the primary row was deleted. The service's list
// decides the new primary; when it cannot be read or names none, the first
// remaining row is promoted locally.
func (b *Book) replacePrimary(ctx context.Context) {
	b.mu.RLock()
	ownerID := b.ownerID
	b.mu.RUnlock()

	next := b.Addresses()
	if ownerID != "" {
		listed, err := b.service.ListAddresses(ctx, ownerID)
		if err != nil {
			b.log.WarnContext(ctx, "failed to reload addresses after removing primary", "owner_id", ownerID, "error", err)
		} else if listed != nil {
			next = listed
		}
	}
	if len(next) > 0 && !slices.ContainsFunc(next, func(a domain.Address) bool { return a.IsPrimary }) {
		next = markPrimary(next, next[0].ID)
	}
	b.set(next, nil)
}

// SetPrimary flips id to primary and the previous primary off before the
// service answers, restoring both flags if it fails. After a success exactly
// one address is primary.
func (b *Book) SetPrimary(ctx context.Context, id string) error {
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	snapshot := b.Addresses()
	if slices.IndexFunc(snapshot, func(a domain.Address) bool { return a.ID == id }) < 0 {
		return ErrAddressNotFound
	}
	b.set(markPrimary(slices.Clone(snapshot), id), nil)

	confirmed, err := b.service.SetPrimary(ctx, id)
	if err != nil {
		b.set(snapshot, err)
		b.log.WarnContext(ctx, "set primary failed, reverting", "address_id", id, "error", err)
		return fmt.Errorf("set primary address %s: %w", id, err)
	}

	next := b.Addresses()
	if i := slices.IndexFunc(next, func(a domain.Address) bool { return a.ID == id }); i >= 0 && confirmed != nil && confirmed.ID == id {
		next[i] = *confirmed
	}
	b.set(markPrimary(next, id), nil)
	return nil
}

// markPrimary sets IsPrimary on id only. An empty id clears every flag.
func markPrimary(addresses []domain.Address, id string) []domain.Address {
	for i := range addresses {
		addresses[i].IsPrimary = id != "" && addresses[i].ID == id
	}
	return addresses
}
