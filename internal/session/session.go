package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/cache"
)

// Session is the shopper's explicit session state: who is signed in and
// which remote cart the shopper is working on.
type Session struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId,omitempty"`
	CartID    string `json:"cartId,omitempty"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.AccountID != ""
}

// Saver persists a session after the cart store changes it.
type Saver interface {
	Save(ctx context.Context, s *Session) error
}

type Manager struct {
	store cache.Store[Session]
}

func NewManager(store cache.Store[Session]) *Manager {
	return &Manager{store: store}
}

// Load returns the stored session, or a fresh one when id is empty or
// unknown. A fresh session is not saved until something changes it.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return &Session{ID: uuid.NewString()}, nil
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return &Session{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	if err := m.store.Set(ctx, s.ID, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
