package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/cache"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (*Session, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, *Session) error { return f.err }
func (f failingStore) Delete(context.Context, string) error { return f.err }

func newManager(t *testing.T) *Manager {
	store := cache.NewMemoryCache[Session](time.Hour)
	t.Cleanup(func() { store.Close() })
	return NewManager(store)
}

func TestLoad_EmptyIDMintsSession(t *testing.T) {
	m := newManager(t)

	s, err := m.Load(context.Background(), "")

	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated())
}

func TestLoad_UnknownIDKeepsID(t *testing.T) {
	m := newManager(t)

	s, err := m.Load(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID)
	assert.Empty(t, s.CartID)
}

func TestSaveAndLoad(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &Session{ID: "s1", AccountID: "acc-1", CartID: "c1"}))
	s, err := m.Load(ctx, "s1")

	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "c1", s.CartID)

	require.NoError(t, m.Delete(ctx, "s1"))
	s, err = m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, s.CartID)
}

func TestLoad_StoreError(t *testing.T) {
	m := NewManager(failingStore{err: errors.New("redis down")})

	_, err := m.Load(context.Background(), "s1")

	require.ErrorContains(t, err, "redis down")
}
