package cache

import (
	"context"
	"errors"
)

// Store keeps short-lived JSON-serializable values with a TTL. It backs the
// shopper sessions and the checkout sessions.
type Store[T any] interface {
	Get(ctx context.Context, key string) (*T, error)
	Set(ctx context.Context, key string, value *T) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
