package repositories

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepositoryInterface is the session and login-attempt store.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	// Take reads and deletes key in one step, so a value can be consumed once.
	Take(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	// IncrWindow increments a counter whose lifetime starts at the first
	// increment and lasts window.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}
