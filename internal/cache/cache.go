// ABOUTME: Read-through cache contract for computed aggregation results.
// ABOUTME: Backends: in-memory badger with TTLs, redis, or a no-op.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Cache stores opaque encoded results by key. Entries expire only by TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendNone   = "none"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	RedisAddr string
	RedisDB   int
}

// New opens the configured backend. An empty backend means none.
func New(ctx context.Context, opts Options, logger *zap.Logger) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return Noop{}, nil
	case BackendBadger:
		return NewBadger(logger)
	case BackendRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisDB, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Close() error { return nil }
