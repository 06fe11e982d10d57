// ABOUTME: In-memory badger cache with per-entry TTLs.
// ABOUTME: Nothing is written to disk; the cache dies with the process.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// Badger is a Cache over an in-memory badger database.
type Badger struct {
	db     *badger.DB
	logger *zap.Logger
}

// NewBadger opens an in-memory badger store.
func NewBadger(logger *zap.Logger) (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	logger.Debug("opened in-memory badger cache")
	return &Badger{db: db, logger: logger}, nil
}

// Get returns the value for key, or false when absent or expired.
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key. A non-positive ttl stores without expiry.
func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Close releases the badger database.
func (b *Badger) Close() error {
	return b.db.Close()
}
