// Package diskcache persists detection results in a Badger database so that
// repeated runs over the same files skip detection.
package diskcache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/fxamacker/cbor/v2"

	"github.com/gobeaver/filetype"
)

const keyPrefix = "filetype:"

// Cache is a filetype.Cache stored on disk. Values are CBOR encoded
// reports; expiry uses Badger entry TTLs.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option configures a Cache
type Option func(*badger.Options, *Cache)

// WithLogger sets the logger for encoding and storage failures
func WithLogger(logger *slog.Logger) Option {
	return func(_ *badger.Options, c *Cache) {
		c.logger = logger
	}
}

// InMemory keeps the database in memory only
func InMemory() Option {
	return func(o *badger.Options, _ *Cache) {
		*o = o.WithDir("").WithValueDir("").WithInMemory(true)
	}
}

// Open opens or creates the cache database in dir.
func Open(dir string, opts ...Option) (*Cache, error) {
	bo := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None)
	c := &Cache{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&bo, c)
	}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", dir, err)
	}
	c.db = db
	return c, nil
}

// Get returns the cached result for key.
func (c *Cache) Get(key string) (*filetype.Info, bool) {
	var report filetype.Report
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &report)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	info, err := report.Info()
	if err != nil {
		c.logger.Warn("discarding invalid cache entry", "key", key, "error", err)
		c.Delete(key)
		return nil, false
	}
	return info, true
}

// Set stores info under key. A TTL of 0 means no expiration.
func (c *Cache) Set(key string, info *filetype.Info, ttl time.Duration) {
	val, err := cbor.Marshal(info.Report())
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), val)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Delete removes the result stored under key.
func (c *Cache) Delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		c.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}

// Clear removes every cached result.
func (c *Cache) Clear() {
	if err := c.db.DropPrefix([]byte(keyPrefix)); err != nil {
		c.logger.Warn("cache clear failed", "error", err)
	}
}

// Close flushes and closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

var _ filetype.Cache = (*Cache)(nil)
