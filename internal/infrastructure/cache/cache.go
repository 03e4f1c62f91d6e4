// Package cache is a TTL key/value cache on an embedded badger database.
//
// Every failure is absorbed: reads that fail count as misses and writes that
// fail are logged and dropped, so callers never see a cache error.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/metrics"
)

// Client wraps a badger database.
type Client struct {
	db     *badger.DB
	logger zerolog.Logger
	owned  bool
}

// Open opens (or creates) the badger directory at path. An empty path keeps
// everything in memory.
func Open(path string, logger zerolog.Logger) (*Client, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	c := New(db, logger)
	c.owned = true
	return c, nil
}

// New wraps an already opened database. The caller keeps ownership of db.
func New(db *badger.DB, logger zerolog.Logger) *Client {
	return &Client{
		db:     db,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Get decodes the value stored under key into dest and reports whether it was
// found.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.RecordCache("get", "miss")
		return false
	}
	if err != nil {
		metrics.RecordCache("get", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.RecordCache("get", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		c.Delete(ctx, key)
		return false
	}
	metrics.RecordCache("get", "hit")
	return true
}

// Set stores value under key for ttl. A non-positive ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		metrics.RecordCache("set", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		metrics.RecordCache("set", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Str("key", key).Msg("cache write failed")
		return
	}
	metrics.RecordCache("set", "ok")
}

// Delete removes the given keys.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordCache("delete", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Strs("keys", keys).Msg("cache delete failed")
		return
	}
	metrics.RecordCache("delete", "ok")
}

// DeletePrefix removes every key starting with prefix.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) {
	keys, err := c.keysWithPrefix([]byte(prefix))
	if err != nil {
		metrics.RecordCache("delete_prefix", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Str("prefix", prefix).Msg("cache prefix scan failed")
		return
	}
	if len(keys) == 0 {
		metrics.RecordCache("delete_prefix", "ok")
		return
	}

	batch := c.db.NewWriteBatch()
	defer batch.Cancel()
	for _, key := range keys {
		if err := batch.Delete(key); err != nil {
			metrics.RecordCache("delete_prefix", "error")
			logging.Ctx(ctx, c.logger).Warn().Err(err).Str("prefix", prefix).Msg("cache prefix delete failed")
			return
		}
	}
	if err := batch.Flush(); err != nil {
		metrics.RecordCache("delete_prefix", "error")
		logging.Ctx(ctx, c.logger).Warn().Err(err).Str("prefix", prefix).Msg("cache prefix delete failed")
		return
	}
	metrics.RecordCache("delete_prefix", "ok")
}

func (c *Client) keysWithPrefix(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// Ping reports whether the database accepts reads.
func (c *Client) Ping(_ context.Context) error {
	if c.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("__ping__"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// RunGC reclaims value-log space. It is a no-op for in-memory databases.
func (c *Client) RunGC() error {
	if c.db.Opts().InMemory {
		return nil
	}
	err := c.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close closes the database when it was opened by Open.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}
