// Package cache stores serialized scan results with an absolute expiry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/wildscan/config"
	"github.com/mohammad-safakhou/wildscan/models"
)

// ErrUnknownBackend is returned by Open for an unsupported cache.backend.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Store is a key/value store with TTL semantics. An entry is absent once now >= its expiry.
// Writes to the same key are last-writer-wins.
type Store interface {
	// Get returns the value, or ok=false when the key was never set or has expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value until now+ttl, replacing any previous entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Cleanup removes every expired entry and returns how many were removed.
	Cleanup(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes the stored entries, expired ones included until they are swept.
type Stats struct {
	Backend string `json:"backend"`
	Count   int64  `json:"count"`
}

// ScanKey derives the cache key of a route.
func ScanKey(r models.Route) string {
	return fmt.Sprintf("scan:%s:%s:%s", r.Origin, r.Destination, r.Date)
}

// GetJSON decodes the entry at key into T. A value that no longer decodes is deleted and
// reported as absent.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		if derr := s.Delete(ctx, key); derr != nil {
			return out, false, fmt.Errorf("drop undecodable entry %s: %w", key, derr)
		}
		var zero T
		return zero, false, nil
	}
	return out, true, nil
}

// SetJSON encodes v and stores it for ttl.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

// Open builds the store selected by cfg.Cache.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
	}
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		logger.Printf("using sqlite cache at %s", cfg.Storage.SQLite.Path)
		return OpenSQLite(ctx, cfg.Storage.SQLite.Path)
	case config.CacheBackendRedis:
		client, err := ConnRedis(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Printf("using redis cache at %s", cfg.Storage.Redis.Addr())
		return NewRedis(client, cfg.Cache.KeyPrefix), nil
	case config.CacheBackendPostgres:
		logger.Printf("using postgres cache")
		return OpenPostgres(ctx, cfg.Storage.Postgres.DSN(), cfg.Storage.Postgres.Timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Cache.Backend)
	}
}
