// Package cache provides a generic cache-aside access layer over Redis.
//
// Purpose:
//
//	This package implements namespaced, type-safe caching for heterogeneous
//	value kinds (CSRF tokens, osu! access/refresh tokens, API sessions).
//	Values declare their own key material through the Cacheable interface and
//	are stored as JSON under "{TypeKey}:{Key}".
//
// Dependencies:
//   - github.com/redis/go-redis/v9: Redis client
//   - github.com/rs/zerolog: Structured logging
//   - internal/metrics: Cache hit/miss counters
//
// Key Responsibilities:
//   - Put/Get/Delete primitives with optional TTL (0 = no expiry)
//   - GetOrFetch cache-aside helper with a fallible producer
//   - Distinct error kinds for serialization, store, and producer failures
//
// Debugging Notes:
//   - Expiry is enforced entirely by Redis; there is no background sweeper
//   - Overwrites are unconditional (last-writer-wins, no optimistic locking)
//   - GetOrFetch has no single-flight guard: concurrent misses for the same
//     key may invoke the producer redundantly, which is accepted because Put
//     is idempotent
//
// Thread Safety:
//   - Cache is safe for concurrent use; every operation is a self-contained
//     round trip on the shared go-redis connection pool
//
// Error Handling:
//   - All failures are returned as *Error with a Kind; nothing is retried
//     internally (retry policy belongs to the caller)
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/tourney-server/internal/metrics"
)

// Cacheable is implemented by every type stored through this package.
//
// TypeKey must be a constant per type and unique across all cached kinds; it
// prefixes every stored key so that two kinds with equal instance keys never
// collide. Key identifies the specific value within its kind. Instance keys
// are not escaped, so user-controlled key material must not contain ':'.
type Cacheable interface {
	TypeKey() string
	Key() string
}

// ErrorKind classifies cache failures.
type ErrorKind int

const (
	// KindSerialize indicates a value could not be JSON encoded or decoded.
	KindSerialize ErrorKind = iota
	// KindStore indicates the Redis command or connection failed.
	KindStore
	// KindFetch indicates the GetOrFetch producer returned an error.
	KindFetch
)

func (k ErrorKind) String() string {
	switch k {
	case KindSerialize:
		return "serialize"
	case KindStore:
		return "store"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by all cache operations.
type Error struct {
	Kind ErrorKind
	Op   string // "get", "put", "delete", "fetch"
	Key  string // full namespaced key
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s %q: %s error: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a cache Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// Cache wraps a Redis client for use by the generic operations below.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
}

// New creates a cache over an established Redis client.
func New(client *redis.Client, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// FullKey returns the namespaced store key for an instance key of kind V.
func FullKey[V Cacheable](key string) string {
	var v V
	return v.TypeKey() + ":" + key
}

// Put stores v under its namespaced key. A zero ttl means the entry never
// expires. Existing entries are overwritten unconditionally.
func Put[V Cacheable](ctx context.Context, c *Cache, v V, ttl time.Duration) error {
	full := v.TypeKey() + ":" + v.Key()

	payload, err := json.Marshal(v)
	if err != nil {
		return &Error{Kind: KindSerialize, Op: "put", Key: full, Err: err}
	}

	if err := c.client.Set(ctx, full, payload, ttl).Err(); err != nil {
		metrics.RecordCacheError("put")
		return &Error{Kind: KindStore, Op: "put", Key: full, Err: err}
	}

	c.logger.Debug().Str("key", full).Dur("ttl", ttl).Msg("stored value in cache")
	return nil
}

// Get returns the value of kind V stored under key, or nil on a miss.
// A store-level "key not found" is a miss, not an error.
func Get[V Cacheable](ctx context.Context, c *Cache, key string) (*V, error) {
	full := FullKey[V](key)

	data, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss(typeKey[V]())
		return nil, nil
	}
	if err != nil {
		metrics.RecordCacheError("get")
		return nil, &Error{Kind: KindStore, Op: "get", Key: full, Err: err}
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &Error{Kind: KindSerialize, Op: "get", Key: full, Err: err}
	}

	metrics.RecordCacheHit(typeKey[V]())
	return &v, nil
}

// Delete removes the entry under key in a single round trip (GETDEL) and
// returns the removed value if it was present.
func Delete[V Cacheable](ctx context.Context, c *Cache, key string) (*V, error) {
	full := FullKey[V](key)

	data, err := c.client.GetDel(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordCacheError("delete")
		return nil, &Error{Kind: KindStore, Op: "delete", Key: full, Err: err}
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &Error{Kind: KindSerialize, Op: "delete", Key: full, Err: err}
	}
	return &v, nil
}

// GetOrFetch returns the cached value for key, or invokes fetch on a miss and
// stores the result with ttl before returning it. Nothing is cached when
// fetch fails. A failed cache read is treated as a miss so that a degraded
// Redis does not take the producer path down with it.
func GetOrFetch[V Cacheable](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (V, error)) (V, error) {
	cached, err := Get[V](ctx, c, key)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", FullKey[V](key)).Msg("cache read failed, falling through to producer")
	}
	if cached != nil {
		return *cached, nil
	}

	var zero V
	v, err := fetch(ctx)
	if err != nil {
		return zero, &Error{Kind: KindFetch, Op: "fetch", Key: FullKey[V](key), Err: err}
	}

	if err := Put(ctx, c, v, ttl); err != nil {
		return zero, err
	}
	return v, nil
}

func typeKey[V Cacheable]() string {
	var v V
	return v.TypeKey()
}
