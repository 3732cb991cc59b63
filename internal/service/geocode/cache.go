package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applog "github.com/janisto/profile-directory/internal/platform/logging"
)

const (
	cacheKeyPrefix = "geocode:"
	// maxNotFoundTTL caps how long a miss is remembered so corrected map
	// data becomes visible reasonably soon.
	maxNotFoundTTL = time.Hour
)

type cacheEntry struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	NotFound bool    `json:"not_found,omitempty"`
}

// CachedResolver memoizes lookups of next in Redis, keyed by the literal
// address text. Upstream failures are never cached. Redis errors are logged
// and the lookup falls through to next.
type CachedResolver struct {
	next   Resolver
	client goredis.Cmdable
	ttl    time.Duration
}

// NewCachedResolver wraps next with a Redis cache. Entries expire after ttl.
// A non-positive ttl disables caching, since Redis would keep such entries
// forever.
func NewCachedResolver(next Resolver, client goredis.Cmdable, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl}
}

func (c *CachedResolver) Resolve(ctx context.Context, address string) (Coordinates, error) {
	if c.ttl <= 0 {
		return c.next.Resolve(ctx, address)
	}
	key := cacheKey(address)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			if entry.NotFound {
				return Coordinates{}, ErrAddressNotFound
			}
			return Coordinates{Lat: entry.Lat, Lng: entry.Lng}, nil
		}
		applog.LogWarn(ctx, "discarding corrupt geocode cache entry", zap.String("key", key))
	case errors.Is(err, goredis.Nil):
		// miss
	default:
		applog.LogWarn(ctx, "geocode cache read failed", zap.Error(err))
	}

	coords, err := c.next.Resolve(ctx, address)
	switch {
	case err == nil:
		c.store(ctx, key, cacheEntry{Lat: coords.Lat, Lng: coords.Lng}, c.ttl)
	case errors.Is(err, ErrAddressNotFound):
		c.store(ctx, key, cacheEntry{NotFound: true}, min(c.ttl, maxNotFoundTTL))
	}
	return coords, err
}

func (c *CachedResolver) store(ctx context.Context, key string, entry cacheEntry, ttl time.Duration) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		applog.LogWarn(ctx, "geocode cache write failed", zap.Error(err))
	}
}

func cacheKey(address string) string {
	sum := sha256.Sum256([]byte(address))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Compile-time interface check
var _ Resolver = (*CachedResolver)(nil)
