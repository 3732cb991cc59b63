package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedResolverHit(t *testing.T) {
	_, client := newMiniRedisClient(t)
	next := NewMockResolver(map[string]Coordinates{"10 Downing St": {Lat: 51.5034, Lng: -0.1276}})
	cached := NewCachedResolver(next, client, time.Hour)
	ctx := context.Background()

	for range 3 {
		coords, err := cached.Resolve(ctx, "10 Downing St")
		require.NoError(t, err)
		require.Equal(t, Coordinates{Lat: 51.5034, Lng: -0.1276}, coords)
	}
	require.Len(t, next.Calls(), 1)
}

func TestCachedResolverExpires(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	next := NewMockResolver(map[string]Coordinates{"10 Downing St": {Lat: 1, Lng: 2}})
	cached := NewCachedResolver(next, client, time.Minute)
	ctx := context.Background()

	_, err := cached.Resolve(ctx, "10 Downing St")
	require.NoError(t, err)
	require.Equal(t, time.Minute, mr.TTL(cacheKey("10 Downing St")))

	mr.FastForward(2 * time.Minute)

	_, err = cached.Resolve(ctx, "10 Downing St")
	require.NoError(t, err)
	require.Len(t, next.Calls(), 2)
}

func TestCachedResolverRemembersNotFound(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	next := NewMockResolver(nil)
	cached := NewCachedResolver(next, client, 24*time.Hour)
	ctx := context.Background()

	_, err := cached.Resolve(ctx, "???invalid???")
	require.ErrorIs(t, err, ErrAddressNotFound)
	_, err = cached.Resolve(ctx, "???invalid???")
	require.ErrorIs(t, err, ErrAddressNotFound)

	require.Len(t, next.Calls(), 1)
	require.Equal(t, maxNotFoundTTL, mr.TTL(cacheKey("???invalid???")))
}

func TestCachedResolverZeroTTLDisablesCache(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		mr, client := newMiniRedisClient(t)
		next := NewMockResolver(map[string]Coordinates{"10 Downing St": {Lat: 1, Lng: 2}})
		cached := NewCachedResolver(next, client, ttl)
		ctx := context.Background()

		_, err := cached.Resolve(ctx, "10 Downing St")
		require.NoError(t, err)
		_, err = cached.Resolve(ctx, "???invalid???")
		require.ErrorIs(t, err, ErrAddressNotFound)

		require.Empty(t, mr.Keys(), "ttl %s must not write entries", ttl)
		_, err = cached.Resolve(ctx, "10 Downing St")
		require.NoError(t, err)
		require.Len(t, next.Calls(), 3)
	}
}

func TestCachedResolverSkipsUpstreamErrors(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	next := NewMockResolver(nil)
	next.Err = &UpstreamError{Kind: UpstreamErrorKindStatus, Status: 503}
	cached := NewCachedResolver(next, client, time.Hour)
	ctx := context.Background()

	_, err := cached.Resolve(ctx, "somewhere")
	require.ErrorIs(t, err, ErrUpstream)
	require.False(t, mr.Exists(cacheKey("somewhere")))

	next.Err = nil
	_, err = cached.Resolve(ctx, "somewhere")
	require.ErrorIs(t, err, ErrAddressNotFound)
	require.Len(t, next.Calls(), 2)
}

func TestCachedResolverFallsThroughWhenRedisDown(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	mr.Close()

	next := NewMockResolver(map[string]Coordinates{"somewhere": {Lat: 3, Lng: 4}})
	cached := NewCachedResolver(next, client, time.Hour)

	coords, err := cached.Resolve(context.Background(), "somewhere")
	require.NoError(t, err)
	require.Equal(t, Coordinates{Lat: 3, Lng: 4}, coords)
}

func TestCachedResolverCorruptEntry(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	require.NoError(t, mr.Set(cacheKey("somewhere"), "{broken"))

	next := NewMockResolver(map[string]Coordinates{"somewhere": {Lat: 5, Lng: 6}})
	cached := NewCachedResolver(next, client, time.Hour)

	coords, err := cached.Resolve(context.Background(), "somewhere")
	require.NoError(t, err)
	require.Equal(t, Coordinates{Lat: 5, Lng: 6}, coords)

	raw, err := mr.Get(cacheKey("somewhere"))
	require.NoError(t, err)
	require.NotEqual(t, "{broken", raw)
}

func TestCacheKeyIsLiteral(t *testing.T) {
	require.NotEqual(t, cacheKey("Main St"), cacheKey("main st"))
	require.Equal(t, cacheKey("Main St"), cacheKey("Main St"))
}

func TestMockResolverError(t *testing.T) {
	m := NewMockResolver(nil)
	m.Err = errors.New("boom")
	_, err := m.Resolve(context.Background(), "x")
	require.EqualError(t, err, "boom")
	require.Equal(t, []string{"x"}, m.Calls())
}
