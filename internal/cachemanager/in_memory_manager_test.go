package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type shelf struct {
	Key    string
	Titles []string
}

func newShelves() *InMemoryCacheManager[string, shelf] {
	return NewInMemoryCacheManager[string, shelf]("shelves", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := newShelves()
	want := shelf{Key: "k1", Titles: []string{"Moby Dick"}}
	cache.Set(context.Background(), "k1", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "k1")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	got, ok := newShelves().Get(context.Background(), "nope")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_WrongType(t *testing.T) {
	cache := newShelves()
	cache.cache.Set("k1", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "k1")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_DefaultTTL(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("short", 20*time.Millisecond, time.Minute)
	cache.Set(context.Background(), "k", "v", 0)

	_, ok := cache.Get(context.Background(), "k")
	require.True(t, ok)
	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newShelves()
	_, ok := cache.GetWithRefresh(context.Background(), "k1", time.Minute)
	require.False(t, ok)

	cache.Set(context.Background(), "k1", shelf{Key: "k1"}, time.Millisecond)
	got, ok := cache.GetWithRefresh(context.Background(), "k1", time.Hour)
	require.True(t, ok)
	require.Equal(t, "k1", got.Key)

	time.Sleep(5 * time.Millisecond)
	_, ok = cache.Get(context.Background(), "k1")
	require.True(t, ok, "refresh should have extended the ttl")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := newShelves()
	for _, k := range []string{"a", "b", "c"} {
		cache.Set(ctx, k, shelf{Key: k}, DefaultExpiration)
	}

	require.NoError(t, cache.Delete(ctx))
	require.Equal(t, 3, cache.Len())

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	_, ok = cache.Get(ctx, "c")
	require.True(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len())
}
