package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockManager[K comparable, V any] struct {
	mock.Mock
}

func (m *mockManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	args := m.Called(ctx, key)
	return args.Get(0).(V), args.Bool(1)
}

func (m *mockManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(V), args.Bool(1)
}

func (m *mockManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockManager[K, V]) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func loadShelf(calls *int) func(context.Context, string) (shelf, error) {
	return func(_ context.Context, key string) (shelf, error) {
		*calls++
		return shelf{Key: key, Titles: []string{"loaded"}}, nil
	}
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	manager := &mockManager[string, shelf]{}
	calls := 0
	rtc := NewReadThroughCache[string, shelf, string](manager, loadShelf(&calls), true)

	got, err := rtc.Get(context.Background(), "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "k1", got.Key)

	_, err = rtc.GetWithRefresh(context.Background(), "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	manager.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestReadThroughCache_Hit(t *testing.T) {
	ctx := context.Background()
	manager := &mockManager[string, shelf]{}
	manager.On("Get", ctx, "k1").Return(shelf{Key: "cached"}, true).Once()
	manager.On("GetWithRefresh", ctx, "k1", time.Minute).Return(shelf{Key: "cached"}, true).Once()
	calls := 0
	rtc := NewReadThroughCache[string, shelf, string](manager, loadShelf(&calls), false)

	got, err := rtc.Get(ctx, "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got.Key)
	got, err = rtc.GetWithRefresh(ctx, "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got.Key)

	require.Zero(t, calls)
	manager.AssertExpectations(t)
}

func TestReadThroughCache_MissLoadsAndStores(t *testing.T) {
	ctx := context.Background()
	manager := &mockManager[string, shelf]{}
	manager.On("Get", ctx, "k1").Return(shelf{}, false).Once()
	manager.On("Set", ctx, "k1", shelf{Key: "k1", Titles: []string{"loaded"}}, time.Minute).Once()
	calls := 0
	rtc := NewReadThroughCache[string, shelf, string](manager, loadShelf(&calls), false)

	got, err := rtc.Get(ctx, "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, []string{"loaded"}, got.Titles)
	require.Equal(t, 1, calls)
	manager.AssertExpectations(t)
}

func TestReadThroughCache_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	manager := &mockManager[string, shelf]{}
	manager.On("GetWithRefresh", ctx, "k1", time.Minute).Return(shelf{}, false).Once()
	boom := errors.New("database is locked")
	rtc := NewReadThroughCache[string, shelf, string](manager, func(context.Context, string) (shelf, error) {
		return shelf{}, boom
	}, false)

	_, err := rtc.GetWithRefresh(ctx, "k1", "k1", time.Minute)
	require.ErrorIs(t, err, boom)
	manager.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_InvalidateWithRealCache(t *testing.T) {
	ctx := context.Background()
	calls := 0
	rtc := NewReadThroughCache[string, shelf, string](newShelves(), loadShelf(&calls), false)

	_, err := rtc.Get(ctx, "k1", "k1", time.Minute)
	require.NoError(t, err)
	_, err = rtc.Get(ctx, "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	require.NoError(t, rtc.Invalidate(ctx, "k1"))
	_, err = rtc.Get(ctx, "k1", "k1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
