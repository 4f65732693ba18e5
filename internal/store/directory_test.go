package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanish78780/skillbridge-chat/internal/cache"
	"github.com/hanish78780/skillbridge-chat/internal/models"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (m *mapCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *mapCache) Ping(context.Context) error { return nil }
func (m *mapCache) Close() error               { return nil }

type countingDirectory struct {
	calls int
	users map[string]models.UserSummary
}

func (d *countingDirectory) Summary(_ context.Context, id string) (models.UserSummary, error) {
	d.calls++
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return models.UserSummary{ID: id}, ErrNotFound
}

func TestCachedDirectory_HitsCacheAfterFirstLookup(t *testing.T) {
	src := &countingDirectory{users: map[string]models.UserSummary{"alice": {ID: "alice", Name: "Alice"}}}
	c := newMapCache()
	d := NewCachedDirectory(src, c, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sum, err := d.Summary(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "Alice", sum.Name)
	}
	require.Equal(t, 1, src.calls)

	require.NoError(t, d.Invalidate(ctx, "alice"))
	_, err := d.Summary(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestCachedDirectory_UnknownUserNotCached(t *testing.T) {
	src := &countingDirectory{users: map[string]models.UserSummary{}}
	c := newMapCache()
	d := NewCachedDirectory(src, c, time.Minute)
	ctx := context.Background()

	_, err := d.Summary(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = d.Summary(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 2, src.calls)
	require.Empty(t, c.data)
}
