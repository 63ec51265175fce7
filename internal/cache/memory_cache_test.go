package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
)

func TestMemoryCacheSetGet(t *testing.T) {
	require := require.New(t)

	c := NewMemoryHistoryCache("test")
	key := c.BuildKey("r1", "u1", 1700000000000, 20)

	page := &HistoryPage{
		Messages: []domain.MessageView{
			{Message: domain.Message{ID: "m1", Text: "hello"}},
		},
		NextCursor: "1699999999999",
		HasMore:    true,
	}
	require.NoError(c.Set(context.Background(), key, page, time.Minute))

	got, err := c.Get(context.Background(), key)
	require.NoError(err)
	require.Equal(page.NextCursor, got.NextCursor)
	require.Len(got.Messages, 1)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryHistoryCache("test")

	_, err := c.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	require := require.New(t)

	c := NewMemoryHistoryCache("test")
	key := c.BuildKey("r1", "u1", 0, 20)
	require.NoError(c.Set(context.Background(), key, &HistoryPage{}, 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(context.Background(), key)
	require.ErrorIs(err, ErrCacheMiss)
}

func TestMemoryCacheKeyIncludesViewerAndCursor(t *testing.T) {
	require := require.New(t)

	c := NewMemoryHistoryCache("test")
	k1 := c.BuildKey("r1", "u1", 100, 20)
	k2 := c.BuildKey("r1", "u2", 100, 20)
	k3 := c.BuildKey("r1", "u1", 200, 20)
	k4 := c.BuildKey("r1", "u1", 100, 10)

	require.NotEqual(k1, k2)
	require.NotEqual(k1, k3)
	require.NotEqual(k1, k4)
}
