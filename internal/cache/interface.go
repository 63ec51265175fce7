package cache

import (
	"context"
	"errors"
	"time"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// HistoryPage is one cached page of annotated room history.
type HistoryPage struct {
	Messages   []domain.MessageView `json:"messages"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

// HistoryCache caches cursored history pages. Keys include the viewer
// because pages carry per-viewer read annotations. Cached pages are not
// invalidated on read receipts, so readBy/readByUser on an older page may
// lag a mark-read by up to the configured TTL; the latest page is never
// cached and always reflects current read state.
type HistoryCache interface {
	Get(ctx context.Context, key string) (*HistoryPage, error)
	Set(ctx context.Context, key string, page *HistoryPage, ttl time.Duration) error
	BuildKey(roomID, viewerID string, beforeMillis int64, limit int) string
	Close() error
}
