package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MyMonsterVR/location-app-school-backend/internal/cache"
	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type historyService struct {
	messages repository.MessageRepository
	cache    cache.HistoryCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

func NewHistoryService(
	messages repository.MessageRepository,
	historyCache cache.HistoryCache,
	cacheTTL time.Duration,
) HistoryService {
	return &historyService{
		messages: messages,
		cache:    historyCache,
		cacheTTL: cacheTTL,
	}
}

func (s *historyService) GetHistory(ctx context.Context, roomID, viewerID, before string, limit int) (*domain.HistoryResponse, error) {
	if roomID == "" {
		return nil, validationError("room id is required")
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	cursor := parseCursor(ctx, before)

	// The live latest page is always fetched directly so an empty or
	// fast-moving head never gets pinned in the cache.
	if cursor == nil {
		page, err := s.fetchPage(ctx, roomID, viewerID, nil, limit)
		if err != nil {
			return nil, err
		}
		return pageToResponse(page), nil
	}

	key := s.cache.BuildKey(roomID, viewerID, cursor.UnixMilli(), limit)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID, viewerID, cursor, limit, key)
	})
	if err != nil {
		return nil, err
	}

	page, ok := result.(*cache.HistoryPage)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return pageToResponse(page), nil
}

func (s *historyService) fetchWithCache(ctx context.Context, roomID, viewerID string, cursor *time.Time, limit int, key string) (*cache.HistoryPage, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("history cache get error")
	}

	page, err := s.fetchPage(ctx, roomID, viewerID, cursor, limit)
	if err != nil {
		return nil, err
	}

	// Store asynchronously to keep the response path unblocked.
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cacheCtx, key, page, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("history cache set error")
		}
	}()

	return page, nil
}

func (s *historyService) fetchPage(ctx context.Context, roomID, viewerID string, cursor *time.Time, limit int) (*cache.HistoryPage, error) {
	messages, hasMore, err := s.messages.ListBefore(ctx, roomID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history page: %w", err)
	}

	views := ascendingViews(messages, viewerID)

	var nextCursor string
	if len(views) > 0 {
		// The oldest timestamp of this page is the cursor for the next one.
		nextCursor = strconv.FormatInt(views[0].CreatedAt.UnixMilli(), 10)
	}

	return &cache.HistoryPage{
		Messages:   views,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// parseCursor interprets before as epoch milliseconds. A malformed cursor is
// diagnosed and ignored, never a hard failure.
func parseCursor(ctx context.Context, before string) *time.Time {
	if before == "" {
		return nil
	}
	millis, err := strconv.ParseInt(before, 10, 64)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Str("before", before).Msg("invalid history cursor ignored")
		return nil
	}
	t := time.UnixMilli(millis)
	return &t
}

func pageToResponse(page *cache.HistoryPage) *domain.HistoryResponse {
	return &domain.HistoryResponse{
		Messages:   page.Messages,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}
