package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetHistoryReturnsAscendingPage(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	ids := env.seedMessages(t, "r1", "u1", "m0", "m1", "m2")
	_, _, err := env.messages.MarkRead(context.Background(), ids[1], "u2")
	require.NoError(err)

	resp, err := env.history.GetHistory(context.Background(), "r1", "u2", "", 0)
	require.NoError(err)
	require.False(resp.HasMore)
	require.Len(resp.Messages, 3)

	require.Equal("m0", resp.Messages[0].Text)
	require.Equal("m1", resp.Messages[1].Text)
	require.Equal("m2", resp.Messages[2].Text)

	require.False(resp.Messages[0].ReadByUser)
	require.True(resp.Messages[1].ReadByUser)
	require.False(resp.Messages[2].ReadByUser)
}

func TestGetHistoryCursorWalkCoversAllMessages(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.seedMessages(t, "r1", "u1", "m0", "m1", "m2", "m3", "m4")

	var seen []string
	cursor := ""
	for {
		resp, err := env.history.GetHistory(context.Background(), "r1", "u2", cursor, 2)
		require.NoError(err)
		for _, m := range resp.Messages {
			seen = append(seen, m.Text)
		}
		if !resp.HasMore {
			break
		}
		require.NotEmpty(resp.NextCursor)
		cursor = resp.NextCursor
	}

	// Pages walk backwards, each page itself ascending.
	require.Equal([]string{"m3", "m4", "m1", "m2", "m0"}, seen)
}

func TestGetHistoryBurstSendsWalkWithoutGaps(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	// Near-simultaneous sends share wall-clock milliseconds; the store's
	// timestamps stay strictly increasing so the millisecond cursor still
	// partitions them cleanly.
	want := make(map[string]bool)
	for i := 0; i < 5; i++ {
		msg, err := env.chat.SendMessage(context.Background(), SendInput{
			RoomID:     "r1",
			SenderID:   "u1",
			SenderName: "alice",
			Text:       "burst " + strconv.Itoa(i),
		})
		require.NoError(err)
		want[msg.ID] = false
	}

	cursor := ""
	for {
		resp, err := env.history.GetHistory(context.Background(), "r1", "u2", cursor, 1)
		require.NoError(err)
		for _, m := range resp.Messages {
			seen, ok := want[m.ID]
			require.True(ok)
			require.False(seen, "message %s returned twice", m.ID)
			want[m.ID] = true
		}
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	for id, seen := range want {
		require.True(seen, "message %s never returned", id)
	}
}

func TestGetHistoryCursorIsOldestTimestampOfPage(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.seedMessages(t, "r1", "u1", "m0", "m1", "m2")

	resp, err := env.history.GetHistory(context.Background(), "r1", "u2", "", 2)
	require.NoError(err)
	require.True(resp.HasMore)

	wantCursor := strconv.FormatInt(resp.Messages[0].CreatedAt.UnixMilli(), 10)
	require.Equal(wantCursor, resp.NextCursor)
}

func TestGetHistoryInvalidCursorFallsBackToLatest(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.seedMessages(t, "r1", "u1", "m0", "m1")

	latest, err := env.history.GetHistory(context.Background(), "r1", "u2", "", 0)
	require.NoError(err)

	garbled, err := env.history.GetHistory(context.Background(), "r1", "u2", "yesterday", 0)
	require.NoError(err)
	require.Equal(latest.Messages, garbled.Messages)
}

func TestGetHistoryDefaultLimit(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = "m" + strconv.Itoa(i)
	}
	env.seedMessages(t, "r1", "u1", texts...)

	resp, err := env.history.GetHistory(context.Background(), "r1", "u2", "", 0)
	require.NoError(err)
	require.Len(resp.Messages, 20)
	require.True(resp.HasMore)
}

func TestGetHistoryEmptyRoom(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	resp, err := env.history.GetHistory(context.Background(), "quiet-room", "u1", "", 0)
	require.NoError(err)
	require.Empty(resp.Messages)
	require.False(resp.HasMore)
	require.Empty(resp.NextCursor)
}

func TestGetHistoryValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.history.GetHistory(context.Background(), "", "u1", "", 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetHistoryCursoredPageIsCached(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	env.seedMessages(t, "r1", "u1", "m0", "m1", "m2")

	first, err := env.history.GetHistory(context.Background(), "r1", "u2", "", 2)
	require.NoError(err)
	require.True(first.HasMore)

	page2, err := env.history.GetHistory(context.Background(), "r1", "u2", first.NextCursor, 2)
	require.NoError(err)
	require.Len(page2.Messages, 1)

	// The cursored page lands in the cache shortly after the response.
	millis, err := strconv.ParseInt(first.NextCursor, 10, 64)
	require.NoError(err)
	key := env.cache.BuildKey("r1", "u2", time.UnixMilli(millis).UnixMilli(), 2)
	require.Eventually(func() bool {
		_, err := env.cache.Get(context.Background(), key)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}
