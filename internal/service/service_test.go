package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MyMonsterVR/location-app-school-backend/internal/cache"
	"github.com/MyMonsterVR/location-app-school-backend/internal/config"
	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/hub"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
)

// testEnv wires real repositories over sqlite with an in-process hub, the
// same shape the composition root builds in production.
type testEnv struct {
	db       *gorm.DB
	hub      *hub.Hub
	messages *repository.GormMessageRepository
	rooms    *repository.GormRoomRepository
	pusher   *recordingPusher
	chat     ChatService
	history  HistoryService
	roomSvc  RoomService
	cache    *cache.MemoryHistoryCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.MessageModel{}, &domain.RoomModel{}))

	h := hub.NewHub()
	messages := repository.NewGormMessageRepository(db)
	rooms := repository.NewGormRoomRepository(db)
	pusher := &recordingPusher{}
	historyCache := cache.NewMemoryHistoryCache("test:history")

	return &testEnv{
		db:       db,
		hub:      h,
		messages: messages,
		rooms:    rooms,
		pusher:   pusher,
		chat:     NewChatService(h, messages, rooms, pusher),
		history:  NewHistoryService(messages, historyCache, time.Minute),
		roomSvc:  NewRoomService(h, rooms),
		cache:    historyCache,
	}
}

func (e *testEnv) createRoom(t *testing.T, id string, kind domain.RoomKind, participants ...string) {
	t.Helper()

	room := &domain.Room{ID: id, Kind: kind, Participants: participants}
	require.NoError(t, e.rooms.Create(context.Background(), room))
}

// connect builds a live connection bound to the identity and joins it to the
// room, then drains the join history frame so tests start from a clean
// buffer.
func (e *testEnv) connect(t *testing.T, roomID, userID, username string) *hub.Client {
	t.Helper()

	client := hub.NewClient(uuid.New().String(), e.hub, nil, config.WebSocketConfig{})
	require.NoError(t, e.chat.JoinRoom(context.Background(), client, roomID, userID, username))
	drainFrames(t, client)
	return client
}

func drainFrames(t *testing.T, c *hub.Client) []map[string]interface{} {
	t.Helper()

	var frames []map[string]interface{}
	for {
		select {
		case data := <-c.Send:
			var frame map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

// setCreatedAt pins a message timestamp for deterministic ordering.
func (e *testEnv) setCreatedAt(t *testing.T, messageID string, ts time.Time) {
	t.Helper()

	err := e.db.Model(&domain.MessageModel{}).
		Where("id = ?", messageID).
		Update("created_at", ts).Error
	require.NoError(t, err)
}

func (e *testEnv) seedMessages(t *testing.T, roomID, senderID string, texts ...string) []string {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, len(texts))
	for i, text := range texts {
		msg := &domain.Message{
			SenderID:   senderID,
			SenderName: senderID,
			RoomID:     roomID,
			Text:       text,
		}
		require.NoError(t, e.messages.Create(context.Background(), msg))
		e.setCreatedAt(t, msg.ID, base.Add(time.Duration(i)*time.Minute))
		ids[i] = msg.ID
	}
	return ids
}

type pushRecord struct {
	UserID string
	Text   string
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []pushRecord
}

func (p *recordingPusher) Push(_ context.Context, userID, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushRecord{UserID: userID, Text: text})
}

func (p *recordingPusher) recorded() []pushRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushRecord(nil), p.pushes...)
}
