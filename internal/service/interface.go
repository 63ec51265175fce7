package service

import (
	"context"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/hub"
)

// SendInput is the single construction path for a new message; both the
// WebSocket and HTTP send surfaces feed it.
type SendInput struct {
	RoomID       string
	SenderID     string
	SenderName   string
	Text         string
	Kind         string
	RoomKind     string
	Participants []string
}

type ChatService interface {
	// SendMessage validates, persists and fans out a message, excluding the
	// sender identity from the broadcast. Returns the persisted record.
	SendMessage(ctx context.Context, in SendInput) (*domain.Message, error)

	// MarkRead records a read receipt and fans out a read frame to the whole
	// room, reader included.
	MarkRead(ctx context.Context, messageID, userID, roomID string) error

	// JoinRoom registers the connection under the room and pushes the most
	// recent history page directly to it.
	JoinRoom(ctx context.Context, client *hub.Client, roomID, userID, username string) error
}

type HistoryService interface {
	// GetHistory returns one ascending page of room history annotated for
	// the viewer. before is an epoch-millisecond cursor; an unparsable
	// cursor degrades to the most recent page.
	GetHistory(ctx context.Context, roomID, viewerID, before string, limit int) (*domain.HistoryResponse, error)
}

type RoomService interface {
	CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error)

	// AddParticipant updates the room directory and, if the identity holds
	// live connections, registers them into the room and announces the join.
	AddParticipant(ctx context.Context, roomID, userID, username string) (*domain.Room, error)

	// RemoveUser strips the identity from every room's participant set.
	// Live connections are not forcibly closed.
	RemoveUser(ctx context.Context, userID string) (int, error)
}
