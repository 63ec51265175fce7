package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrRoomNotFound    = errors.New("room not found")
)

// MessageRepository owns persisted Message records.
type MessageRepository interface {
	// Create persists a new message. The repository assigns the id and the
	// creation timestamp; ReadBy starts empty.
	Create(ctx context.Context, msg *domain.Message) error

	// GetByID returns ErrMessageNotFound if no such message exists.
	GetByID(ctx context.Context, id string) (*domain.Message, error)

	// MarkRead appends userID to the message's read set. Idempotent: the
	// second call for the same pair changes nothing. Returns the updated
	// message and whether the set actually grew.
	MarkRead(ctx context.Context, messageID, userID string) (*domain.Message, bool, error)

	// ListBefore returns up to limit messages for the room strictly older
	// than before (or the most recent ones when before is nil), newest
	// first, plus whether older messages remain.
	ListBefore(ctx context.Context, roomID string, before *time.Time, limit int) ([]domain.Message, bool, error)
}

// RoomRepository owns persisted Room records.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)

	// AddParticipant adds userID to the room's participant set; no-op if
	// already present. Returns the updated room.
	AddParticipant(ctx context.Context, roomID, userID string) (*domain.Room, error)

	// RemoveUserFromAll strips the identity from every room it belongs to
	// and returns the number of rooms touched.
	RemoveUserFromAll(ctx context.Context, userID string) (int, error)
}
