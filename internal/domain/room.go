package domain

import (
	"time"

	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
)

// RoomKind distinguishes two-party chats from group chats.
type RoomKind string

const (
	RoomKindDirect RoomKind = "direct"
	RoomKindGroup  RoomKind = "group"
)

// ParseRoomKind normalizes a wire room kind. The mobile clients still send
// the legacy "single" spelling for direct chats.
func ParseRoomKind(s string) (RoomKind, bool) {
	switch s {
	case "direct", "single":
		return RoomKindDirect, true
	case "group":
		return RoomKindGroup, true
	default:
		return "", false
	}
}

// Room is a durable chat room: its participant set and kind. Participants
// change only through administrative operations, never on the messaging path.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Kind         RoomKind  `json:"kind"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasParticipant reports whether the identity belongs to the room.
func (r *Room) HasParticipant(userID string) bool {
	for _, id := range r.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID           string               `gorm:"type:varchar(64);primaryKey"`
	Name         string               `gorm:"type:varchar(200)"`
	Kind         string               `gorm:"type:varchar(20);not null;default:'direct'"`
	Participants database.StringArray `gorm:"type:text"`
	CreatedAt    time.Time            `gorm:"autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for RoomModel.
func (RoomModel) TableName() string {
	return "rooms"
}

// ToDomain converts RoomModel to domain Room.
func (m *RoomModel) ToDomain() *Room {
	return &Room{
		ID:           m.ID,
		Name:         m.Name,
		Kind:         RoomKind(m.Kind),
		Participants: []string(m.Participants),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// RoomToModel converts domain Room to RoomModel.
func RoomToModel(r *Room) *RoomModel {
	return &RoomModel{
		ID:           r.ID,
		Name:         r.Name,
		Kind:         string(r.Kind),
		Participants: database.StringArray(r.Participants),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
