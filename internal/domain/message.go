package domain

import (
	"time"

	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
)

// DefaultMessageKind is used when a send request does not name a kind.
const DefaultMessageKind = "text"

// Message is a persisted chat message. The core fields are immutable once
// written; ReadBy is the only mutable field and only ever grows.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	RoomID     string    `json:"roomId"`
	Text       string    `json:"text"`
	Kind       string    `json:"messageType"`
	ReadBy     []string  `json:"readBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ReadByUser reports whether the given viewer has marked this message read.
// Derived on demand, never stored per viewer.
func (m *Message) ReadByUser(viewerID string) bool {
	for _, id := range m.ReadBy {
		if id == viewerID {
			return true
		}
	}
	return false
}

// MessageView is a Message annotated for one specific viewer.
type MessageView struct {
	Message
	ReadByUser bool `json:"readByUser"`
}

// ViewFor annotates the message for a viewer.
func (m Message) ViewFor(viewerID string) MessageView {
	return MessageView{Message: m, ReadByUser: m.ReadByUser(viewerID)}
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID         string               `gorm:"type:varchar(36);primaryKey"`
	SenderID   string               `gorm:"type:varchar(64);index;not null"`
	SenderName string               `gorm:"type:varchar(100);not null"`
	RoomID     string               `gorm:"type:varchar(64);index:idx_messages_room_created,priority:1;not null"`
	Text       string               `gorm:"type:text;not null"`
	Kind       string               `gorm:"type:varchar(20);not null;default:'text'"`
	ReadBy     database.StringArray `gorm:"type:text"`
	CreatedAt  time.Time            `gorm:"index:idx_messages_room_created,priority:2;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		RoomID:     m.RoomID,
		Text:       m.Text,
		Kind:       m.Kind,
		ReadBy:     []string(m.ReadBy),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// MessageToModel converts domain Message to MessageModel.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		RoomID:     msg.RoomID,
		Text:       msg.Text,
		Kind:       msg.Kind,
		ReadBy:     database.StringArray(msg.ReadBy),
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}
