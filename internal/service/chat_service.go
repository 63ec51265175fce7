package service

import (
	"context"
	"errors"

	"github.com/MyMonsterVR/location-app-school-backend/internal/audit"
	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/hub"
	"github.com/MyMonsterVR/location-app-school-backend/internal/notify"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

// joinHistorySize is the fixed page pushed to a connection on join.
const joinHistorySize = 6

type chatService struct {
	hub      *hub.Hub
	messages repository.MessageRepository
	rooms    repository.RoomRepository
	pusher   notify.Pusher
}

func NewChatService(
	h *hub.Hub,
	messages repository.MessageRepository,
	rooms repository.RoomRepository,
	pusher notify.Pusher,
) ChatService {
	return &chatService{
		hub:      h,
		messages: messages,
		rooms:    rooms,
		pusher:   pusher,
	}
}

func (s *chatService) SendMessage(ctx context.Context, in SendInput) (*domain.Message, error) {
	l := log.Ctx(ctx)

	if in.RoomID == "" {
		return nil, validationError("room id is required")
	}
	if in.SenderID == "" {
		return nil, validationError("sender id is required")
	}
	if in.Text == "" {
		return nil, validationError("text is required")
	}
	if in.RoomKind != "" {
		kind, ok := domain.ParseRoomKind(in.RoomKind)
		if !ok {
			return nil, validationError("unknown room type: " + in.RoomKind)
		}
		switch kind {
		case domain.RoomKindDirect:
			if len(in.Participants) != 2 {
				return nil, validationError("direct rooms require exactly two participants")
			}
		case domain.RoomKindGroup:
			if len(in.Participants) < 2 {
				return nil, validationError("group rooms require at least two participants")
			}
		}
		s.ensureRoom(ctx, in, kind)
	}

	msg := &domain.Message{
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		RoomID:     in.RoomID,
		Text:       in.Text,
		Kind:       in.Kind,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	// Fan out only after the write completed; the sender's own connections
	// are skipped on every device.
	if err := s.hub.Broadcast(in.RoomID, domain.NewMessageOut(msg), in.SenderID); err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, in.RoomID).Msg("message broadcast failed")
	}

	s.notifyOffline(ctx, msg)

	audit.LogWithDetail(ctx, audit.ActionSendMessage, in.SenderID, msg.ID, "message sent")
	return msg, nil
}

// ensureRoom creates the directory record for a room first seen on the send
// path. Directory trouble never blocks the message itself.
func (s *chatService) ensureRoom(ctx context.Context, in SendInput, kind domain.RoomKind) {
	_, err := s.rooms.GetByID(ctx, in.RoomID)
	if err == nil {
		return
	}
	if !errors.Is(err, repository.ErrRoomNotFound) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, in.RoomID).Msg("room lookup failed on send")
		return
	}

	room := &domain.Room{
		ID:           in.RoomID,
		Kind:         kind,
		Participants: in.Participants,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, in.RoomID).Msg("room create failed on send")
	}
}

// notifyOffline pushes to room participants without a live connection.
// Best effort: a missing room record just means nobody to notify.
func (s *chatService) notifyOffline(ctx context.Context, msg *domain.Message) {
	room, err := s.rooms.GetByID(ctx, msg.RoomID)
	if err != nil {
		return
	}
	for _, userID := range room.Participants {
		if userID == msg.SenderID {
			continue
		}
		if len(s.hub.ClientsFor(userID)) > 0 {
			continue
		}
		s.pusher.Push(ctx, userID, msg.Text)
	}
}

func (s *chatService) MarkRead(ctx context.Context, messageID, userID, roomID string) error {
	l := log.Ctx(ctx)

	if messageID == "" || userID == "" || roomID == "" {
		return validationError("messageId, userId and roomId are required")
	}

	_, appended, err := s.messages.MarkRead(ctx, messageID, userID)
	if err != nil {
		return err
	}

	// Read frames go to the whole room, the reader's own connections
	// included, even when the receipt was already recorded.
	readOut := &domain.ReadOut{
		Type:      domain.FrameRead,
		MessageID: messageID,
		UserID:    userID,
	}
	if err := s.hub.Broadcast(roomID, readOut, ""); err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("read broadcast failed")
	}

	if appended {
		audit.LogWithDetail(ctx, audit.ActionMarkRead, userID, messageID, "message marked read")
	}
	return nil
}

func (s *chatService) JoinRoom(ctx context.Context, client *hub.Client, roomID, userID, username string) error {
	l := log.Ctx(ctx)

	if roomID == "" || userID == "" {
		return validationError("room and userId are required")
	}

	s.hub.Join(client, roomID, userID, username)
	audit.LogWithDetail(ctx, audit.ActionJoinRoom, userID, roomID, "joined room")

	messages, _, err := s.messages.ListBefore(ctx, roomID, nil, joinHistorySize)
	if err != nil {
		// The join itself already happened; history is best effort here.
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to load join history")
		return err
	}

	return client.SendMessage(&domain.HistoryFrame{
		Type:     domain.FrameHistory,
		Messages: ascendingViews(messages, userID),
	})
}

// ascendingViews reverses a newest-first page into chronological order and
// annotates each message for the viewer. Clients render top-to-bottom
// oldest-first.
func ascendingViews(messages []domain.Message, viewerID string) []domain.MessageView {
	views := make([]domain.MessageView, len(messages))
	for i := range messages {
		views[len(messages)-1-i] = messages[i].ViewFor(viewerID)
	}
	return views
}
