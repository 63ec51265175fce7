package service

import (
	"context"
	"fmt"

	"github.com/MyMonsterVR/location-app-school-backend/internal/audit"
	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/internal/hub"
	"github.com/MyMonsterVR/location-app-school-backend/internal/repository"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

type roomService struct {
	hub   *hub.Hub
	rooms repository.RoomRepository
}

func NewRoomService(h *hub.Hub, rooms repository.RoomRepository) RoomService {
	return &roomService{
		hub:   h,
		rooms: rooms,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error) {
	kind, ok := domain.ParseRoomKind(req.Kind)
	if !ok {
		return nil, validationError("unknown room kind: " + req.Kind)
	}
	switch kind {
	case domain.RoomKindDirect:
		if len(req.Participants) != 2 {
			return nil, validationError("direct rooms require exactly two participants")
		}
	case domain.RoomKindGroup:
		if len(req.Participants) < 2 {
			return nil, validationError("group rooms require at least two participants")
		}
	}

	room := &domain.Room{
		Name:         req.Name,
		Kind:         kind,
		Participants: req.Participants,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateRoom, "", room.ID, "room created")
	return room, nil
}

func (s *roomService) AddParticipant(ctx context.Context, roomID, userID, username string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	if userID == "" {
		return nil, validationError("userId is required")
	}

	room, err := s.rooms.AddParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}

	// If the new participant is already connected, pull their connections
	// into the room so they receive traffic immediately.
	displayName := username
	for _, client := range s.hub.ClientsFor(userID) {
		name := username
		if name == "" {
			_, name = client.Identity()
		}
		if displayName == "" {
			displayName = name
		}
		s.hub.Join(client, roomID, userID, name)
	}
	if displayName == "" {
		displayName = userID
	}

	notice := &domain.SystemOut{
		Type:    domain.FrameSystem,
		Message: fmt.Sprintf("%s has joined the chat", displayName),
	}
	if err := s.hub.Broadcast(roomID, notice, ""); err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("join notice broadcast failed")
	}

	audit.LogWithDetail(ctx, audit.ActionAddParticipant, userID, roomID, "participant added")
	return room, nil
}

func (s *roomService) RemoveUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, validationError("userId is required")
	}

	// Directory-only mutation: any live connections stay registered until
	// their own transport teardown.
	touched, err := s.rooms.RemoveUserFromAll(ctx, userID)
	if err != nil {
		return touched, err
	}

	audit.Log(ctx, audit.ActionRemoveUser, userID, "user removed from all rooms")
	return touched, nil
}
