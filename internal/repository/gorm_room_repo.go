package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM-based room repository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// Create creates a new room.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	l := log.Ctx(ctx)

	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	model := domain.RoomToModel(room)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Msg("failed to create room in db")
		return result.Error
	}

	room.CreatedAt = model.CreatedAt
	room.UpdatedAt = model.UpdatedAt
	l.Debug().Str(log.FieldRoomID, room.ID).Msg("room created in db")
	return nil
}

// GetByID retrieves a room by ID.
func (r *GormRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	var model domain.RoomModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldRoomID, id).Msg("failed to get room by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// AddParticipant adds userID to the room's participant set.
func (r *GormRoomRepository) AddParticipant(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	var model domain.RoomModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", roomID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to load room for participant add")
		return nil, result.Error
	}

	for _, id := range model.Participants {
		if id == userID {
			return model.ToDomain(), nil
		}
	}

	model.Participants = append(model.Participants, userID)
	if err := r.db.WithContext(ctx).Model(&model).
		Update("participants", database.StringArray(model.Participants)).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to persist participant add")
		return nil, err
	}

	l.Debug().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldUserID, userID).
		Msg("participant added to room")
	return model.ToDomain(), nil
}

// RemoveUserFromAll strips the identity from every room's participant set.
// Live connections are untouched; closing them is the identity's own
// termination path.
func (r *GormRoomRepository) RemoveUserFromAll(ctx context.Context, userID string) (int, error) {
	l := log.Ctx(ctx)

	var models []domain.RoomModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to scan rooms for user removal")
		return 0, err
	}

	touched := 0
	for i := range models {
		kept := models[i].Participants[:0]
		removed := false
		for _, id := range models[i].Participants {
			if id == userID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		if !removed {
			continue
		}

		if err := r.db.WithContext(ctx).Model(&models[i]).
			Update("participants", database.StringArray(kept)).Error; err != nil {
			l.Error().Err(err).Str(log.FieldRoomID, models[i].ID).Msg("failed to remove user from room")
			return touched, err
		}
		touched++
	}

	l.Debug().Str(log.FieldUserID, userID).Int("rooms", touched).Msg("user removed from rooms")
	return touched, nil
}
