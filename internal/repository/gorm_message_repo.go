package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB

	mu          sync.Mutex
	lastCreated map[string]time.Time
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{
		db:          db,
		lastCreated: make(map[string]time.Time),
	}
}

// nextTimestamp assigns a creation timestamp at millisecond precision,
// strictly increasing per room. Millisecond granularity matches the history
// cursor, and strict monotonicity keeps a cursor walk a clean partition even
// for sends landing within the same millisecond.
func (r *GormMessageRepository) nextTimestamp(roomID string) time.Time {
	now := time.Now().UTC().Truncate(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.lastCreated[roomID]; ok && !now.After(last) {
		now = last.Add(time.Millisecond)
	}
	r.lastCreated[roomID] = now
	return now
}

// Create persists a new message. Inserts for one room complete in timestamp
// order because they all pass through this single store.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	msg.ID = uuid.New().String()
	msg.ReadBy = []string{}
	if msg.Kind == "" {
		msg.Kind = domain.DefaultMessageKind
	}

	ts := r.nextTimestamp(msg.RoomID)
	msg.CreatedAt = ts
	msg.UpdatedAt = ts

	model := domain.MessageToModel(msg)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, msg.RoomID).Msg("failed to create message in db")
		return result.Error
	}

	l.Debug().Str(log.FieldMessageID, msg.ID).Str(log.FieldRoomID, msg.RoomID).Msg("message created in db")
	return nil
}

// GetByID retrieves a message by ID.
func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldMessageID, id).Msg("failed to get message by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// MarkRead appends userID to the read set unless already present.
func (r *GormMessageRepository) MarkRead(ctx context.Context, messageID, userID string) (*domain.Message, bool, error) {
	l := log.Ctx(ctx)

	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", messageID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, ErrMessageNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldMessageID, messageID).Msg("failed to load message for read receipt")
		return nil, false, result.Error
	}

	for _, id := range model.ReadBy {
		if id == userID {
			return model.ToDomain(), false, nil
		}
	}

	model.ReadBy = append(model.ReadBy, userID)
	if err := r.db.WithContext(ctx).Model(&model).
		Update("read_by", database.StringArray(model.ReadBy)).Error; err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, messageID).Msg("failed to persist read receipt")
		return nil, false, err
	}

	l.Debug().
		Str(log.FieldMessageID, messageID).
		Str(log.FieldUserID, userID).
		Msg("read receipt recorded")
	return model.ToDomain(), true, nil
}

// ListBefore returns the newest-first page of room messages. It probes
// limit+1 rows to learn whether older messages remain.
func (r *GormMessageRepository) ListBefore(ctx context.Context, roomID string, before *time.Time, limit int) ([]domain.Message, bool, error) {
	l := log.Ctx(ctx)

	query := r.db.WithContext(ctx).
		Model(&domain.MessageModel{}).
		Where("room_id = ?", roomID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var models []domain.MessageModel
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&models).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to list messages")
		return nil, false, err
	}

	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}

	messages := make([]domain.Message, len(models))
	for i := range models {
		messages[i] = *models[i].ToDomain()
	}
	return messages, hasMore, nil
}
