package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MyMonsterVR/location-app-school-backend/internal/domain"
	"github.com/MyMonsterVR/location-app-school-backend/pkg/database"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.MessageModel{}, &domain.RoomModel{}))
	return db
}

// setCreatedAt pins a message's creation timestamp so ordering tests do not
// depend on insertion timing.
func setCreatedAt(t *testing.T, db *gorm.DB, messageID string, ts time.Time) {
	t.Helper()

	err := db.Model(&domain.MessageModel{}).
		Where("id = ?", messageID).
		Update("created_at", ts).Error
	require.NoError(t, err)
}
