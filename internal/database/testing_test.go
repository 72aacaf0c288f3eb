package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"

	"github.com/thereayou/streamhub/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(sqlite.Open(dsn), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, db.SetPool(1, 1, 0))

	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, db *Database, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, db.SaveUser(context.Background(), user))
	return user
}

func seedVideo(t *testing.T, db *Database, owner *models.User, title string) *models.Video {
	t.Helper()
	video := &models.Video{
		Title:        title,
		VideoURL:     "https://cdn.example.com/" + title + ".mp4",
		ThumbnailURL: "https://cdn.example.com/" + title + ".jpg",
		UserID:       owner.ID,
	}
	require.NoError(t, db.CreateVideo(context.Background(), video))
	return video
}
