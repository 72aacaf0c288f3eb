package database

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 100
	MaxMessageLength    = 2000
)

// ClampMessageLimit maps a requested page size onto [1, MaxMessageLimit],
// falling back to the default for non-positive values.
func ClampMessageLimit(limit int) int {
	if limit <= 0 {
		return DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		return MaxMessageLimit
	}
	return limit
}

// AppendMessage stores a chat message and returns it with its author loaded.
func (d *Database) AppendMessage(ctx context.Context, roomID, userID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, apperrors.Validation("content is too long")
	}

	message := &models.Message{
		RoomID:  roomID,
		UserID:  userID,
		Content: content,
	}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Room{}).Where("id = ?", roomID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.NotFound("room")
		}
		return tx.Create(message).Error
	})
	if err != nil {
		return nil, err
	}

	if err := d.db.WithContext(ctx).Preload("User").First(message, "id = ?", message.ID).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// RecentMessages returns up to limit messages of a room in chronological
// order. With before set, only messages older than that message are returned.
func (d *Database) RecentMessages(ctx context.Context, roomID uuid.UUID, limit int, before *uuid.UUID) ([]models.Message, error) {
	limit = ClampMessageLimit(limit)

	query := d.db.WithContext(ctx).Where("room_id = ?", roomID)
	if before != nil {
		var cursor models.Message
		if err := d.db.WithContext(ctx).First(&cursor, "id = ? AND room_id = ?", *before, roomID).Error; err != nil {
			return nil, notFound(err, "message")
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var messages []models.Message
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
