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

const MaxCommentLength = 2000

func (d *Database) CreateComment(ctx context.Context, videoID, userID uuid.UUID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperrors.Validation("content is too long")
	}

	comment := &models.Comment{
		Content: content,
		UserID:  userID,
		VideoID: videoID,
	}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.videoExists(tx, videoID); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, err
	}

	if err := d.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a video's comments, newest first.
func (d *Database) ListComments(ctx context.Context, videoID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := d.db.WithContext(ctx).
		Preload("User").
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
