package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

// React toggles userID's reaction of the given kind on a video.
//
// If the user already holds that reaction it is removed. Otherwise the row is
// upserted, which both adds the reaction and replaces an opposite one. Neither
// step reads before writing, and the (video_id, user_id) primary key makes a
// duplicate entry impossible under concurrent calls.
func (d *Database) React(ctx context.Context, videoID, userID uuid.UUID, kind models.ReactionKind) (*models.Video, error) {
	if !kind.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown reaction %q", kind))
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.videoExists(tx, videoID); err != nil {
			return err
		}

		removed := tx.
			Where("video_id = ? AND user_id = ? AND kind = ?", videoID, userID, kind).
			Delete(&models.VideoReaction{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			return nil
		}

		reaction := models.VideoReaction{
			VideoID:   videoID,
			UserID:    userID,
			Kind:      kind,
			CreatedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "created_at"}),
		}).Create(&reaction).Error
	})
	if err != nil {
		return nil, err
	}

	return d.GetVideo(ctx, videoID)
}
