package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

const (
	DefaultVideoPageSize = 20
	MaxVideoPageSize     = 100
)

// VideoFilter narrows ListVideos. Zero values mean "no filter".
type VideoFilter struct {
	Query  string
	Tag    string
	UserID *uuid.UUID
	Page   int
	Limit  int
}

func (f VideoFilter) normalized() VideoFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultVideoPageSize
	}
	if f.Limit > MaxVideoPageSize {
		f.Limit = MaxVideoPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
	f.Tag = strings.ToLower(strings.TrimSpace(f.Tag))
	return f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (d *Database) CreateVideo(ctx context.Context, video *models.Video) error {
	if err := d.db.WithContext(ctx).Create(video).Error; err != nil {
		return err
	}
	return d.db.WithContext(ctx).Preload("User").First(video, "id = ?", video.ID).Error
}

// GetVideo loads a video with its owner and reactions.
func (d *Database) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	err := d.withVideoRelations(d.db.WithContext(ctx)).First(&video, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "video")
	}
	return &video, nil
}

// RecordView bumps the view counter in place and returns the updated video.
// Every call counts; repeat viewers are not deduplicated.
func (d *Database) RecordView(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	res := d.db.WithContext(ctx).Model(&models.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("video")
	}
	return d.GetVideo(ctx, id)
}

func (d *Database) ListVideos(ctx context.Context, filter VideoFilter) ([]models.Video, error) {
	filter = filter.normalized()

	query := d.withVideoRelations(d.db.WithContext(ctx).Model(&models.Video{}))
	if filter.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	if filter.Tag != "" {
		// tags are stored as a JSON array of strings
		query = query.Where(`tags LIKE ? ESCAPE '\'`, `%"`+escapeLike(filter.Tag)+`"%`)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var videos []models.Video
	err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&videos).Error
	return videos, err
}

// LikedVideos lists the videos userID currently likes, most recently liked first.
func (d *Database) LikedVideos(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	var videos []models.Video
	err := d.withVideoRelations(d.db.WithContext(ctx).Model(&models.Video{})).
		Joins("JOIN video_reactions vr ON vr.video_id = videos.id").
		Where("vr.user_id = ? AND vr.kind = ?", userID, models.ReactionLike).
		Order("vr.created_at DESC").
		Find(&videos).Error
	return videos, err
}

func (d *Database) videoExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Video{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NotFound("video")
	}
	return nil
}

func (d *Database) withVideoRelations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User").Preload("Reactions")
}
