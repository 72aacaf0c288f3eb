package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/thereayou/streamhub/internal/models"
)

type CreateVideoRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	VideoURL     string   `json:"video_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
}

type VideoResponse struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Tags         []string    `json:"tags"`
	VideoURL     string      `json:"video_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Views        int64       `json:"views"`
	Likes        []uuid.UUID `json:"likes"`
	Dislikes     []uuid.UUID `json:"dislikes"`
	LikeCount    int         `json:"like_count"`
	DislikeCount int         `json:"dislike_count"`
	User         UserInfo    `json:"user"`
	CreatedAt    time.Time   `json:"created_at"`
}

func NewVideoResponse(v *models.Video) VideoResponse {
	userIDsOf := func(kind models.ReactionKind) []uuid.UUID {
		return lo.FilterMap(v.Reactions, func(r models.VideoReaction, _ int) (uuid.UUID, bool) {
			return r.UserID, r.Kind == kind
		})
	}
	likes := userIDsOf(models.ReactionLike)
	dislikes := userIDsOf(models.ReactionDislike)

	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	return VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Tags:         tags,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		Views:        v.Views,
		Likes:        likes,
		Dislikes:     dislikes,
		LikeCount:    len(likes),
		DislikeCount: len(dislikes),
		User:         NewUserInfo(v.User),
		CreatedAt:    v.CreatedAt,
	}
}

func NewVideoResponses(videos []models.Video) []VideoResponse {
	return lo.Map(videos, func(v models.Video, _ int) VideoResponse {
		return NewVideoResponse(&v)
	})
}

type UploadURLRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type UploadURLResponse struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Key       string            `json:"key"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
}
