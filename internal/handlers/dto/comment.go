package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/thereayou/streamhub/internal/models"
)

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	VideoID   uuid.UUID `json:"video_id"`
	Content   string    `json:"content"`
	User      UserInfo  `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		VideoID:   c.VideoID,
		Content:   c.Content,
		User:      NewUserInfo(c.User),
		CreatedAt: c.CreatedAt,
	}
}

func NewCommentResponses(comments []models.Comment) []CommentResponse {
	return lo.Map(comments, func(c models.Comment, _ int) CommentResponse {
		return NewCommentResponse(&c)
	})
}
