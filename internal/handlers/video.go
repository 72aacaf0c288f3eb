package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/handlers/dto"
	"github.com/thereayou/streamhub/internal/metrics"
	"github.com/thereayou/streamhub/internal/middleware"
	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/internal/storage"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

// Uploader issues direct-upload targets in object storage.
type Uploader interface {
	PresignUpload(ctx context.Context, owner uuid.UUID, fileName, contentType string) (*storage.UploadTarget, error)
}

type VideoHandler struct {
	db       *database.Database
	uploader Uploader
}

// NewVideoHandler builds the handler. uploader may be nil when object
// storage is not configured; upload-url then answers 503.
func NewVideoHandler(db *database.Database, uploader Uploader) *VideoHandler {
	return &VideoHandler{db: db, uploader: uploader}
}

func (h *VideoHandler) List(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		_ = c.Error(err)
		return
	}
	userID, err := uuidQuery(c, "user_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	videos, err := h.db.ListVideos(c.Request.Context(), database.VideoFilter{
		Query:  c.Query("q"),
		Tag:    c.Query("tag"),
		UserID: userID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewVideoResponses(videos))
}

func (h *VideoHandler) Liked(c *gin.Context) {
	videos, err := h.db.LikedVideos(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewVideoResponses(videos))
}

// Get returns a video and counts the fetch as a view.
func (h *VideoHandler) Get(c *gin.Context) {
	id, err := videoIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	video, err := h.db.RecordView(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	metrics.VideoViews.Inc()
	c.JSON(http.StatusOK, dto.NewVideoResponse(video))
}

func (h *VideoHandler) Create(c *gin.Context) {
	var req dto.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	video := &models.Video{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Tags:         normalizeTags(req.Tags),
		VideoURL:     strings.TrimSpace(req.VideoURL),
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		UserID:       middleware.UserID(c),
	}
	switch {
	case video.Title == "":
		_ = c.Error(apperrors.Validation("title is required"))
		return
	case video.VideoURL == "":
		_ = c.Error(apperrors.Validation("video_url is required"))
		return
	case video.ThumbnailURL == "":
		_ = c.Error(apperrors.Validation("thumbnail_url is required"))
		return
	}

	if err := h.db.CreateVideo(c.Request.Context(), video); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewVideoResponse(video))
}

func (h *VideoHandler) UploadURL(c *gin.Context) {
	if h.uploader == nil {
		_ = c.Error(apperrors.Unavailable("object storage is not configured"))
		return
	}

	var req dto.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("file_name and content_type are required"))
		return
	}

	target, err := h.uploader.PresignUpload(c.Request.Context(), middleware.UserID(c), req.FileName, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.UploadURLResponse{
		UploadURL: target.URL,
		Method:    target.Method,
		Key:       target.Key,
		Headers:   target.Headers,
		ExpiresAt: target.ExpiresAt,
	})
}

func (h *VideoHandler) Like(c *gin.Context) {
	h.react(c, models.ReactionLike)
}

func (h *VideoHandler) Dislike(c *gin.Context) {
	h.react(c, models.ReactionDislike)
}

func (h *VideoHandler) react(c *gin.Context, kind models.ReactionKind) {
	id, err := videoIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	video, err := h.db.React(c.Request.Context(), id, middleware.UserID(c), kind)
	if err != nil {
		_ = c.Error(err)
		return
	}
	metrics.Reactions.WithLabelValues(string(kind)).Inc()
	c.JSON(http.StatusOK, dto.NewVideoResponse(video))
}

func normalizeTags(tags []string) []string {
	tags = lo.Map(tags, func(t string, _ int) string { return strings.ToLower(strings.TrimSpace(t)) })
	return lo.Uniq(lo.Compact(tags))
}
