package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/handlers/dto"
	"github.com/thereayou/streamhub/internal/middleware"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

type CommentHandler struct {
	db *database.Database
}

func NewCommentHandler(db *database.Database) *CommentHandler {
	return &CommentHandler{db: db}
}

func (h *CommentHandler) List(c *gin.Context) {
	videoID, err := videoIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	comments, err := h.db.ListComments(c.Request.Context(), videoID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCommentResponses(comments))
}

func (h *CommentHandler) Create(c *gin.Context) {
	videoID, err := videoIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	comment, err := h.db.CreateComment(c.Request.Context(), videoID, middleware.UserID(c), req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCommentResponse(comment))
}
