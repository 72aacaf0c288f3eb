package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/handlers/dto"
	"github.com/thereayou/streamhub/internal/metrics"
	"github.com/thereayou/streamhub/internal/middleware"
	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/internal/websocket"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

type HTTPMessageHandler struct {
	db  *database.Database
	hub *websocket.Hub
	log *zap.Logger
}

func NewHTTPMessageHandler(db *database.Database, hub *websocket.Hub, log *zap.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{db: db, hub: hub, log: log}
}

// GetRoomMessages returns the most recent messages of a room, oldest first.
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	room, err := h.db.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := checkRoomKey(room, c.GetHeader(RoomKeyHeader)); err != nil {
		_ = c.Error(err)
		return
	}

	limit, err := intQuery(c, "limit")
	if err != nil {
		_ = c.Error(err)
		return
	}
	before, err := uuidQuery(c, "before")
	if err != nil {
		_ = c.Error(err)
		return
	}

	messages, err := h.db.RecentMessages(c.Request.Context(), room.ID, limit, before)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessageResponses(messages, room.Name))
}

// SendMessage persists a message, then pushes it to the room's websocket
// members. A room named for the first time is created here. Nothing is
// broadcast unless the message was stored.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	var req dto.MessagePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	room, err := h.roomForPost(c, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := checkRoomKey(room, c.GetHeader(RoomKeyHeader)); err != nil {
		_ = c.Error(err)
		return
	}

	message, err := h.db.AppendMessage(ctx, room.ID, userID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	metrics.MessagesPosted.Inc()

	response := dto.NewMessageResponse(message, room.Name)
	frame, err := websocket.EncodeFrame(websocket.TypeMessage, room.Name, userID, response)
	if err != nil {
		h.log.Error("encode message frame", zap.Error(err))
	} else {
		h.hub.SendToRoom(ctx, room.Name, frame)
	}

	c.JSON(http.StatusCreated, response)
}

func (h *HTTPMessageHandler) roomForPost(c *gin.Context, userID uuid.UUID) (*models.Room, error) {
	ref := c.Param("id")
	room, err := h.db.GetRoom(c.Request.Context(), ref)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	// an unknown id stays unknown; only names create rooms
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		return nil, err
	}

	room, created, err := h.db.EnsureRoom(c.Request.Context(), ref, "", &userID)
	if err != nil {
		return nil, err
	}
	if created {
		h.log.Info("room created on first message",
			zap.String("room", room.Name), zap.String("user_id", userID.String()))
	}
	return room, nil
}
