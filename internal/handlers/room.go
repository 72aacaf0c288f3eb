package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/handlers/dto"
	"github.com/thereayou/streamhub/internal/middleware"
	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/internal/websocket"
	"github.com/thereayou/streamhub/pkg/apperrors"
	"github.com/thereayou/streamhub/pkg/auth"
)

const (
	RoomKeyHeader = "X-Room-Key"

	// bcrypt ignores input past 72 bytes and rejects it outright.
	maxRoomKeyBytes = 72

	roomLockedReason = "room now requires a key"
)

type RoomHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewRoomHandler(db *database.Database, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{db: db, hub: hub}
}

// List returns every room with the users currently connected to it.
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.db.ListRooms(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(rooms, func(r models.Room, _ int) dto.RoomResponse {
		return dto.NewRoomResponse(&r, h.hub.RoomUsers(r.Name))
	}))
}

// Create is get-or-create by name: 201 when this call made the room, 200
// when it already existed.
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("invalid request body"))
		return
	}

	var secretHash string
	if key := strings.TrimSpace(req.Key); key != "" {
		if len(key) > maxRoomKeyBytes {
			_ = c.Error(apperrors.Validation("room key must be at most 72 bytes"))
			return
		}
		hash, err := auth.HashPassword(key)
		if err != nil {
			_ = c.Error(apperrors.Internal(err))
			return
		}
		secretHash = hash
	}

	creator := middleware.UserID(c)
	room, created, err := h.db.EnsureRoom(c.Request.Context(), req.Name, secretHash, &creator)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		// Clients may have joined the name before it existed; they never
		// presented the key.
		if room.HasSecret() {
			h.hub.EvictRoom(c.Request.Context(), room.Name, roomLockedReason)
		}
	}
	c.JSON(status, dto.NewRoomResponse(room, h.hub.RoomUsers(room.Name)))
}

func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.db.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room, h.hub.RoomUsers(room.Name)))
}

// checkRoomKey enforces a room's access secret. Rooms without one are open.
func checkRoomKey(room *models.Room, key string) error {
	if !room.HasSecret() {
		return nil
	}
	if key == "" || !auth.ComparePassword(room.SecretHash, key) {
		return apperrors.Forbidden("room key mismatch")
	}
	return nil
}

// resolveRoomKey maps a client's room reference to the hub key. Known rooms
// resolve to their name; an unknown reference is used as a name as-is, so
// clients can wait in a room before its first message creates it.
func resolveRoomKey(ctx context.Context, db *database.Database, ref string) (string, *models.Room, error) {
	room, err := db.GetRoom(ctx, ref)
	if err == nil {
		return room.Name, room, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", nil, err
	}
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		return "", nil, err
	}
	name, err := database.NormalizeRoomName(ref)
	if err != nil {
		return "", nil, err
	}
	return name, nil, nil
}
