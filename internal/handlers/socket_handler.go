package handlers

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/websocket"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

// SocketMessageHandler handles room membership frames from websocket
// clients. Chat messages are posted over HTTP, not over the socket.
type SocketMessageHandler struct {
	db  *database.Database
	hub *websocket.Hub
	log *zap.Logger
}

func NewSocketMessageHandler(db *database.Database, hub *websocket.Hub, log *zap.Logger) *SocketMessageHandler {
	return &SocketMessageHandler{db: db, hub: hub, log: log}
}

func (h *SocketMessageHandler) HandleMessage(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeJoinRoom:
		return h.join(ctx, client, msg)
	case websocket.TypeLeaveRoom:
		return h.leave(ctx, client, msg)
	default:
		return websocket.ErrUnsupportedType
	}
}

func (h *SocketMessageHandler) join(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == "" {
		return websocket.ErrInvalidMessage
	}

	var payload websocket.JoinPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return websocket.ErrInvalidMessage
		}
	}

	key, room, err := resolveRoomKey(ctx, h.db, msg.RoomID)
	if err != nil {
		return apperrors.From(err)
	}
	if room != nil {
		if err := checkRoomKey(room, payload.Key); err != nil {
			return err
		}
	}

	h.hub.Join(client, key)
	if room == nil {
		// The name may have been created with a key while this join was in
		// flight, after the creator's eviction ran.
		if created, err := h.db.GetRoom(ctx, key); err == nil {
			if err := checkRoomKey(created, payload.Key); err != nil {
				h.hub.Leave(client, key)
				return err
			}
		}
	}
	h.log.Debug("client joined room",
		zap.String("room", key), zap.String("user_id", client.UserID.String()))
	return nil
}

func (h *SocketMessageHandler) leave(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == "" {
		return websocket.ErrInvalidMessage
	}

	key, _, err := resolveRoomKey(ctx, h.db, msg.RoomID)
	if err != nil {
		return apperrors.From(err)
	}
	h.hub.Leave(client, key)
	return nil
}
