package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/thereayou/streamhub/internal/models"
)

// MessagePayload is the body of POST /chat/rooms/:id/messages.
type MessagePayload struct {
	Content string `json:"content"`
}

// MessageResponse is returned over HTTP and pushed over websocket as the
// data of a "message" frame.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	RoomName  string    `json:"room_name"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      UserInfo  `json:"user"`
}

func NewMessageResponse(m *models.Message, roomName string) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		RoomName:  roomName,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		User:      NewUserInfo(m.User),
	}
}

func NewMessageResponses(messages []models.Message, roomName string) []MessageResponse {
	return lo.Map(messages, func(m models.Message, _ int) MessageResponse {
		return NewMessageResponse(&m, roomName)
	})
}
