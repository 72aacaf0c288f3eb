package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/streamhub/internal/models"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
	// Key, when set on creation, is required from everyone reading or
	// writing the room. It is ignored if the room already exists.
	Key string `json:"key,omitempty"`
}

type RoomResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Protected   bool        `json:"protected"`
	CreatedBy   *uuid.UUID  `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ActiveUsers []uuid.UUID `json:"active_users"`
}

func NewRoomResponse(r *models.Room, activeUsers []uuid.UUID) RoomResponse {
	if activeUsers == nil {
		activeUsers = []uuid.UUID{}
	}
	return RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Protected:   r.HasSecret(),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		ActiveUsers: activeUsers,
	}
}
