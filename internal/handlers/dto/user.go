package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/streamhub/internal/models"
)

// UserResponse is the only shape a user leaves the API in. It has no
// password field, so a hash cannot be serialized by accident.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatar_url"`
	Role       string    `json:"role"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserInfo is the public author summary embedded in videos, comments and messages.
type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		AvatarURL:  u.AvatarURL,
		Role:       u.Role,
		LastSeenAt: u.LastSeenAt,
		CreatedAt:  u.CreatedAt,
	}
}

func NewUserInfo(u models.User) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}
