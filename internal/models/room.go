package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room names are unique: concurrent creation of the same name converges on
// one row. Active users are not stored here, the websocket hub owns presence.
type Room struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"uniqueIndex;not null"`
	SecretHash string
	CreatedBy  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time

	Messages []Message `gorm:"foreignKey:RoomID"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Room) HasSecret() bool {
	return r.SecretHash != ""
}
