package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content   string    `gorm:"not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_video_created,priority:1"`
	CreatedAt time.Time `gorm:"index:idx_comments_video_created,priority:2"`

	User User `gorm:"foreignKey:UserID"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
