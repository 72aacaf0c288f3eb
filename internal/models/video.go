package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

type Video struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string    `gorm:"not null"`
	Description  string
	Tags         []string  `gorm:"serializer:json"`
	VideoURL     string    `gorm:"not null"`
	ThumbnailURL string    `gorm:"not null"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Views        int64     `gorm:"not null;default:0;check:views >= 0"`
	CreatedAt    time.Time `gorm:"index"`

	User      User            `gorm:"foreignKey:UserID"`
	Reactions []VideoReaction `gorm:"foreignKey:VideoID"`
}

func (v *Video) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VideoReaction holds at most one reaction per user per video: the composite
// primary key is what keeps the like and dislike sets disjoint.
type VideoReaction struct {
	VideoID   uuid.UUID    `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID    `gorm:"type:uuid;primaryKey;index"`
	Kind      ReactionKind `gorm:"type:varchar(16);not null;check:kind IN ('like','dislike')"`
	CreatedAt time.Time
}
