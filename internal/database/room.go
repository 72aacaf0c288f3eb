package database

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

const MaxRoomNameLength = 64

// NormalizeRoomName trims a room name and checks its length.
func NormalizeRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("room name is required")
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return "", apperrors.Validation("room name is too long")
	}
	return name, nil
}

func (d *Database) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.WithContext(ctx).Order("created_at ASC").Find(&rooms).Error
	return rooms, err
}

// GetRoom resolves ref as a room id first and as a room name otherwise.
func (d *Database) GetRoom(ctx context.Context, ref string) (*models.Room, error) {
	var room models.Room
	if id, err := uuid.Parse(ref); err == nil {
		err := d.db.WithContext(ctx).First(&room, "id = ?", id).Error
		if err == nil {
			return &room, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	name, err := NormalizeRoomName(ref)
	if err != nil {
		return nil, apperrors.NotFound("room")
	}
	if err := d.db.WithContext(ctx).First(&room, "name = ?", name).Error; err != nil {
		return nil, notFound(err, "room")
	}
	return &room, nil
}

// EnsureRoom returns the room called name, creating it if needed. Concurrent
// callers converge on a single row through the unique name index; created
// reports whether this call inserted it. The secret only applies on creation.
func (d *Database) EnsureRoom(ctx context.Context, name, secretHash string, createdBy *uuid.UUID) (*models.Room, bool, error) {
	name, err := NormalizeRoomName(name)
	if err != nil {
		return nil, false, err
	}

	candidate := models.Room{
		Name:       name,
		SecretHash: secretHash,
		CreatedBy:  createdBy,
	}
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var room models.Room
	if err := d.db.WithContext(ctx).First(&room, "name = ?", name).Error; err != nil {
		return nil, false, err
	}
	return &room, res.RowsAffected == 1, nil
}
