package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

// SaveUser inserts a new account. The pre-check gives a clean error in the
// common case; the unique indexes close the race between check and insert.
func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", user.Email, user.Username).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrDuplicateIdentity
	}

	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (d *Database) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// notFound maps gorm's record-not-found to a NotFound app error and passes
// everything else through.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return err
}
