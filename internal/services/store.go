package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/streamhub/internal/models"
)

// UserStore is the persistence the identity service needs.
// *database.Database satisfies it.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}
