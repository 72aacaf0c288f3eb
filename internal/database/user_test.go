package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
)

func TestSaveUser_Duplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice")

	tests := []struct {
		name string
		user models.User
	}{
		{"same email", models.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"}},
		{"same username", models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			err := db.SaveUser(ctx, &user)
			assert.ErrorIs(t, err, apperrors.ErrDuplicateIdentity)
		})
	}
}

func TestSaveUser_AssignsDefaults(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "bob")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	found, err := db.FindUserByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = db.UpdateLastSeen(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
