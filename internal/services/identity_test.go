package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
	"github.com/thereayou/streamhub/pkg/auth"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[uuid.UUID]*models.User{}}
}

func (s *memoryStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperrors.ErrDuplicateIdentity
		}
	}
	user.ID = uuid.New()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	clone := *u
	return &clone, nil
}

func (s *memoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (s *memoryStore) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperrors.NotFound("user")
	}
	u.LastSeenAt = time.Now()
	return nil
}

func newTestIdentity(t *testing.T, blacklist auth.Blacklist) (*IdentityService, *auth.JWTManager) {
	t.Helper()
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	return NewIdentityService(newMemoryStore(), tokens, blacklist, zap.NewNop()), tokens
}

func TestRegister(t *testing.T) {
	svc, tokens := newTestIdentity(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Username: " alice ", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, DefaultAvatarURL("alice"), res.User.AvatarURL)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	userID, err := tokens.VerifyUserID(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateIdentity)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestIdentity(t, nil)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "ab@example.com", Password: "secret1"}},
		{"bad email", RegisterRequest{Username: "abc", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterRequest{Username: "abc", Email: "abc@example.com", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestVerify(t *testing.T) {
	svc, _ := newTestIdentity(t, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password"})
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "BOB@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "bob", res.User.Username)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Verify(ctx, "bob@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Verify(ctx, "nobody@example.com", "password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _ := newTestIdentity(t, auth.NewRedisBlacklist(client))
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "password"})
	require.NoError(t, err)

	userID, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	require.NoError(t, svc.Logout(ctx, res.Token))

	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	svc, _ := newTestIdentity(t, nil)
	_, err := svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
