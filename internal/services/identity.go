package services

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/models"
	"github.com/thereayou/streamhub/pkg/apperrors"
	"github.com/thereayou/streamhub/pkg/auth"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes

	avatarBaseURL = "https://api.dicebear.com/7.x/avatars/svg?seed="
)

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type AuthResult struct {
	User  *models.User
	Token string
}

type IdentityService struct {
	store     UserStore
	tokens    *auth.JWTManager
	blacklist auth.Blacklist
	log       *zap.Logger
}

func NewIdentityService(store UserStore, tokens *auth.JWTManager, blacklist auth.Blacklist, log *zap.Logger) *IdentityService {
	if blacklist == nil {
		blacklist = auth.NopBlacklist{}
	}
	return &IdentityService{store: store, tokens: tokens, blacklist: blacklist, log: log}
}

// Register creates an account and issues its first token.
func (s *IdentityService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateRegistration(username, email, req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    DefaultAvatarURL(username),
		LastSeenAt:   time.Now(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Token: token}, nil
}

// Verify checks credentials. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *IdentityService) Verify(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		auth.CompareDummy(password)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.store.UpdateLastSeen(ctx, user.ID); err != nil {
		s.log.Warn("update last seen failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *IdentityService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// Authenticate resolves a raw bearer token to a user id, rejecting revoked tokens.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	userID, err := s.tokens.VerifyUserID(token)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized("invalid token")
	}

	revoked, err := s.blacklist.IsRevoked(ctx, token)
	if err != nil {
		s.log.Error("blacklist lookup failed", zap.Error(err))
		return uuid.Nil, apperrors.Unavailable("token check unavailable")
	}
	if revoked {
		return uuid.Nil, apperrors.Unauthorized("token has been revoked")
	}
	return userID, nil
}

// Logout revokes token for the rest of its lifetime.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	exp, err := s.tokens.Expiry(token)
	if err != nil {
		return apperrors.Unauthorized("invalid token")
	}
	if err := s.blacklist.Revoke(ctx, token, time.Until(exp)); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func DefaultAvatarURL(username string) string {
	return avatarBaseURL + url.QueryEscape(username)
}

func validateRegistration(username, email, password string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return apperrors.Validation("username must be between 3 and 50 characters")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return apperrors.Validation("email is invalid")
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return apperrors.Validation("password must be between 6 and 72 characters")
	}
	return nil
}
