package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/stores"
	"github.com/CUknot/chat_backend/utils"
)

// AuthService owns user accounts and the access tokens issued to them.
type AuthService struct {
	users  stores.UserStore
	tokens stores.TokenStore
	secret string
	ttl    time.Duration
}

func NewAuthService(users stores.UserStore, tokens stores.TokenStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, secret: secret, ttl: ttl}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, Validationf("username is required")
	}
	if in.Password == "" {
		return nil, Validationf("password is required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, stores.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Ctx(ctx).Info().Uint(logger.FieldUserID, user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	if err := user.ValidatePassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, id, expiresAt, err := utils.GenerateToken(s.secret, user.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Issue(ctx, id, user.ID, expiresAt); err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Authenticate resolves a presented token to its user. Revoked, expired,
// forged and orphaned tokens all fail with ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := s.tokens.Lookup(ctx, claims.ID)
	if err != nil {
		return nil, notFound(err, ErrInvalidToken)
	}
	if userID != claims.UserID {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrInvalidToken)
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return ErrInvalidToken
	}
	if err := s.tokens.Revoke(ctx, claims.ID); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Uint(logger.FieldUserID, claims.UserID).Msg("token revoked")
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}
