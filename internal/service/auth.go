package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zerotodo/zerotodo/internal/auth"
	"github.com/zerotodo/zerotodo/internal/cache"
	"github.com/zerotodo/zerotodo/internal/metrics"
	"github.com/zerotodo/zerotodo/internal/model"
	"github.com/zerotodo/zerotodo/internal/repository"
)

// TokenTypeBearer is reported as token_type for every issued token.
const TokenTypeBearer = "bearer"

// Token is an issued access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AuthService handles login, token refresh and bearer authentication.
type AuthService struct {
	users   UserStore
	cache   UserCache
	tokens  *auth.TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthService creates a new AuthService. cache may be nil.
func NewAuthService(users UserStore, cache UserCache, tokens *auth.TokenIssuer, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:   users,
		cache:   cache,
		tokens:  tokens,
		metrics: recorder,
		logger:  logger,
	}
}

// Login verifies email and password and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Token, error) {
	if email == "" || password == "" {
		s.metrics.IncAuthFailure("credentials")
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncAuthFailure("credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuthFailure("credentials")
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(user, "login")
	if err != nil {
		return nil, err
	}
	s.remember(ctx, user)
	return token, nil
}

// Refresh issues a fresh token for an already authenticated user.
func (s *AuthService) Refresh(_ context.Context, user *model.User) (*Token, error) {
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user, "refresh")
}

// Authenticate resolves a bearer token to its user. Any token or lookup
// problem other than an infrastructure failure yields ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.metrics.IncAuthFailure("token")
		return nil, ErrInvalidCredentials
	}
	email := claims.Subject

	if s.cache != nil {
		user, err := s.cache.GetUser(ctx, email)
		switch {
		case err == nil && user.Email == email:
			return user, nil
		case err == nil:
			// Entry belongs to another account; fall through to the store.
			s.logger.Warn("user cache entry does not match token subject", "user_id", user.ID)
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn("user cache lookup failed", "error", err)
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncAuthFailure("token")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	s.remember(ctx, user)
	return user, nil
}

func (s *AuthService) issue(user *model.User, kind string) (*Token, error) {
	access, expiresAt, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.metrics.IncTokenIssued(kind)
	return &Token{
		AccessToken: access,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthService) remember(ctx context.Context, user *model.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("user cache fill failed", "error", err)
	}
}
