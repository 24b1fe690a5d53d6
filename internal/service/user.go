package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/zerotodo/zerotodo/internal/auth"
	"github.com/zerotodo/zerotodo/internal/metrics"
	"github.com/zerotodo/zerotodo/internal/model"
	"github.com/zerotodo/zerotodo/internal/repository"
)

const (
	maxUsernameLength = 100
	maxEmailLength    = 254
)

// UserService handles account business logic.
type UserService struct {
	store   UserStore
	cache   UserCache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(store UserStore, cache UserCache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:   store,
		cache:   cache,
		metrics: recorder,
		logger:  logger,
	}
}

// UserInput carries the writable fields of a user.
type UserInput struct {
	Username string
	Email    string
	Password string
}

// Validate checks required fields and the email format.
func (in UserInput) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(in.Username) == "" {
		fields["username"] = "is required"
	} else if len(in.Username) > maxUsernameLength {
		fields["username"] = fmt.Sprintf("must be at most %d characters", maxUsernameLength)
	}

	switch {
	case strings.TrimSpace(in.Email) == "":
		fields["email"] = "is required"
	case len(in.Email) > maxEmailLength:
		fields["email"] = fmt.Sprintf("must be at most %d characters", maxEmailLength)
	case !validEmail(in.Email):
		fields["email"] = "must be a valid email address"
	}

	if in.Password == "" {
		fields["password"] = "is required"
	}

	return newValidationError(fields)
}

// validEmail accepts a bare addr-spec; display names are rejected.
func validEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return false
	}
	return addr.Address == raw && addr.Name == ""
}

// CreateUser registers a new account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, mapUserError(err)
	}

	s.metrics.IncUserCreated()
	return user, nil
}

// ListUsers returns users ordered by id.
func (s *UserService) ListUsers(ctx context.Context, page Page) ([]*model.User, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with id. Ids below 1 never exist.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if id < 1 {
		return nil, ErrUserNotFound
	}
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err)
	}
	return user, nil
}

// UpdateUser replaces username, email and password of user id.
func (s *UserService) UpdateUser(ctx context.Context, id int64, input UserInput) (*model.User, error) {
	if id < 1 {
		return nil, ErrUserNotFound
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err)
	}
	previousEmail := user.Email

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.Username = input.Username
	user.Email = input.Email
	user.Password = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, mapUserError(err)
	}

	s.metrics.IncUserUpdated()
	s.invalidate(ctx, previousEmail, user.Email)
	return user, nil
}

// DeleteUser removes user id together with its todos.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrUserNotFound
	}
	user, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return mapUserError(err)
	}

	s.metrics.IncUserDeleted()
	s.invalidate(ctx, user.Email)
	return nil
}

func (s *UserService) invalidate(ctx context.Context, emails ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteUser(ctx, emails...); err != nil {
		s.logger.Warn("user cache invalidation failed", "error", err)
	}
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrUsernameExists):
		return ErrUsernameExists
	case errors.Is(err, repository.ErrEmailExists):
		return ErrEmailExists
	}
	return err
}
