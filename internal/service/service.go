// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zerotodo/zerotodo/internal/model"
)

// Service errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTodoNotFound       = errors.New("todo not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)

const (
	// DefaultLimit applies when a listing does not specify one.
	DefaultLimit = 100
	// MaxLimit caps a single page.
	MaxLimit = 1000
)

// ValidationError reports invalid input per field.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// newValidationError returns nil when fields is empty.
func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Page is an offset/limit window over an ordered listing.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPage returns the first page with the default limit.
func DefaultPage() Page {
	return Page{Offset: 0, Limit: DefaultLimit}
}

// Validate rejects negative values and oversized pages.
func (p Page) Validate() error {
	fields := map[string]string{}
	if p.Offset < 0 {
		fields["offset"] = "must be greater than or equal to 0"
	}
	if p.Limit < 0 {
		fields["limit"] = "must be greater than or equal to 0"
	} else if p.Limit > MaxLimit {
		fields["limit"] = fmt.Sprintf("must be less than or equal to %d", MaxLimit)
	}
	return newValidationError(fields)
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) (*model.User, error)
}

// TodoStore persists todos scoped by owner.
type TodoStore interface {
	CreateTodo(ctx context.Context, todo *model.Todo) error
	ListTodos(ctx context.Context, filter model.TodoFilter) ([]*model.Todo, error)
	GetTodo(ctx context.Context, userID, id int64) (*model.Todo, error)
	UpdateTodo(ctx context.Context, userID, id int64, patch model.TodoPatch) (*model.Todo, error)
	DeleteTodo(ctx context.Context, userID, id int64) error
}

// UserCache caches auth lookups keyed by email.
type UserCache interface {
	GetUser(ctx context.Context, email string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, emails ...string) error
}
