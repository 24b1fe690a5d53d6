package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/zerotodo/zerotodo/internal/metrics"
	"github.com/zerotodo/zerotodo/internal/model"
	"github.com/zerotodo/zerotodo/internal/repository"
)

const maxTitleLength = 255

// TodoService handles todo business logic. Every operation is scoped to
// the calling user.
type TodoService struct {
	store   TodoStore
	metrics metrics.Recorder
}

// NewTodoService creates a new TodoService.
func NewTodoService(store TodoStore, recorder metrics.Recorder) *TodoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TodoService{store: store, metrics: recorder}
}

// CreateTodoInput defines input for creating a todo.
type CreateTodoInput struct {
	Title       string
	Description string
	State       model.TodoState
}

// CreateTodo stores a todo owned by userID.
func (s *TodoService) CreateTodo(ctx context.Context, userID int64, input CreateTodoInput) (*model.Todo, error) {
	fields := map[string]string{}
	if len(input.Title) > maxTitleLength {
		fields["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLength)
	}
	if !input.State.IsValid() {
		fields["state"] = stateMessage()
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}

	todo := &model.Todo{
		Title:       input.Title,
		Description: input.Description,
		State:       input.State,
		UserID:      userID,
	}
	if err := s.store.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.metrics.IncTodoCreated()
	return todo, nil
}

// ListTodosInput defines filters for listing todos. Empty strings are
// ignored.
type ListTodosInput struct {
	Title       string
	Description string
	State       string
	Page        Page
}

// ListTodos returns the caller's todos matching every set filter.
func (s *TodoService) ListTodos(ctx context.Context, userID int64, input ListTodosInput) ([]*model.Todo, error) {
	if err := input.Page.Validate(); err != nil {
		return nil, err
	}

	filter := model.TodoFilter{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Offset:      input.Page.Offset,
		Limit:       input.Page.Limit,
	}
	if input.State != "" {
		state, err := model.ParseTodoState(input.State)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"state": stateMessage()}}
		}
		filter.State = state
	}

	todos, err := s.store.ListTodos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// PatchTodo applies the set fields of patch to the caller's todo id.
// A todo owned by someone else is reported as not found.
func (s *TodoService) PatchTodo(ctx context.Context, userID, id int64, patch model.TodoPatch) (*model.Todo, error) {
	if id < 1 {
		return nil, ErrTodoNotFound
	}

	fields := map[string]string{}
	if patch.Title != nil && len(*patch.Title) > maxTitleLength {
		fields["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLength)
	}
	if patch.State != nil && !patch.State.IsValid() {
		fields["state"] = stateMessage()
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}

	var (
		todo *model.Todo
		err  error
	)
	if patch.IsEmpty() {
		todo, err = s.store.GetTodo(ctx, userID, id)
	} else {
		todo, err = s.store.UpdateTodo(ctx, userID, id, patch)
	}
	if err != nil {
		return nil, mapTodoError(err)
	}

	if !patch.IsEmpty() {
		s.metrics.IncTodoUpdated()
	}
	return todo, nil
}

// DeleteTodo removes the caller's todo id.
func (s *TodoService) DeleteTodo(ctx context.Context, userID, id int64) error {
	if id < 1 {
		return ErrTodoNotFound
	}
	if err := s.store.DeleteTodo(ctx, userID, id); err != nil {
		return mapTodoError(err)
	}
	s.metrics.IncTodoDeleted()
	return nil
}

func stateMessage() string {
	msg := "must be one of"
	for i, st := range model.TodoStates {
		if i > 0 {
			msg += ","
		}
		msg += " " + string(st)
	}
	return msg
}

func mapTodoError(err error) error {
	if errors.Is(err, repository.ErrTodoNotFound) {
		return ErrTodoNotFound
	}
	return err
}
