package model

import (
	"errors"
	"strings"
	"time"
)

// TodoState is the lifecycle state of a todo.
type TodoState string

const (
	TodoStateDraft TodoState = "draft"
	TodoStateTodo  TodoState = "todo"
	TodoStateDoing TodoState = "doing"
	TodoStateDone  TodoState = "done"
	TodoStateTrash TodoState = "trash"
)

// TodoStates lists every valid state in declaration order.
var TodoStates = []TodoState{
	TodoStateDraft,
	TodoStateTodo,
	TodoStateDoing,
	TodoStateDone,
	TodoStateTrash,
}

// ErrInvalidTodoState is returned when parsing an unknown state.
var ErrInvalidTodoState = errors.New("invalid todo state")

// IsValid reports whether s is one of the known states.
func (s TodoState) IsValid() bool {
	switch s {
	case TodoStateDraft, TodoStateTodo, TodoStateDoing, TodoStateDone, TodoStateTrash:
		return true
	}
	return false
}

// ParseTodoState converts a raw string into a TodoState.
// Matching is exact; "Draft" or "dra" are rejected.
func ParseTodoState(raw string) (TodoState, error) {
	s := TodoState(raw)
	if !s.IsValid() {
		return "", ErrInvalidTodoState
	}
	return s, nil
}

// Todo is a task owned by a single user.
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	State       TodoState `json:"state"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoFilter narrows a todo listing. Empty fields are ignored; all set
// fields must match.
type TodoFilter struct {
	UserID      int64
	Title       string
	Description string
	State       TodoState
	Offset      int
	Limit       int
}

// Matches reports whether t satisfies the filter's owner and field
// predicates. Pagination is not considered.
func (f TodoFilter) Matches(t *Todo) bool {
	if t.UserID != f.UserID {
		return false
	}
	if f.Title != "" && !strings.Contains(t.Title, f.Title) {
		return false
	}
	if f.Description != "" && !strings.Contains(t.Description, f.Description) {
		return false
	}
	if f.State != "" && t.State != f.State {
		return false
	}
	return true
}

// TodoPatch holds the fields of a partial update. Nil means unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	State       *TodoState
}

// IsEmpty reports whether the patch changes nothing.
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.State == nil
}

// Apply copies the set fields of p onto t.
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.State != nil {
		t.State = *p.State
	}
}
