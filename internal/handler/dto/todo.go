package dto

import "github.com/zerotodo/zerotodo/internal/model"

// CreateTodoRequest is the body of POST /todos/. Every field is required;
// pointers distinguish a missing field from an empty string.
type CreateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	State       *string `json:"state"`
}

// Missing returns the names of absent required fields.
func (r CreateTodoRequest) Missing() []string {
	var missing []string
	if r.Title == nil {
		missing = append(missing, "title")
	}
	if r.Description == nil {
		missing = append(missing, "description")
	}
	if r.State == nil {
		missing = append(missing, "state")
	}
	return missing
}

// UpdateTodoRequest is the body of PATCH /todos/{id}. Absent or null fields
// are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	State       *string `json:"state,omitempty"`
}

// ToPatch converts the request into a model patch. State is copied verbatim
// and validated by the service.
func (r UpdateTodoRequest) ToPatch() model.TodoPatch {
	patch := model.TodoPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.State != nil {
		state := model.TodoState(*r.State)
		patch.State = &state
	}
	return patch
}

// TodoResponse is the public view of a todo.
type TodoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       string `json:"state"`
}

// TodoListResponse wraps a page of todos.
type TodoListResponse struct {
	Todos []TodoResponse `json:"todos"`
}

// ToTodoResponse converts a Todo model to TodoResponse DTO.
func ToTodoResponse(todo *model.Todo) *TodoResponse {
	return &TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		State:       string(todo.State),
	}
}

// ToTodoListResponse converts todos to a list DTO. The slice is never nil.
func ToTodoListResponse(todos []*model.Todo) *TodoListResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, *ToTodoResponse(t))
	}
	return &TodoListResponse{Todos: out}
}
