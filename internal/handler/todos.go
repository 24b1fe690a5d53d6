package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/zerotodo/zerotodo/internal/auth"
	"github.com/zerotodo/zerotodo/internal/handler/dto"
	"github.com/zerotodo/zerotodo/internal/model"
	"github.com/zerotodo/zerotodo/internal/service"
)

// TodoHandler handles HTTP requests for the caller's todos. Every route
// requires the auth middleware.
type TodoHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc *service.TodoService, logger *slog.Logger) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{svc: svc, logger: logger}
}

// Create handles POST /todos/.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	var req dto.CreateTodoRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		rerr.write(w)
		return
	}
	if missing := req.Missing(); len(missing) > 0 {
		fields := make(map[string]string, len(missing))
		for _, f := range missing {
			fields[f] = "is required"
		}
		writeValidation(w, fields)
		return
	}

	todo, err := h.svc.CreateTodo(r.Context(), user.ID, service.CreateTodoInput{
		Title:       *req.Title,
		Description: *req.Description,
		State:       model.TodoState(*req.State),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("todo_created", "todo_id", todo.ID, "user_id", user.ID)
	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo))
}

// List handles GET /todos/.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	page, rerr := parsePage(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	query := r.URL.Query()
	todos, err := h.svc.ListTodos(r.Context(), user.ID, service.ListTodosInput{
		Title:       query.Get("title"),
		Description: query.Get("description"),
		State:       query.Get("state"),
		Page:        page,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTodoListResponse(todos))
}

// Patch handles PATCH /todos/{id}.
func (h *TodoHandler) Patch(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	id, rerr := parseID(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	var req dto.UpdateTodoRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		rerr.write(w)
		return
	}

	todo, err := h.svc.PatchTodo(r.Context(), user.ID, id, req.ToPatch())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("todo_updated", "todo_id", todo.ID, "user_id", user.ID)
	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo))
}

// Delete handles DELETE /todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	id, rerr := parseID(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	if err := h.svc.DeleteTodo(r.Context(), user.ID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("todo_deleted", "todo_id", id, "user_id", user.ID)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task has been deleted successfully."})
}

// handleServiceError maps service errors to HTTP responses.
func (h *TodoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		writeDetail(w, http.StatusNotFound, "Task not found!")
	case errors.Is(err, service.ErrValidation):
		writeValidation(w, validationFields(err))
	default:
		writeInternal(w, h.logger, err)
	}
}
