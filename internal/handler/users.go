package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/zerotodo/zerotodo/internal/handler/dto"
	"github.com/zerotodo/zerotodo/internal/service"
)

// UserHandler handles HTTP requests for account operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{svc: svc, logger: logger}
}

// Create handles POST /users/.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		rerr.write(w)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), service.UserInput(req))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_created", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// List handles GET /users/.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, rerr := parsePage(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	users, err := h.svc.ListUsers(r.Context(), page)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, rerr := parseID(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Update handles PUT /users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, rerr := parseID(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	var req dto.UserRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		rerr.write(w)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), id, service.UserInput(req))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_updated", "user_id", user.ID)
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Delete handles DELETE /users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, rerr := parseID(r)
	if rerr != nil {
		rerr.write(w)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", id)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "User deleted"})
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "User not found!")
	case errors.Is(err, service.ErrUsernameExists):
		writeDetail(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, service.ErrEmailExists):
		writeDetail(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, service.ErrValidation):
		writeValidation(w, validationFields(err))
	default:
		writeInternal(w, h.logger, err)
	}
}
