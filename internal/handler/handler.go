// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zerotodo/zerotodo/internal/handler/dto"
)

const rootMessage = "Olá, Mundo!"

const helloHTML = `<html>
    <head>
        <title>Olá mundo!</title>
    </head>
    <body>
        <h1> Olá Mundo, em formato HTML!</h1>
    </body>
</html>`

// Handler serves the root and fallback routes.
type Handler struct {
	logger *slog.Logger
}

// New creates a new Handler instance.
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: rootMessage})
}

// HelloHTML handles GET /exercicio-html.
func (h *Handler) HelloHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(helloHTML))
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("response encoding failed", "error", err)
	}
}

// writeDetail writes the standard {"detail": msg} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, dto.ErrorResponse{Detail: detail})
}

// writeValidation writes a 422 with per-field messages.
func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
		Detail: "Validation failed",
		Errors: fields,
	})
}

// writeInternal logs err and writes a generic 500.
func writeInternal(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal_error", "error", err)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
