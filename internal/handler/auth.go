package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/zerotodo/zerotodo/internal/auth"
	"github.com/zerotodo/zerotodo/internal/handler/dto"
	"github.com/zerotodo/zerotodo/internal/service"
)

// maxFormMemory bounds in-memory multipart parsing of the login form.
const maxFormMemory = 1 << 20

// AuthHandler handles login and token refresh.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// Token handles POST /auth/token. The form field "username" carries the
// account email.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}

	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	fields := map[string]string{}
	if email == "" {
		fields["username"] = "is required"
	}
	if password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	token, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	})
}

// Refresh handles POST /auth/refresh_token for an authenticated caller.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	token, err := h.svc.Refresh(r.Context(), user)
	if err != nil {
		writeInternal(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	})
}

// parseForm accepts urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}
