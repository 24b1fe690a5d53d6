package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zerotodo/zerotodo/internal/service"
)

// requestError is a client error found while reading a request.
type requestError struct {
	status int
	detail string
	fields map[string]string
}

func (e *requestError) Error() string { return e.detail }

func (e *requestError) write(w http.ResponseWriter) {
	if len(e.fields) > 0 {
		writeValidation(w, e.fields)
		return
	}
	writeDetail(w, e.status, e.detail)
}

func invalidField(field, msg string) *requestError {
	return &requestError{
		status: http.StatusUnprocessableEntity,
		detail: "Validation failed",
		fields: map[string]string{field: msg},
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(r *http.Request, dst any) *requestError {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxBytesErr):
		return &requestError{status: http.StatusRequestEntityTooLarge, detail: "Request body too large"}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return invalidField(typeErr.Field, "must be a "+jsonKind(typeErr.Type.Kind().String()))
	case errors.Is(err, io.EOF):
		return &requestError{status: http.StatusUnprocessableEntity, detail: "Request body is required"}
	default:
		return &requestError{status: http.StatusUnprocessableEntity, detail: "Invalid request body"}
	}
}

func jsonKind(goKind string) string {
	switch {
	case goKind == "string":
		return "string"
	case strings.HasPrefix(goKind, "int"), strings.HasPrefix(goKind, "uint"), strings.HasPrefix(goKind, "float"):
		return "number"
	case goKind == "bool":
		return "boolean"
	}
	return "valid value"
}

// parseID reads the {id} path parameter. Non-integers are a validation
// error; range checks are left to the service.
func parseID(r *http.Request) (int64, *requestError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidField("id", "must be an integer")
	}
	return id, nil
}

// parsePage reads offset and limit query parameters, applying defaults for
// absent values. Sign and range checks are left to the service.
func parsePage(r *http.Request) (service.Page, *requestError) {
	page := service.DefaultPage()
	query := r.URL.Query()
	fields := map[string]string{}

	if raw := query.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields["offset"] = "must be an integer"
		}
		page.Offset = v
	}
	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields["limit"] = "must be an integer"
		}
		page.Limit = v
	}

	if len(fields) > 0 {
		return page, &requestError{status: http.StatusUnprocessableEntity, detail: "Validation failed", fields: fields}
	}
	return page, nil
}

// validationFields extracts per-field messages from a service validation
// error.
func validationFields(err error) map[string]string {
	var verr *service.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		return verr.Fields
	}
	return map[string]string{"body": err.Error()}
}
