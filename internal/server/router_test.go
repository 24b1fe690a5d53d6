package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zerotodo/zerotodo/internal/auth"
	"github.com/zerotodo/zerotodo/internal/cache"
	"github.com/zerotodo/zerotodo/internal/handler"
	"github.com/zerotodo/zerotodo/internal/handler/dto"
	"github.com/zerotodo/zerotodo/internal/metrics"
	"github.com/zerotodo/zerotodo/internal/service"
	"github.com/zerotodo/zerotodo/internal/testutil"
)

const testSecret = "router-secret"

type denyLimiter struct {
	retryAfter time.Duration
}

func (d denyLimiter) CheckLoginRateLimit(_ context.Context, _ string, _, _ int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{
		Allowed:    false,
		Remaining:  0,
		ResetAt:    time.Now().Add(d.retryAfter),
		RetryAfter: d.retryAfter,
	}, nil
}

type routerOption func(*RouterConfig)

func newTestRouter(t *testing.T, opts ...routerOption) http.Handler {
	t.Helper()

	store := testutil.NewMemStore()
	userCache := testutil.NewMemCache()
	recorder := metrics.NewInMemory()

	issuer, err := auth.NewTokenIssuer(testSecret, "HS256", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	authSvc := service.NewAuthService(store, userCache, issuer, recorder, nil)
	cfg := RouterConfig{
		Root:          handler.New(nil),
		Health:        handler.NewHealthHandler(nil, nil, nil),
		Metrics:       handler.NewMetricsHandler(recorder),
		Users:         handler.NewUserHandler(service.NewUserService(store, userCache, recorder, nil), nil),
		Auth:          handler.NewAuthHandler(authSvc, nil),
		Todos:         handler.NewTodoHandler(service.NewTodoService(store, recorder), nil),
		Authenticator: authSvc,
		Recorder:      recorder,
		IsDevelopment: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewRouter(cfg)
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"secret"}`, name, name)
	if rec := do(t, h, http.MethodPost, "/users/", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("create %s: status %d body %s", name, rec.Code, rec.Body.String())
	}
	return login(t, h, name+"@example.com", "secret")
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var resp dto.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", resp.TokenType)
	}
	return resp.AccessToken
}

func createTodo(t *testing.T, h http.Handler, token, title, state string) dto.TodoResponse {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"description":"desc %s","state":%q}`, title, title, state)
	rec := do(t, h, http.MethodPost, "/todos/", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("create todo %s: status %d body %s", title, rec.Code, rec.Body.String())
	}
	var resp dto.TodoResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode todo: %v", err)
	}
	return resp
}

func listTodos(t *testing.T, h http.Handler, token, query string) []dto.TodoResponse {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/todos/"+query, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list todos: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp dto.TodoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return resp.Todos
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.Detail
}

func TestRouter_Root(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Olá, Mundo!"}` {
		t.Errorf("unexpected body: %s", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestRouter_CreateFirstUser(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/users/",
		`{"username":"alice","email":"alice@example.com","password":"secret"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["id"] != float64(1) {
		t.Errorf("id = %v, want 1", raw["id"])
	}
	if _, ok := raw["password"]; ok {
		t.Error("response must not carry a password")
	}
}

func TestRouter_UserNotFound(t *testing.T) {
	h := newTestRouter(t)
	signUp(t, h, "alice")

	for _, target := range []string{"/users/0", "/users/-1", "/users/2", "/users/999999"} {
		t.Run(target, func(t *testing.T) {
			for _, method := range []string{http.MethodGet, http.MethodDelete} {
				rec := do(t, h, method, target, "", "")
				if rec.Code != http.StatusNotFound {
					t.Fatalf("%s %s: expected 404, got %d", method, target, rec.Code)
				}
				if d := detail(t, rec); d != "User not found!" {
					t.Errorf("detail = %q", d)
				}
			}

			rec := do(t, h, http.MethodPut, target,
				`{"username":"bob","email":"bob@example.com","password":"x"}`, "")
			if rec.Code != http.StatusNotFound {
				t.Fatalf("PUT %s: expected 404, got %d", target, rec.Code)
			}
		})
	}
}

func TestRouter_TrailingSlash(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")

	for _, target := range []string{"/users", "/users/", "/users/1", "/users/1/"} {
		if rec := do(t, h, http.MethodGet, target, "", ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", target, rec.Code)
		}
	}
	for _, target := range []string{"/todos", "/todos/"} {
		if rec := do(t, h, http.MethodGet, target, "", token); rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestRouter_ForeignTodoIsNotFound(t *testing.T) {
	h := newTestRouter(t)
	aliceToken := signUp(t, h, "alice")
	bobToken := signUp(t, h, "bob")

	todo := createTodo(t, h, aliceToken, "alice task", "todo")
	target := fmt.Sprintf("/todos/%d", todo.ID)

	rec := do(t, h, http.MethodPatch, target, `{"title":"stolen"}`, bobToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("patch: expected 404, got %d", rec.Code)
	}
	if d := detail(t, rec); d != "Task not found!" {
		t.Errorf("patch detail = %q", d)
	}

	rec = do(t, h, http.MethodDelete, target, "", bobToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete: expected 404, got %d", rec.Code)
	}
	if d := detail(t, rec); d != "Task not found!" {
		t.Errorf("delete detail = %q", d)
	}

	// Missing ids answer identically.
	rec = do(t, h, http.MethodDelete, "/todos/424242", "", bobToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing: expected 404, got %d", rec.Code)
	}

	todos := listTodos(t, h, aliceToken, "")
	if len(todos) != 1 || todos[0].Title != "alice task" {
		t.Errorf("alice todo changed: %+v", todos)
	}
	if got := listTodos(t, h, bobToken, ""); len(got) != 0 {
		t.Errorf("bob sees %d todos, want 0", len(got))
	}
}

func TestRouter_TodoPagingAndFilters(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")

	states := []string{"draft", "todo", "draft", "done", "trash"}
	for i, state := range states {
		createTodo(t, h, token, fmt.Sprintf("task %d", i), state)
	}

	if got := listTodos(t, h, token, "?limit=2&offset=1"); len(got) != 2 {
		t.Fatalf("limit=2&offset=1: got %d items, want 2", len(got))
	}

	drafts := listTodos(t, h, token, "?state=draft")
	if len(drafts) != 2 {
		t.Fatalf("state=draft: got %d items, want 2", len(drafts))
	}
	for _, todo := range drafts {
		if todo.State != "draft" {
			t.Errorf("state filter returned %q", todo.State)
		}
	}

	if got := listTodos(t, h, token, "?title=task%203"); len(got) != 1 {
		t.Errorf("title filter: got %d items, want 1", len(got))
	}
	if got := listTodos(t, h, token, "?description=desc&state=done"); len(got) != 1 {
		t.Errorf("combined filter: got %d items, want 1", len(got))
	}

	if rec := do(t, h, http.MethodGet, "/todos/?limit=-1", "", token); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative limit: expected 422, got %d", rec.Code)
	}
}

func TestRouter_TodoPatchAndDelete(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")
	todo := createTodo(t, h, token, "write tests", "todo")
	target := fmt.Sprintf("/todos/%d", todo.ID)

	rec := do(t, h, http.MethodPatch, target, `{"state":"done"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var patched dto.TodoResponse
	if err := json.NewDecoder(rec.Body).Decode(&patched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if patched.State != "done" || patched.Title != "write tests" {
		t.Errorf("unexpected patched todo: %+v", patched)
	}

	rec = do(t, h, http.MethodDelete, target, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Task has been deleted successfully."}` {
		t.Errorf("unexpected delete body: %s", got)
	}
}

func TestRouter_RejectsBadTokens(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := tamperSignature(token)

	tokens := map[string]string{
		"missing":  "",
		"expired":  expiredToken,
		"tampered": tampered,
		"garbage":  "not-a-jwt",
	}
	routes := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/todos/", ""},
		{http.MethodPost, "/todos/", `{"title":"a","description":"b","state":"todo"}`},
		{http.MethodPatch, "/todos/1", `{"title":"a"}`},
		{http.MethodDelete, "/todos/1", ""},
		{http.MethodPost, "/auth/refresh_token", ""},
	}

	for name, bad := range tokens {
		for _, route := range routes {
			t.Run(name+" "+route.method+" "+route.target, func(t *testing.T) {
				rec := do(t, h, route.method, route.target, route.body, bad)
				if rec.Code != http.StatusUnauthorized {
					t.Fatalf("expected 401, got %d", rec.Code)
				}
				if rec.Header().Get("WWW-Authenticate") != "Bearer" {
					t.Error("expected WWW-Authenticate: Bearer")
				}
				if d := detail(t, rec); d != "Could not validate credentials" {
					t.Errorf("detail = %q", d)
				}
			})
		}
	}
}

// tamperSignature swaps one character in the middle of the signature.
func tamperSignature(token string) string {
	i := strings.LastIndex(token, ".") + 5
	replacement := byte('A')
	if token[i] == 'A' {
		replacement = 'B'
	}
	return token[:i] + string(replacement) + token[i+1:]
}

func TestRouter_RefreshToken(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")

	rec := do(t, h, http.MethodPost, "/auth/refresh_token", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Errorf("unexpected token response: %+v", resp)
	}
	if got := listTodos(t, h, resp.AccessToken, ""); len(got) != 0 {
		t.Errorf("refreshed token lists %d todos", len(got))
	}
}

func TestRouter_DeletedUserTokenIsRejected(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")

	if rec := do(t, h, http.MethodDelete, "/users/1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete user: expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/todos/", "", token); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after user deletion, got %d", rec.Code)
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	h := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.LoginLimiter = denyLimiter{retryAfter: 1500 * time.Millisecond}
		cfg.RateLimitLoginEnabled = true
		cfg.RateLimitLoginPerMinute = 5
		cfg.RateLimitLoginBurst = 5
	})

	form := url.Values{"username": {"alice@example.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if d := detail(t, rec); d != "Not Found" {
		t.Errorf("detail = %q", d)
	}

	rec = do(t, h, http.MethodPatch, "/users/", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	h := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/todos/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q for foreign origin", got)
	}
}

func TestRouter_MetricsCountRequests(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "alice")
	createTodo(t, h, token, "count me", "todo")

	rec := do(t, h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"zerotodo_users_created_total 1",
		"zerotodo_todos_created_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestRouter_CaseVariantEmailsAreSeparateAccounts(t *testing.T) {
	h := newTestRouter(t)

	for _, u := range []struct{ name, email string }{
		{"bob-upper", "Bob@example.com"},
		{"bob-lower", "bob@example.com"},
	} {
		body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"secret"}`, u.name, u.email)
		if rec := do(t, h, http.MethodPost, "/users/", body, ""); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d body %s", u.email, rec.Code, rec.Body.String())
		}
	}

	upperToken := login(t, h, "Bob@example.com", "secret")
	lowerToken := login(t, h, "bob@example.com", "secret")

	upperTodo := createTodo(t, h, upperToken, "upper secret", "todo")
	lowerTodo := createTodo(t, h, lowerToken, "lower secret", "todo")

	// Repeat so later lookups are served from the user cache.
	for round := 0; round < 2; round++ {
		upper := listTodos(t, h, upperToken, "")
		if len(upper) != 1 || upper[0].ID != upperTodo.ID {
			t.Errorf("round %d: Bob@ sees %+v", round, upper)
		}
		lower := listTodos(t, h, lowerToken, "")
		if len(lower) != 1 || lower[0].ID != lowerTodo.ID {
			t.Errorf("round %d: bob@ sees %+v", round, lower)
		}
	}

	rec := do(t, h, http.MethodDelete, fmt.Sprintf("/todos/%d", upperTodo.ID), "", lowerToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bob@ deleting Bob@'s todo: expected 404, got %d", rec.Code)
	}
}
