package service

import (
	"context"
	"errors"
	"testing"

	"github.com/zerotodo/zerotodo/internal/auth"
	"github.com/zerotodo/zerotodo/internal/metrics"
	"github.com/zerotodo/zerotodo/internal/testutil"
)

func TestCreateUser_AssignsIDAndHashes(t *testing.T) {
	store := testutil.NewMemStore()
	recorder := metrics.NewInMemory()
	svc := NewUserService(store, nil, recorder, nil)

	user, err := svc.CreateUser(context.Background(), UserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("ID = %d, want 1", user.ID)
	}
	if user.Password == "secret" {
		t.Fatal("password stored in plain text")
	}
	ok, err := auth.VerifyPassword("secret", user.Password)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
	if got := recorder.Snapshot().UsersCreated; got != 1 {
		t.Errorf("UsersCreated = %d, want 1", got)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc := NewUserService(testutil.NewMemStore(), nil, nil, nil)

	tests := []struct {
		name  string
		input UserInput
		field string
	}{
		{"missing_username", UserInput{Email: "a@example.com", Password: "x"}, "username"},
		{"blank_username", UserInput{Username: "   ", Email: "a@example.com", Password: "x"}, "username"},
		{"missing_email", UserInput{Username: "a", Password: "x"}, "email"},
		{"bad_email", UserInput{Username: "a", Email: "not-an-email", Password: "x"}, "email"},
		{"display_name_email", UserInput{Username: "a", Email: "Alice <a@example.com>", Password: "x"}, "email"},
		{"missing_password", UserInput{Username: "a", Email: "a@example.com"}, "password"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), test.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if _, ok := verr.Fields[test.field]; !ok {
				t.Errorf("expected field %q in %v", test.field, verr.Fields)
			}
		})
	}
}

func TestCreateUser_Conflicts(t *testing.T) {
	svc := NewUserService(testutil.NewMemStore(), nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, UserInput{Username: "alice", Email: "alice@example.com", Password: "x"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := svc.CreateUser(ctx, UserInput{Username: "alice", Email: "other@example.com", Password: "x"})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("duplicate username: expected ErrUsernameExists, got %v", err)
	}

	_, err = svc.CreateUser(ctx, UserInput{Username: "bob", Email: "alice@example.com", Password: "x"})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email: expected ErrEmailExists, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	svc := NewUserService(testutil.NewMemStore(), nil, nil, nil)

	for _, id := range []int64{-1, 0, 1, 999} {
		if _, err := svc.GetUser(context.Background(), id); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("GetUser(%d): expected ErrUserNotFound, got %v", id, err)
		}
	}
}

func TestListUsers_Pagination(t *testing.T) {
	svc := NewUserService(testutil.NewMemStore(), nil, nil, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.CreateUser(ctx, UserInput{Username: name, Email: name + "@example.com", Password: "x"}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	users, err := svc.ListUsers(ctx, Page{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "b" {
		t.Fatalf("unexpected page: %+v", users)
	}

	if _, err := svc.ListUsers(ctx, Page{Offset: -1, Limit: 10}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative offset: expected ErrValidation, got %v", err)
	}
	if _, err := svc.ListUsers(ctx, Page{Limit: MaxLimit + 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized limit: expected ErrValidation, got %v", err)
	}
}

func TestUpdateUser_ReplacesAndInvalidates(t *testing.T) {
	store := testutil.NewMemStore()
	c := testutil.NewMemCache()
	svc := NewUserService(store, c, nil, nil)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, UserInput{Username: "alice", Email: "alice@example.com", Password: "old"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_ = c.SetUser(ctx, user)

	updated, err := svc.UpdateUser(ctx, user.ID, UserInput{Username: "alicia", Email: "alicia@example.com", Password: "new"})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Username != "alicia" || updated.Email != "alicia@example.com" {
		t.Errorf("unexpected user after update: %+v", updated)
	}
	if ok, _ := auth.VerifyPassword("new", updated.Password); !ok {
		t.Error("new password does not verify")
	}
	if c.Has("alice@example.com") {
		t.Error("old email still cached")
	}
}

func TestUpdateUser_Errors(t *testing.T) {
	svc := NewUserService(testutil.NewMemStore(), nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.UpdateUser(ctx, 42, UserInput{Username: "x", Email: "x@example.com", Password: "x"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: expected ErrUserNotFound, got %v", err)
	}

	a, _ := svc.CreateUser(ctx, UserInput{Username: "a", Email: "a@example.com", Password: "x"})
	if _, err := svc.CreateUser(ctx, UserInput{Username: "b", Email: "b@example.com", Password: "x"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := svc.UpdateUser(ctx, a.ID, UserInput{Username: "b", Email: "a@example.com", Password: "x"}); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("taken username: expected ErrUsernameExists, got %v", err)
	}
}

func TestDeleteUser_CascadesAndInvalidates(t *testing.T) {
	store := testutil.NewMemStore()
	c := testutil.NewMemCache()
	users := NewUserService(store, c, nil, nil)
	todos := NewTodoService(store, nil)
	ctx := context.Background()

	user, _ := users.CreateUser(ctx, UserInput{Username: "a", Email: "a@example.com", Password: "x"})
	_ = c.SetUser(ctx, user)
	if _, err := todos.CreateTodo(ctx, user.ID, CreateTodoInput{Title: "t", State: "draft"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	if err := users.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if c.Has("a@example.com") {
		t.Error("deleted user still cached")
	}
	if store.TodoCount() != 0 {
		t.Errorf("expected todos to cascade, %d left", store.TodoCount())
	}
	if err := users.DeleteUser(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: expected ErrUserNotFound, got %v", err)
	}
}
