package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/zerotodo/zerotodo/internal/cache"
	"github.com/zerotodo/zerotodo/internal/model"
	"github.com/zerotodo/zerotodo/internal/repository"
)

// MemStore is an in-memory UserStore and TodoStore with the same
// uniqueness, ownership and cascade rules as the Postgres schema.
type MemStore struct {
	mu         sync.Mutex
	users      map[int64]*model.User
	todos      map[int64]*model.Todo
	nextUserID int64
	nextTodoID int64
	failWith   error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[int64]*model.User),
		todos: make(map[int64]*model.Todo),
	}
}

func (m *MemStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if err := m.conflict(0, user); err != nil {
		return err
	}
	m.nextUserID++
	now := time.Now().UTC()
	user.ID = m.nextUserID
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// TodoCount returns the number of stored todos across all users.
func (m *MemStore) TodoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.todos)
}

// SetFailure makes subsequent create and get calls return err.
func (m *MemStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MemStore) conflict(selfID int64, user *model.User) error {
	for id, u := range m.users {
		if id == selfID {
			continue
		}
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	return nil
}

func (m *MemStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MemStore) ListUsers(_ context.Context, offset, limit int) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*model.User{}
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		cp := *m.users[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) UpdateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	if err := m.conflict(user.ID, user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MemStore) DeleteUser(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(m.users, id)
	for tid, t := range m.todos {
		if t.UserID == id {
			delete(m.todos, tid)
		}
	}
	return u, nil
}

func (m *MemStore) CreateTodo(_ context.Context, todo *model.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.users[todo.UserID]; !ok {
		return errors.New("foreign key violation")
	}
	m.nextTodoID++
	now := time.Now().UTC()
	todo.ID = m.nextTodoID
	todo.CreatedAt, todo.UpdatedAt = now, now
	stored := *todo
	m.todos[todo.ID] = &stored
	return nil
}

func (m *MemStore) ListTodos(_ context.Context, filter model.TodoFilter) ([]*model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.todos))
	for id, t := range m.todos {
		if filter.Matches(t) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*model.Todo{}
	for i, id := range ids {
		if i < filter.Offset || len(out) >= filter.Limit {
			continue
		}
		cp := *m.todos[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemStore) GetTodo(_ context.Context, userID, id int64) (*model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTodoNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) UpdateTodo(_ context.Context, userID, id int64, patch model.TodoPatch) (*model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTodoNotFound
	}
	patch.Apply(t)
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (m *MemStore) DeleteTodo(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return repository.ErrTodoNotFound
	}
	delete(m.todos, id)
	return nil
}

// MemCache is an in-memory user cache keyed like the Redis cache.
type MemCache struct {
	mu    sync.Mutex
	users map[string]*model.User
}

// NewMemCache returns an empty cache.
func NewMemCache() *MemCache {
	return &MemCache{users: make(map[string]*model.User)}
}

func (c *MemCache) GetUser(_ context.Context, email string) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[cache.UserKey(email)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return u.ToCachedUser().ToUser(), nil
}

func (c *MemCache) SetUser(_ context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[cache.UserKey(user.Email)] = user.ToCachedUser().ToUser()
	return nil
}

func (c *MemCache) DeleteUser(_ context.Context, emails ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range emails {
		delete(c.users, cache.UserKey(e))
	}
	return nil
}

// Has reports whether email is cached.
func (c *MemCache) Has(email string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.users[cache.UserKey(email)]
	return ok
}
