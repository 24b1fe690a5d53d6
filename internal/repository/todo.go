package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zerotodo/zerotodo/internal/model"
)

// ErrTodoNotFound is returned when a todo does not exist for the given owner.
var ErrTodoNotFound = errors.New("todo not found")

const todoColumns = `id, title, description, state::text, user_id, created_at, updated_at`

// CreateTodo inserts a todo owned by todo.UserID.
func (r *Repository) CreateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		INSERT INTO todos (title, description, state, user_id)
		VALUES ($1, $2, $3::text::todo_state, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		todo.Title,
		todo.Description,
		string(todo.State),
		todo.UserID,
	).Scan(&todo.ID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// ListTodos returns the todos of filter.UserID that match every set filter
// field, ordered by id. Title and description match as literal substrings;
// state matches exactly.
func (r *Repository) ListTodos(ctx context.Context, filter model.TodoFilter) ([]*model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`
	args := []any{filter.UserID}
	argIndex := 2

	if filter.Title != "" {
		query += fmt.Sprintf(" AND strpos(title, $%d) > 0", argIndex)
		args = append(args, filter.Title)
		argIndex++
	}

	if filter.Description != "" {
		query += fmt.Sprintf(" AND strpos(description, $%d) > 0", argIndex)
		args = append(args, filter.Description)
		argIndex++
	}

	if filter.State != "" {
		query += fmt.Sprintf(" AND state = $%d::text::todo_state", argIndex)
		args = append(args, string(filter.State))
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY id OFFSET $%d LIMIT $%d", argIndex, argIndex+1)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// GetTodo retrieves a todo by id, scoped to its owner.
func (r *Repository) GetTodo(ctx context.Context, userID, id int64) (*model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`

	todo, err := scanTodo(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return todo, nil
}

// UpdateTodo applies the set fields of patch to a todo owned by userID.
func (r *Repository) UpdateTodo(ctx context.Context, userID, id int64, patch model.TodoPatch) (*model.Todo, error) {
	query := `
		UPDATE todos
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    state = COALESCE($5::text::todo_state, state),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + todoColumns

	var state *string
	if patch.State != nil {
		s := string(*patch.State)
		state = &s
	}

	todo, err := scanTodo(r.pool.QueryRow(ctx, query, id, userID, patch.Title, patch.Description, state))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	return todo, nil
}

// DeleteTodo removes a todo owned by userID.
func (r *Repository) DeleteTodo(ctx context.Context, userID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTodoNotFound
	}

	return nil
}

func scanTodo(row pgx.Row) (*model.Todo, error) {
	var todo model.Todo
	var state string
	err := row.Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&state,
		&todo.UserID,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	todo.State = model.TodoState(state)
	return &todo, nil
}
