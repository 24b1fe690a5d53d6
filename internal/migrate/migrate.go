// Package migrate applies the versioned SQL files in migrations.FS to a
// PostgreSQL database and records progress in the schema_migrations table.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// lockID is the advisory lock key held while migrating.
const lockID int64 = 7_311_142_001

var (
	// ErrInvalidFilename is returned for SQL files that do not follow the
	// NNNNNN_name.up.sql / NNNNNN_name.down.sql convention.
	ErrInvalidFilename = errors.New("invalid migration filename")
	// ErrDuplicateVersion is returned when two files share a version and direction.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrMissingUp is returned when a version has a down file but no up file.
	ErrMissingUp = errors.New("migration has no up file")
	// ErrNoDown is returned when rolling back a version without a down file.
	ErrNoDown = errors.New("migration has no down file")
)

// Migration is one schema version.
type Migration struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

// Status describes whether a migration has been applied.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Load reads every *.sql file at the root of fsys and returns the
// migrations ordered by version.
func Load(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int64]*Migration)
	for _, name := range names {
		version, title, direction, err := parseFilename(name)
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: title}
			byVersion[version] = m
		}
		if m.Name != title {
			return nil, fmt.Errorf("%w: %d (%s, %s)", ErrDuplicateVersion, version, m.Name, title)
		}

		switch direction {
		case "up":
			if m.Up != "" {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, name)
			}
			m.Up = string(body)
		case "down":
			if m.Down != "" {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, name)
			}
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" {
			return nil, fmt.Errorf("%w: %d_%s", ErrMissingUp, m.Version, m.Name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseFilename splits "000002_todos.up.sql" into (2, "todos", "up").
func parseFilename(name string) (int64, string, string, error) {
	base := strings.TrimSuffix(path.Base(name), ".sql")

	var direction string
	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return 0, "", "", fmt.Errorf("%w: %s", ErrInvalidFilename, name)
	}
	base = strings.TrimSuffix(base, "."+direction)

	prefix, title, ok := strings.Cut(base, "_")
	if !ok || prefix == "" || title == "" {
		return 0, "", "", fmt.Errorf("%w: %s", ErrInvalidFilename, name)
	}
	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || version < 1 {
		return 0, "", "", fmt.Errorf("%w: %s", ErrInvalidFilename, name)
	}
	return version, title, direction, nil
}

// Open connects to PostgreSQL through the lib/pq driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrator applies and rolls back migrations.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	logger     *slog.Logger
}

// New creates a Migrator over the migrations found in fsys.
func New(db *sql.DB, fsys fs.FS, logger *slog.Logger) (*Migrator, error) {
	migrations, err := Load(fsys)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, migrations: migrations, logger: logger}, nil
}

// Up applies every pending migration in version order and returns the
// versions it applied.
func (m *Migrator) Up(ctx context.Context) ([]int64, error) {
	var applied []int64
	err := m.withLock(ctx, func(conn *sql.Conn) error {
		done, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, mig := range m.migrations {
			if _, ok := done[mig.Version]; ok {
				continue
			}
			if err := m.apply(ctx, conn, mig); err != nil {
				return err
			}
			applied = append(applied, mig.Version)
		}
		return nil
	})
	return applied, err
}

// Down rolls back the newest steps applied migrations and returns the
// versions it reverted.
func (m *Migrator) Down(ctx context.Context, steps int) ([]int64, error) {
	if steps < 1 {
		return nil, nil
	}

	var reverted []int64
	err := m.withLock(ctx, func(conn *sql.Conn) error {
		done, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for i := len(m.migrations) - 1; i >= 0 && len(reverted) < steps; i-- {
			mig := m.migrations[i]
			if _, ok := done[mig.Version]; !ok {
				continue
			}
			if err := m.revert(ctx, conn, mig); err != nil {
				return err
			}
			reverted = append(reverted, mig.Version)
		}
		return nil
	})
	return reverted, err
}

// Status reports every known migration and when it was applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if err := ensureTable(ctx, conn); err != nil {
		return nil, err
	}
	done, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		s := Status{Version: mig.Version, Name: mig.Name}
		if at, ok := done[mig.Version]; ok {
			s.Applied = true
			s.AppliedAt = at
		}
		out = append(out, s)
	}
	return out, nil
}

// withLock runs fn on a dedicated connection holding the migration
// advisory lock.
func (m *Migrator) withLock(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			m.logger.Warn("failed to release migration lock", "error", err)
		}
	}()

	if err := ensureTable(ctx, conn); err != nil {
		return err
	}
	return fn(conn)
}

func (m *Migrator) apply(ctx context.Context, conn *sql.Conn, mig Migration) error {
	start := time.Now()
	err := inTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
			return describe(err)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
			mig.Version, mig.Name)
		return err
	})
	if err != nil {
		return fmt.Errorf("apply %d_%s: %w", mig.Version, mig.Name, err)
	}
	m.logger.Info("migration applied",
		"version", mig.Version,
		"name", mig.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *Migrator) revert(ctx context.Context, conn *sql.Conn, mig Migration) error {
	if strings.TrimSpace(mig.Down) == "" {
		return fmt.Errorf("%w: %d_%s", ErrNoDown, mig.Version, mig.Name)
	}
	err := inTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
			return describe(err)
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", mig.Version)
		return err
	})
	if err != nil {
		return fmt.Errorf("revert %d_%s: %w", mig.Version, mig.Name, err)
	}
	m.logger.Info("migration reverted", "version", mig.Version, "name", mig.Name)
	return nil
}

func ensureTable(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     BIGINT PRIMARY KEY,
			name        TEXT NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]time.Time, error) {
	rows, err := conn.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]time.Time)
	for rows.Next() {
		var version int64
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan schema_migrations: %w", err)
		}
		out[version] = at
	}
	return out, rows.Err()
}

func inTx(ctx context.Context, conn *sql.Conn, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// describe adds the SQLSTATE and server detail of a PostgreSQL error.
func describe(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	msg := fmt.Sprintf("%s (SQLSTATE %s)", pqErr.Message, pqErr.Code)
	if pqErr.Detail != "" {
		msg += ": " + pqErr.Detail
	}
	if pqErr.Position != "" {
		msg += " at position " + pqErr.Position
	}
	return fmt.Errorf("%s: %w", msg, err)
}
