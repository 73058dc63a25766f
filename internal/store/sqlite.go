package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/peopledesk/notify/internal/model"
)

// SQLiteStore implements the StateStore interface using a local SQLite
// database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveLocal replaces the cached local-only notifications for a user.
func (s *SQLiteStore) SaveLocal(
	ctx context.Context,
	userID string,
	items []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM local_notifications WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("clearing local notifications: %w", err)
	}

	const query = `
		INSERT INTO local_notifications (user_id, id, payload, created_at)
		VALUES (?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range items {
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshaling notification %s: %w", n.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			userID, n.ID, string(payload), n.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// LoadLocal retrieves the cached local-only notifications for a user,
// newest first.
func (s *SQLiteStore) LoadLocal(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	var payloads []string
	err := s.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM local_notifications
		 WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying local notifications: %w", err)
	}

	items := make([]model.Notification, 0, len(payloads))
	for _, p := range payloads {
		var n model.Notification
		if err := json.Unmarshal([]byte(p), &n); err != nil {
			// A corrupted row should not take down startup.
			continue
		}
		items = append(items, n)
	}

	return items, nil
}

// ClearLocal removes all cached local-only notifications for a user.
func (s *SQLiteStore) ClearLocal(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM local_notifications WHERE user_id = ?", userID,
	)
	if err != nil {
		return fmt.Errorf("clearing local notifications: %w", err)
	}
	return nil
}

// AddDismissed records one dismissal key for a user, evicting the oldest
// entries when the set exceeds capacity.
func (s *SQLiteStore) AddDismissed(
	ctx context.Context,
	userID, key string,
	capacity int,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO dismissed_notifications (user_id, key)
		 VALUES (?, ?)`, userID, key,
	); err != nil {
		return fmt.Errorf("inserting dismissed key: %w", err)
	}

	if capacity > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM dismissed_notifications
			 WHERE user_id = ? AND seq NOT IN (
				SELECT seq FROM dismissed_notifications
				WHERE user_id = ? ORDER BY seq DESC LIMIT ?
			 )`, userID, userID, capacity,
		); err != nil {
			return fmt.Errorf("evicting dismissed keys: %w", err)
		}
	}

	return tx.Commit()
}

// LoadDismissed returns the newest limit dismissal keys for a user,
// ordered oldest first so reloading preserves FIFO eviction order. When
// the stored set exceeds limit (capacity lowered across restarts), the
// oldest keys are the ones left behind.
func (s *SQLiteStore) LoadDismissed(
	ctx context.Context,
	userID string,
	limit int,
) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}

	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		`SELECT key FROM (
			SELECT key, seq FROM dismissed_notifications
			WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dismissed keys: %w", err)
	}
	return keys, nil
}

// SetEnabled persists the engine-enabled toggle for a user.
func (s *SQLiteStore) SetEnabled(
	ctx context.Context,
	userID string,
	enabled bool,
) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO engine_settings (user_id, enabled) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET enabled = excluded.enabled`,
		userID, boolToInt(enabled),
	)
	if err != nil {
		return fmt.Errorf("setting enabled toggle: %w", err)
	}
	return nil
}

// Enabled reads the engine-enabled toggle for a user. Users without a
// stored row default to enabled.
func (s *SQLiteStore) Enabled(
	ctx context.Context,
	userID string,
) (bool, error) {
	var enabled int
	err := s.db.GetContext(ctx, &enabled,
		"SELECT enabled FROM engine_settings WHERE user_id = ?", userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// The user never touched the toggle.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading enabled toggle: %w", err)
	}
	return enabled != 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
