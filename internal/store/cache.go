package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/notification-center/internal/model"
)

// Cache is the local SQLite mirror of the last synced notification
// window and preference record. It lets the panel paint instantly on
// startup and keeps the preference gates working while the backend is
// unreachable. It is a cache, not a source of truth: the window is
// replaced wholesale after every successful load.
type Cache struct {
	db *sqlx.DB
}

// NewCache opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewCache(dbPath string) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	c := &Cache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *Cache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceWindow replaces the cached window for one (user, workspace)
// pair with the given notifications.
func (c *Cache) ReplaceWindow(
	ctx context.Context,
	userID, workspaceID string,
	notifications []model.Notification,
) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM notifications WHERE user_id = ? AND workspace_id = ?",
		userID, workspaceID,
	)
	if err != nil {
		return fmt.Errorf("clearing cached window: %w", err)
	}

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, user_id, workspace_id, type,
			title, message, entity_type, entity_id,
			action_url, read, priority, status,
			metadata, created_at, cached_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	cachedAt := time.Now().UTC()
	for _, n := range notifications {
		metadata, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for notification %s: %w", n.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			n.ID, n.UserID, n.WorkspaceID, string(n.Type),
			n.Title, n.Message, n.EntityType, n.EntityID,
			n.ActionURL, boolToInt(n.Read), n.Priority, string(n.Status),
			string(metadata), n.CreatedAt.UTC(), cachedAt,
		)
		if err != nil {
			return fmt.Errorf("caching notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// UpsertNotification inserts or replaces a single cached notification.
func (c *Cache) UpsertNotification(ctx context.Context, n model.Notification) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata for notification %s: %w", n.ID, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO notifications (
			id, user_id, workspace_id, type,
			title, message, entity_type, entity_id,
			action_url, read, priority, status,
			metadata, created_at, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.WorkspaceID, string(n.Type),
		n.Title, n.Message, n.EntityType, n.EntityID,
		n.ActionURL, boolToInt(n.Read), n.Priority, string(n.Status),
		string(metadata), n.CreatedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching notification %s: %w", n.ID, err)
	}

	return nil
}

// DeleteNotification removes a single cached notification.
func (c *Cache) DeleteNotification(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting cached notification %s: %w", id, err)
	}
	return nil
}

// GetWindow retrieves the cached window for one (user, workspace) pair,
// newest first.
func (c *Cache) GetWindow(
	ctx context.Context,
	userID, workspaceID string,
	limit int,
) ([]model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE user_id = ? AND workspace_id = ?
		ORDER BY created_at DESC`
	args := []interface{}{userID, workspaceID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// SavePreferences stores the preference record for its (user, workspace)
// pair, replacing any prior snapshot.
func (c *Cache) SavePreferences(ctx context.Context, p model.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preferences (user_id, workspace_id, data, updated_at)
		VALUES (?, ?, ?, ?)`,
		p.UserID, p.WorkspaceID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("caching preferences: %w", err)
	}

	return nil
}

// GetPreferences retrieves the cached preference record, or nil when no
// snapshot exists.
func (c *Cache) GetPreferences(
	ctx context.Context,
	userID, workspaceID string,
) (*model.Preferences, error) {
	var data string
	err := c.db.GetContext(ctx, &data,
		"SELECT data FROM preferences WHERE user_id = ? AND workspace_id = ?",
		userID, workspaceID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cached preferences: %w", err)
	}

	var p model.Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshaling cached preferences: %w", err)
	}

	return &p, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		typ       string
		readInt   int
		status    string
		metadata  string
		createdAt time.Time
		cachedAt  time.Time
	)

	err := rows.Scan(
		&n.ID, &n.UserID, &n.WorkspaceID, &typ,
		&n.Title, &n.Message, &n.EntityType, &n.EntityID,
		&n.ActionURL, &readInt, &n.Priority, &status,
		&metadata, &createdAt, &cachedAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Type = model.NotificationType(typ)
	n.Read = readInt != 0
	n.Status = model.DeliveryStatus(status)
	n.CreatedAt = createdAt

	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
