package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	type         TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL DEFAULT '',
	entity_type  TEXT NOT NULL DEFAULT '',
	entity_id    TEXT NOT NULL DEFAULT '',
	action_url   TEXT NOT NULL DEFAULT '',
	read         INTEGER NOT NULL DEFAULT 0,
	priority     TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'created',
	metadata     TEXT NOT NULL DEFAULT '{}',
	created_at   DATETIME NOT NULL,
	cached_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS preferences (
	user_id      TEXT NOT NULL,
	workspace_id TEXT NOT NULL,
	data         TEXT NOT NULL DEFAULT '{}',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, workspace_id)
);

CREATE INDEX IF NOT EXISTS idx_notifications_owner
	ON notifications(user_id, workspace_id);
CREATE INDEX IF NOT EXISTS idx_notifications_created
	ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
