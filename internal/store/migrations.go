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

CREATE TABLE IF NOT EXISTS local_notifications (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS dismissed_notifications (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      TEXT NOT NULL,
	key          TEXT NOT NULL,
	dismissed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, key)
);

CREATE INDEX IF NOT EXISTS idx_dismissed_user
	ON dismissed_notifications(user_id, seq);

CREATE TABLE IF NOT EXISTS engine_settings (
	user_id TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 1
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
