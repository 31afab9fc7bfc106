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

CREATE TABLE IF NOT EXISTS clients (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	industry   TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	role          TEXT NOT NULL DEFAULT 'member',
	active        INTEGER NOT NULL DEFAULT 1,
	last_login_at DATETIME,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	client_id   INTEGER REFERENCES clients(id) ON DELETE CASCADE,
	status      TEXT NOT NULL DEFAULT 'planned',
	budget      REAL NOT NULL DEFAULT 0,
	due_date    DATETIME,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	project_id  INTEGER REFERENCES projects(id) ON DELETE CASCADE,
	assignee_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
	status      TEXT NOT NULL DEFAULT 'todo',
	priority    TEXT NOT NULL DEFAULT 'medium',
	due_date    DATETIME,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT 'web',
	status     TEXT NOT NULL DEFAULT 'new',
	message_id TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_logs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_name    TEXT NOT NULL,
	action       TEXT NOT NULL,
	subject_type TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id);
CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_assignee_id ON tasks(assignee_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_message_id
	ON leads(message_id) WHERE message_id <> '';
CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL DEFAULT 'system',
	subject    TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS dismissals (
	key          TEXT PRIMARY KEY,
	dismissed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
