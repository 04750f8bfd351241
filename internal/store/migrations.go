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

CREATE TABLE IF NOT EXISTS snapshots (
	id               TEXT PRIMARY KEY,
	account          TEXT NOT NULL,
	total_balance    TEXT NOT NULL DEFAULT '0',
	monthly_income   TEXT NOT NULL DEFAULT '0',
	monthly_expenses TEXT NOT NULL DEFAULT '0',
	savings_rate     TEXT NOT NULL DEFAULT '0',
	spending         TEXT NOT NULL DEFAULT '{}',
	fetched_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_transactions (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	id          INTEGER NOT NULL,
	title       TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	amount      TEXT NOT NULL,
	date        DATETIME NOT NULL,
	type        TEXT NOT NULL CHECK(type IN ('income', 'expense')),
	bank        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE TABLE IF NOT EXISTS snapshot_goals (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	id          INTEGER NOT NULL,
	title       TEXT NOT NULL,
	target      TEXT NOT NULL,
	current     TEXT NOT NULL,
	deadline    DATETIME,
	color       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_account_fetched ON snapshots(account, fetched_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS advisor_messages (
	id         TEXT PRIMARY KEY,
	account    TEXT NOT NULL,
	role       TEXT NOT NULL CHECK(role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_advisor_messages_account_created
	ON advisor_messages(account, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
