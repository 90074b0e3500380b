// ABOUTME: Database schema definitions
// ABOUTME: Idempotent CREATE IF NOT EXISTS statements run once at startup
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL CHECK(role IN ('Admin', 'User', 'Sales')),
	linked_key_person TEXT,
	password_hash TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_linked_key_person ON users(linked_key_person);

CREATE TABLE IF NOT EXISTS partners (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	health_status TEXT NOT NULL DEFAULT 'Active' CHECK(health_status IN ('Active', 'AtRisk', 'Dormant')),
	key_person_id TEXT,
	owner_id TEXT,
	needs_attention_days INTEGER NOT NULL DEFAULT 30 CHECK(needs_attention_days > 0),
	dismissed_at DATETIME,
	integration_products TEXT NOT NULL DEFAULT '[]',
	vertical TEXT NOT NULL DEFAULT '',
	use_case TEXT NOT NULL DEFAULT '',
	logo_url TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_partners_name ON partners(name);
CREATE INDEX IF NOT EXISTS idx_partners_key_person ON partners(key_person_id);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	partner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (partner_id) REFERENCES partners(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contacts_partner_id ON contacts(partner_id);

CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	partner_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL CHECK(type IN ('call', 'email', 'meeting')),
	attachments TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (partner_id) REFERENCES partners(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interactions_partner_date ON interactions(partner_id, date DESC);

CREATE TABLE IF NOT EXISTS custom_reminders (
	id TEXT PRIMARY KEY,
	partner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	due_date DATETIME NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	completed_at DATETIME,
	FOREIGN KEY (partner_id) REFERENCES partners(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_custom_reminders_pending ON custom_reminders(completed, due_date);

CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT 'gray'
);

CREATE TABLE IF NOT EXISTS partner_tags (
	partner_id TEXT NOT NULL,
	tag_id TEXT NOT NULL,
	PRIMARY KEY (partner_id, tag_id),
	FOREIGN KEY (partner_id) REFERENCES partners(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS workgroups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS workgroup_members (
	workgroup_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	PRIMARY KEY (workgroup_id, user_id),
	FOREIGN KEY (workgroup_id) REFERENCES workgroups(id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS push_subscriptions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	endpoint TEXT NOT NULL UNIQUE,
	p256dh TEXT NOT NULL,
	auth TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user ON push_subscriptions(user_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
