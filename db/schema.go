// ABOUTME: Database schema definitions and migrations
// ABOUTME: Stores accounts and persons as JSON documents with lookup columns
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	doc TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts(name);

CREATE TABLE IF NOT EXISTS persons (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL,
	email_key TEXT NOT NULL,
	doc TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (account_id, email_key)
);

CREATE INDEX IF NOT EXISTS idx_persons_email_key ON persons(email_key);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
