package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are idempotent and applied in order on startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		content          TEXT NOT NULL DEFAULT '',
		owner_id         TEXT NOT NULL,
		collaborators    JSONB NOT NULL DEFAULT '[]',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		last_modified_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_collaborators
		ON documents USING GIN (collaborators jsonb_path_ops)`,

	`CREATE TABLE IF NOT EXISTS invitations (
		id                 TEXT PRIMARY KEY,
		document_id        TEXT NOT NULL,
		document_title     TEXT NOT NULL,
		invited_by_user_id TEXT NOT NULL,
		invited_by_email   TEXT NOT NULL,
		invited_user_id    TEXT NOT NULL DEFAULT '',
		invited_email      TEXT NOT NULL,
		permission         TEXT NOT NULL,
		status             TEXT NOT NULL,
		message            TEXT NOT NULL DEFAULT '',
		invited_at         TIMESTAMPTZ NOT NULL,
		responded_at       TIMESTAMPTZ,
		expires_at         TIMESTAMPTZ NOT NULL
	)`,
	// The partial unique index backs the at-most-one-pending-invitation
	// guard against racing senders.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending
		ON invitations (document_id, invited_email) WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_email_status
		ON invitations (invited_email, status)`,

	`CREATE TABLE IF NOT EXISTS versions (
		id            TEXT PRIMARY KEY,
		document_id   TEXT NOT NULL,
		content       TEXT NOT NULL DEFAULT '',
		user_id       TEXT NOT NULL,
		ts            TIMESTAMPTZ NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		chars_added   INTEGER NOT NULL DEFAULT 0,
		chars_deleted INTEGER NOT NULL DEFAULT 0,
		total_changes INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_versions_document_ts
		ON versions (document_id, ts DESC)`,

	`CREATE TABLE IF NOT EXISTS contributions (
		id               TEXT PRIMARY KEY,
		document_id      TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		username         TEXT NOT NULL DEFAULT '',
		edits_count      INTEGER NOT NULL DEFAULT 0,
		chars_added      INTEGER NOT NULL DEFAULT 0,
		chars_deleted    INTEGER NOT NULL DEFAULT 0,
		versions_created INTEGER NOT NULL DEFAULT 0,
		UNIQUE (document_id, user_id)
	)`,
}

// migrate applies the schema migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
