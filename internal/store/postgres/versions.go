package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scribehub/scribe-server/internal/models"
)

// VersionStore implements store.VersionStore using PostgreSQL. Versions
// are append-only: there is no update path.
type VersionStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *VersionStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const versionColumns = `id, document_id, content, user_id, ts, description,
		chars_added, chars_deleted, total_changes`

// Create appends a new version.
func (s *VersionStore) Create(ctx context.Context, v *models.Version) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}

	query := `
		INSERT INTO versions (` + versionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.conn().ExecContext(ctx, query,
		v.ID,
		v.DocumentID,
		v.Content,
		v.UserID,
		v.Timestamp,
		v.Description,
		v.ChangeStats.CharsAdded,
		v.ChangeStats.CharsDeleted,
		v.ChangeStats.TotalChanges,
	)
	return err
}

// Get retrieves a version by ID.
func (s *VersionStore) Get(ctx context.Context, id string) (*models.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM versions WHERE id = $1`

	v, err := scanVersion(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Latest retrieves the most recent version for a document.
func (s *VersionStore) Latest(ctx context.Context, documentID string) (*models.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions WHERE document_id = $1
		ORDER BY ts DESC LIMIT 1
	`

	v, err := scanVersion(s.conn().QueryRowContext(ctx, query, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListByDocument retrieves all versions for a document, newest first.
func (s *VersionStore) ListByDocument(ctx context.Context, documentID string) ([]*models.Version, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM versions WHERE document_id = $1
		ORDER BY ts DESC
	`

	rows, err := s.conn().QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// DeleteByDocument removes all versions for a document.
func (s *VersionStore) DeleteByDocument(ctx context.Context, documentID string) error {
	query := `DELETE FROM versions WHERE document_id = $1`
	_, err := s.conn().ExecContext(ctx, query, documentID)
	return err
}

func scanVersion(row scanner) (*models.Version, error) {
	var v models.Version

	err := row.Scan(
		&v.ID, &v.DocumentID, &v.Content, &v.UserID, &v.Timestamp, &v.Description,
		&v.ChangeStats.CharsAdded, &v.ChangeStats.CharsDeleted, &v.ChangeStats.TotalChanges,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
