package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/scribehub/scribe-server/internal/models"
)

// ContributionStore implements store.ContributionStore using PostgreSQL.
type ContributionStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *ContributionStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const contributionColumns = `id, document_id, user_id, username,
		edits_count, chars_added, chars_deleted, versions_created`

// Get retrieves the contribution row for (documentID, userID).
func (s *ContributionStore) Get(ctx context.Context, documentID, userID string) (*models.Contribution, error) {
	query := `
		SELECT ` + contributionColumns + `
		FROM contributions WHERE document_id = $1 AND user_id = $2
	`

	c, err := scanContribution(s.conn().QueryRowContext(ctx, query, documentID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Upsert creates or overwrites the contribution row for its
// (documentID, userID) pair.
func (s *ContributionStore) Upsert(ctx context.Context, c *models.Contribution) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO contributions (` + contributionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (document_id, user_id) DO UPDATE SET
			username = EXCLUDED.username,
			edits_count = EXCLUDED.edits_count,
			chars_added = EXCLUDED.chars_added,
			chars_deleted = EXCLUDED.chars_deleted,
			versions_created = EXCLUDED.versions_created
	`

	_, err := s.conn().ExecContext(ctx, query,
		c.ID,
		c.DocumentID,
		c.UserID,
		c.Username,
		c.Stats.EditsCount,
		c.Stats.CharsAdded,
		c.Stats.CharsDeleted,
		c.Stats.VersionsCreated,
	)
	return err
}

// ListByDocument retrieves all contribution rows for a document.
func (s *ContributionStore) ListByDocument(ctx context.Context, documentID string) ([]*models.Contribution, error) {
	query := `
		SELECT ` + contributionColumns + `
		FROM contributions WHERE document_id = $1
		ORDER BY edits_count DESC
	`

	rows, err := s.conn().QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

// DeleteByDocument removes all contribution rows for a document.
func (s *ContributionStore) DeleteByDocument(ctx context.Context, documentID string) error {
	query := `DELETE FROM contributions WHERE document_id = $1`
	_, err := s.conn().ExecContext(ctx, query, documentID)
	return err
}

func scanContribution(row scanner) (*models.Contribution, error) {
	var c models.Contribution

	err := row.Scan(
		&c.ID, &c.DocumentID, &c.UserID, &c.Username,
		&c.Stats.EditsCount, &c.Stats.CharsAdded, &c.Stats.CharsDeleted, &c.Stats.VersionsCreated,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
