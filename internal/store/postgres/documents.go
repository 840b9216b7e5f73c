package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scribehub/scribe-server/internal/models"
)

// DocumentStore implements store.DocumentStore using PostgreSQL. The
// collaborator list is stored as a JSONB array to preserve insertion order.
type DocumentStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *DocumentStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new document.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	collaborators, err := marshalCollaborators(doc.Collaborators)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (id, title, content, owner_id, collaborators, created_at, updated_at, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.conn().ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.OwnerID,
		collaborators,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.LastModifiedBy,
	)
	return err
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	query := `
		SELECT id, title, content, owner_id, collaborators, created_at, updated_at, last_modified_by
		FROM documents WHERE id = $1
	`

	doc, err := scanDocument(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Update overwrites an existing document row. Last write wins: there is no
// optimistic concurrency check.
func (s *DocumentStore) Update(ctx context.Context, doc *models.Document) error {
	collaborators, err := marshalCollaborators(doc.Collaborators)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET title = $1, content = $2, collaborators = $3, updated_at = $4, last_modified_by = $5
		WHERE id = $6
	`

	_, err = s.conn().ExecContext(ctx, query,
		doc.Title,
		doc.Content,
		collaborators,
		doc.UpdatedAt,
		doc.LastModifiedBy,
		doc.ID,
	)
	return err
}

// Delete removes a document.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`
	_, err := s.conn().ExecContext(ctx, query, id)
	return err
}

// ListAccessible retrieves all documents the user owns or collaborates on.
func (s *DocumentStore) ListAccessible(ctx context.Context, userID string) ([]*models.Document, error) {
	query := `
		SELECT id, title, content, owner_id, collaborators, created_at, updated_at, last_modified_by
		FROM documents
		WHERE owner_id = $1
		   OR collaborators @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
		ORDER BY updated_at DESC
	`

	rows, err := s.conn().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var doc models.Document
	var collaborators []byte

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.OwnerID,
		&collaborators, &doc.CreatedAt, &doc.UpdatedAt, &doc.LastModifiedBy,
	)
	if err != nil {
		return nil, err
	}

	if len(collaborators) > 0 {
		if err := json.Unmarshal(collaborators, &doc.Collaborators); err != nil {
			return nil, fmt.Errorf("decoding collaborators: %w", err)
		}
	}
	return &doc, nil
}

func marshalCollaborators(collaborators []models.Collaborator) ([]byte, error) {
	if collaborators == nil {
		collaborators = []models.Collaborator{}
	}
	data, err := json.Marshal(collaborators)
	if err != nil {
		return nil, fmt.Errorf("encoding collaborators: %w", err)
	}
	return data, nil
}
