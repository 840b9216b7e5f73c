package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scribehub/scribe-server/internal/errs"
	"github.com/scribehub/scribe-server/internal/models"
)

// InvitationStore implements store.InvitationStore using PostgreSQL.
type InvitationStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *InvitationStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const invitationColumns = `id, document_id, document_title, invited_by_user_id, invited_by_email,
		invited_user_id, invited_email, permission, status, message, invited_at, responded_at, expires_at`

// Create creates a new invitation. A racing duplicate pending invitation
// for the same (document, email) pair trips the partial unique index and
// surfaces as a conflict.
func (s *InvitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.InvitedAt.IsZero() {
		inv.InvitedAt = time.Now()
	}
	if inv.Status == "" {
		inv.Status = models.InvitationStatusPending
	}

	query := `
		INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.conn().ExecContext(ctx, query,
		inv.ID,
		inv.DocumentID,
		inv.DocumentTitle,
		inv.InvitedBy.UserID,
		inv.InvitedBy.Email,
		inv.InvitedUser.UserID,
		inv.InvitedUser.Email,
		string(inv.Permission),
		string(inv.Status),
		inv.Message,
		inv.InvitedAt,
		inv.RespondedAt,
		inv.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return errs.Conflict("invitation already sent to %s", inv.InvitedUser.Email)
	}
	return err
}

// Get retrieves an invitation by ID.
func (s *InvitationStore) Get(ctx context.Context, id string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

	inv, err := scanInvitation(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetPending retrieves the pending invitation for (documentID, email).
func (s *InvitationStore) GetPending(ctx context.Context, documentID, email string) (*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE document_id = $1 AND invited_email = $2 AND status = 'PENDING'
	`

	inv, err := scanInvitation(s.conn().QueryRowContext(ctx, query, documentID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListPendingByEmail retrieves all pending invitations addressed to email.
func (s *InvitationStore) ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE invited_email = $1 AND status = 'PENDING'
		ORDER BY invited_at DESC
	`

	rows, err := s.conn().QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// CountPendingByEmail returns the number of pending invitations for email.
func (s *InvitationStore) CountPendingByEmail(ctx context.Context, email string) (int, error) {
	query := `SELECT COUNT(*) FROM invitations WHERE invited_email = $1 AND status = 'PENDING'`

	var count int
	if err := s.conn().QueryRowContext(ctx, query, email).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatus records a status transition. Only the status, responded_at
// and invited_user_id columns ever change after creation.
func (s *InvitationStore) UpdateStatus(ctx context.Context, inv *models.Invitation) error {
	query := `
		UPDATE invitations
		SET status = $1, responded_at = $2, invited_user_id = $3
		WHERE id = $4
	`

	_, err := s.conn().ExecContext(ctx, query,
		string(inv.Status),
		inv.RespondedAt,
		inv.InvitedUser.UserID,
		inv.ID,
	)
	return err
}

// DeleteByDocument removes all invitations for a document.
func (s *InvitationStore) DeleteByDocument(ctx context.Context, documentID string) error {
	query := `DELETE FROM invitations WHERE document_id = $1`
	_, err := s.conn().ExecContext(ctx, query, documentID)
	return err
}

func scanInvitation(row scanner) (*models.Invitation, error) {
	var inv models.Invitation
	var permission, status string
	var respondedAt sql.NullTime

	err := row.Scan(
		&inv.ID, &inv.DocumentID, &inv.DocumentTitle,
		&inv.InvitedBy.UserID, &inv.InvitedBy.Email,
		&inv.InvitedUser.UserID, &inv.InvitedUser.Email,
		&permission, &status, &inv.Message,
		&inv.InvitedAt, &respondedAt, &inv.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Permission = models.Permission(permission)
	inv.Status = models.InvitationStatus(status)
	if respondedAt.Valid {
		inv.RespondedAt = &respondedAt.Time
	}
	return &inv, nil
}
