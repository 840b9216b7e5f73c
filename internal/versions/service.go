// Package versions implements the append-only version history and the
// per-user contribution ledger. Change statistics are length deltas
// against the previous snapshot, not a text diff.
package versions

import (
	"context"
	"fmt"
	"time"

	"github.com/scribehub/scribe-server/internal/errs"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/store"
	"github.com/scribehub/scribe-server/pkg/logger"
)

// Service manages version history and contribution tracking.
type Service struct {
	store  store.Store
	logger *logger.Logger
}

// NewService creates a version service.
func NewService(st store.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:  st,
		logger: log.WithComponent("versions"),
	}
}

// CreateInput holds the fields for recording a version.
type CreateInput struct {
	DocumentID  string
	Content     string
	UserID      string
	Username    string
	Description string
}

// Create appends a version snapshot and folds its change statistics into
// the author's contribution row, in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Version, error) {
	if in.UserID == "" {
		return nil, errs.Validation("user id is required")
	}

	doc, err := s.store.Documents().Get(ctx, in.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return nil, errs.NotFound("document %s not found", in.DocumentID)
	}

	latest, err := s.store.Versions().Latest(ctx, in.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading latest version: %w", err)
	}
	previous := ""
	if latest != nil {
		previous = latest.Content
	}

	v := &models.Version{
		DocumentID:  in.DocumentID,
		Content:     in.Content,
		UserID:      in.UserID,
		Description: in.Description,
		ChangeStats: lengthDelta(previous, in.Content),
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Versions().Create(ctx, v); err != nil {
			return fmt.Errorf("creating version: %w", err)
		}
		return s.recordContribution(ctx, tx, in.DocumentID, in.UserID, in.Username, v.ChangeStats)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version created",
		"version_id", v.ID, "document_id", in.DocumentID, "user_id", in.UserID)
	return v, nil
}

// History returns all versions of a document, newest first.
func (s *Service) History(ctx context.Context, documentID string) ([]*models.Version, error) {
	vers, err := s.store.Versions().ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return vers, nil
}

// Get retrieves a single version.
func (s *Service) Get(ctx context.Context, versionID string) (*models.Version, error) {
	v, err := s.store.Versions().Get(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("loading version: %w", err)
	}
	if v == nil {
		return nil, errs.NotFound("version %s not found", versionID)
	}
	return v, nil
}

// Revert restores an old snapshot by appending a new version with its
// content and rewriting the document body to match. History is never
// rewound; the revert itself counts as an edit.
func (s *Service) Revert(ctx context.Context, documentID, versionID, userID, username string) (*models.Version, error) {
	target, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if target.DocumentID != documentID {
		return nil, errs.NotFound("version %s not found for document %s", versionID, documentID)
	}

	doc, err := s.store.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return nil, errs.NotFound("document %s not found", documentID)
	}

	latest, err := s.store.Versions().Latest(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading latest version: %w", err)
	}
	previous := ""
	if latest != nil {
		previous = latest.Content
	}

	now := time.Now().UTC()
	v := &models.Version{
		DocumentID:  documentID,
		Content:     target.Content,
		UserID:      userID,
		Description: fmt.Sprintf("Reverted to version from %s", target.Timestamp.Format(time.RFC3339)),
		ChangeStats: lengthDelta(previous, target.Content),
	}

	doc.Content = target.Content
	doc.LastModifiedBy = userID
	doc.UpdatedAt = now

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Versions().Create(ctx, v); err != nil {
			return fmt.Errorf("creating revert version: %w", err)
		}
		if err := tx.Documents().Update(ctx, doc); err != nil {
			return fmt.Errorf("restoring document content: %w", err)
		}
		return s.recordContribution(ctx, tx, documentID, userID, username, v.ChangeStats)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document reverted",
		"document_id", documentID, "version_id", versionID, "user_id", userID)
	return v, nil
}

// Contributions returns the contribution rows for a document, most
// active contributors first.
func (s *Service) Contributions(ctx context.Context, documentID string) ([]*models.Contribution, error) {
	contribs, err := s.store.Contributions().ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	return contribs, nil
}

func (s *Service) recordContribution(ctx context.Context, tx store.Store, documentID, userID, username string, stats models.ChangeStats) error {
	c, err := tx.Contributions().Get(ctx, documentID, userID)
	if err != nil {
		return fmt.Errorf("loading contribution: %w", err)
	}
	if c == nil {
		c = &models.Contribution{
			DocumentID: documentID,
			UserID:     userID,
		}
	}
	if username != "" {
		c.Username = username
	}
	c.Stats.EditsCount++
	c.Stats.VersionsCreated++
	c.Stats.CharsAdded += stats.CharsAdded
	c.Stats.CharsDeleted += stats.CharsDeleted

	if err := tx.Contributions().Upsert(ctx, c); err != nil {
		return fmt.Errorf("updating contribution: %w", err)
	}
	return nil
}

// lengthDelta computes change statistics from content lengths alone.
// Growth counts as added characters, shrinkage as deleted; equal lengths
// report zero change even when the text differs.
func lengthDelta(previous, current string) models.ChangeStats {
	var stats models.ChangeStats
	switch {
	case len(current) > len(previous):
		stats.CharsAdded = len(current) - len(previous)
	case len(previous) > len(current):
		stats.CharsDeleted = len(previous) - len(current)
	}
	stats.TotalChanges = stats.CharsAdded + stats.CharsDeleted
	return stats
}
