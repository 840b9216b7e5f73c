// Package documents implements the document aggregate: create, read,
// update, direct sharing, deletion and the accessible-documents listing.
// Access checks happen here, before any mutation reaches the store.
package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/scribehub/scribe-server/internal/errs"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/permissions"
	"github.com/scribehub/scribe-server/internal/store"
	"github.com/scribehub/scribe-server/pkg/logger"
)

// Service manages document lifecycle and sharing.
type Service struct {
	store   store.Store
	cascade bool
	logger  *logger.Logger
}

// NewService creates a document service. When cascade is true, deleting a
// document also removes its invitations, versions and contributions.
func NewService(st store.Store, cascade bool, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:   st,
		cascade: cascade,
		logger:  log.WithComponent("documents"),
	}
}

// CreateInput holds the fields for creating a document.
type CreateInput struct {
	Title   string
	Content string
}

// Create creates a new document owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*models.Document, error) {
	if ownerID == "" {
		return nil, errs.Validation("owner id is required")
	}
	if in.Title == "" {
		return nil, errs.Validation("title is required")
	}

	doc := &models.Document{
		Title:         in.Title,
		Content:       in.Content,
		OwnerID:       ownerID,
		Collaborators: []models.Collaborator{},
	}

	if err := s.store.Documents().Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	s.logger.Info("document created", "document_id", doc.ID, "owner_id", ownerID)
	return doc, nil
}

// Get retrieves a document, enforcing read access for userID.
func (s *Service) Get(ctx context.Context, documentID, userID string) (*models.Document, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !permissions.HasAccess(doc, userID) {
		return nil, errs.Authorization("no access to document %s", documentID)
	}
	return doc, nil
}

// UpdateInput holds the partial update fields. Nil means leave unchanged.
type UpdateInput struct {
	Title   *string
	Content *string
}

// Update applies a partial update to the document's title and content.
// Requires edit permission. Concurrent updates are last-write-wins.
func (s *Service) Update(ctx context.Context, documentID, userID string, in UpdateInput) (*models.Document, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !permissions.HasEditPermission(doc, userID) {
		return nil, errs.Authorization("edit permission required for document %s", documentID)
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, errs.Validation("title cannot be empty")
		}
		doc.Title = *in.Title
	}
	if in.Content != nil {
		doc.Content = *in.Content
	}
	doc.LastModifiedBy = userID
	doc.UpdatedAt = time.Now().UTC()

	if err := s.store.Documents().Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}
	return doc, nil
}

// Share adds targetUserID as a direct collaborator. The requester needs
// edit rights; the owner and existing collaborators cannot be re-added.
func (s *Service) Share(ctx context.Context, documentID, requesterID, targetUserID string, perm models.Permission) (*models.Document, error) {
	if targetUserID == "" {
		return nil, errs.Validation("target user id is required")
	}
	if !perm.Valid() {
		return nil, errs.Validation("invalid permission %q", perm)
	}

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanShare(doc, requesterID) {
		return nil, errs.Authorization("no permission to share document %s", documentID)
	}
	if targetUserID == doc.OwnerID {
		return nil, errs.Conflict("user %s owns this document", targetUserID)
	}
	if _, ok := doc.Collaborator(targetUserID); ok {
		return nil, errs.Conflict("user %s is already a collaborator", targetUserID)
	}

	now := time.Now().UTC()
	doc.Collaborators = append(doc.Collaborators, models.Collaborator{
		UserID:     targetUserID,
		Permission: perm,
		AddedAt:    now,
	})
	doc.UpdatedAt = now

	if err := s.store.Documents().Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("sharing document: %w", err)
	}

	s.logger.Info("document shared",
		"document_id", documentID, "target_user_id", targetUserID, "permission", perm)
	return doc, nil
}

// Delete removes a document. Only the owner may delete. When cascade is
// enabled the document's invitations, versions and contributions go with
// it in one transaction.
func (s *Service) Delete(ctx context.Context, documentID, userID string) error {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != userID {
		return errs.Authorization("only the owner can delete document %s", documentID)
	}

	if !s.cascade {
		if err := s.store.Documents().Delete(ctx, documentID); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		s.logger.Info("document deleted", "document_id", documentID)
		return nil
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Invitations().DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("deleting invitations: %w", err)
		}
		if err := tx.Versions().DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("deleting versions: %w", err)
		}
		if err := tx.Contributions().DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("deleting contributions: %w", err)
		}
		if err := tx.Documents().Delete(ctx, documentID); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("document deleted", "document_id", documentID, "cascade", true)
	return nil
}

// ListAccessible returns every document userID owns or collaborates on.
func (s *Service) ListAccessible(ctx context.Context, userID string) ([]*models.Document, error) {
	if userID == "" {
		return nil, errs.Validation("user id is required")
	}
	docs, err := s.store.Documents().ListAccessible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

func (s *Service) load(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.store.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return nil, errs.NotFound("document %s not found", documentID)
	}
	return doc, nil
}
