// Package invitations implements the email-based invitation lifecycle:
// send, accept, decline, cancel, and the recipient-facing pending views.
// Expiry is lazy; an invitation past its deadline is marked EXPIRED the
// moment someone tries to accept or decline it.
package invitations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scribehub/scribe-server/internal/errs"
	"github.com/scribehub/scribe-server/internal/identity"
	"github.com/scribehub/scribe-server/internal/models"
	"github.com/scribehub/scribe-server/internal/store"
	"github.com/scribehub/scribe-server/pkg/logger"
)

// DefaultTTL is how long an invitation stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

// Service manages the invitation lifecycle.
type Service struct {
	store    store.Store
	resolver identity.Resolver
	ttl      time.Duration
	logger   *logger.Logger
}

// NewService creates an invitation service. A non-positive ttl falls back
// to DefaultTTL.
func NewService(st store.Store, resolver identity.Resolver, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:    st,
		resolver: resolver,
		ttl:      ttl,
		logger:   log.WithComponent("invitations"),
	}
}

// SendInput holds the fields for sending an invitation.
type SendInput struct {
	DocumentID string
	Email      string
	Permission models.Permission
	Message    string
}

// Send creates a PENDING invitation from senderID to the given email.
// Only the document owner can invite; the recipient must not already be a
// collaborator, and at most one pending invitation may exist per
// (document, email) pair.
func (s *Service) Send(ctx context.Context, senderID string, in SendInput) (*models.Invitation, error) {
	if in.Email == "" {
		return nil, errs.Validation("invited email is required")
	}
	if !in.Permission.Valid() {
		return nil, errs.Validation("invalid permission %q", in.Permission)
	}

	doc, err := s.store.Documents().Get(ctx, in.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return nil, errs.NotFound("document %s not found", in.DocumentID)
	}
	if doc.OwnerID != senderID {
		return nil, errs.Authorization("only the owner can send invitations for document %s", in.DocumentID)
	}
	if doc.HasCollaboratorEmail(in.Email) {
		return nil, errs.Conflict("%s is already a collaborator", in.Email)
	}

	pending, err := s.store.Invitations().GetPending(ctx, in.DocumentID, in.Email)
	if err != nil {
		return nil, fmt.Errorf("checking pending invitations: %w", err)
	}
	if pending != nil {
		return nil, errs.Conflict("invitation already sent to %s", in.Email)
	}

	message := in.Message
	if message == "" {
		message = fmt.Sprintf("You've been invited to collaborate on %s", doc.Title)
	}

	now := time.Now().UTC()
	inv := &models.Invitation{
		DocumentID:    in.DocumentID,
		DocumentTitle: doc.Title,
		InvitedBy: models.InvitationUser{
			UserID: senderID,
			Email:  s.resolver.ResolveEmail(ctx, senderID),
		},
		InvitedUser: models.InvitationUser{Email: in.Email},
		Permission:  in.Permission,
		Status:      models.InvitationStatusPending,
		Message:     message,
		InvitedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	// The partial unique index backstops the GetPending check, so a racing
	// duplicate send still surfaces as a conflict.
	if err := s.store.Invitations().Create(ctx, inv); err != nil {
		if errs.Is(err, errs.KindConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	s.logger.Info("invitation sent",
		"invitation_id", inv.ID, "document_id", in.DocumentID, "email", in.Email)
	return inv, nil
}

// Accept turns a pending invitation into collaborator rights for userID.
// The caller's token email must match the invited address. An invitation
// past its deadline is persisted as EXPIRED and the accept fails.
func (s *Service) Accept(ctx context.Context, invitationID, userID, email string) (*models.Document, error) {
	inv, err := s.load(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUser.Email != email {
		return nil, errs.Authorization("invitation %s is addressed to a different user", invitationID)
	}
	if inv.Status != models.InvitationStatusPending {
		return nil, errs.Conflict("invitation already %s", strings.ToLower(string(inv.Status)))
	}

	now := time.Now().UTC()
	if inv.IsExpired(now) {
		return nil, s.expire(ctx, inv, now)
	}

	doc, err := s.store.Documents().Get(ctx, inv.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return nil, errs.NotFound("document %s no longer exists", inv.DocumentID)
	}

	if _, ok := doc.Collaborator(userID); !ok && doc.OwnerID != userID {
		doc.Collaborators = append(doc.Collaborators, models.Collaborator{
			UserID:     userID,
			Email:      email,
			Permission: inv.Permission,
			AddedAt:    now,
		})
		doc.UpdatedAt = now
	}

	inv.Status = models.InvitationStatusAccepted
	inv.RespondedAt = &now
	inv.InvitedUser.UserID = userID

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Documents().Update(ctx, doc); err != nil {
			return fmt.Errorf("adding collaborator: %w", err)
		}
		if err := tx.Invitations().UpdateStatus(ctx, inv); err != nil {
			return fmt.Errorf("accepting invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation accepted",
		"invitation_id", invitationID, "document_id", inv.DocumentID, "user_id", userID)
	return doc, nil
}

// Decline marks a pending invitation DECLINED. The caller's token email
// must match the invited address. Like Accept, a decline past the
// deadline persists EXPIRED instead.
func (s *Service) Decline(ctx context.Context, invitationID, email string) (*models.Invitation, error) {
	inv, err := s.load(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUser.Email != email {
		return nil, errs.Authorization("invitation %s is addressed to a different user", invitationID)
	}
	if inv.Status != models.InvitationStatusPending {
		return nil, errs.Conflict("invitation already %s", strings.ToLower(string(inv.Status)))
	}

	now := time.Now().UTC()
	if inv.IsExpired(now) {
		return nil, s.expire(ctx, inv, now)
	}

	inv.Status = models.InvitationStatusDeclined
	inv.RespondedAt = &now

	if err := s.store.Invitations().UpdateStatus(ctx, inv); err != nil {
		return nil, fmt.Errorf("declining invitation: %w", err)
	}

	s.logger.Info("invitation declined", "invitation_id", invitationID)
	return inv, nil
}

// Cancel withdraws an invitation. Only the sender may cancel, and only
// while the invitation is still pending.
func (s *Service) Cancel(ctx context.Context, invitationID, senderID string) error {
	inv, err := s.load(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.InvitedBy.UserID != senderID {
		return errs.Authorization("only the sender can cancel invitation %s", invitationID)
	}
	if inv.Status.Terminal() {
		return errs.Conflict("invitation already %s", strings.ToLower(string(inv.Status)))
	}

	now := time.Now().UTC()
	inv.Status = models.InvitationStatusCancelled
	inv.RespondedAt = &now

	if err := s.store.Invitations().UpdateStatus(ctx, inv); err != nil {
		return fmt.Errorf("cancelling invitation: %w", err)
	}

	s.logger.Info("invitation cancelled", "invitation_id", invitationID)
	return nil
}

// ListPending returns all pending invitations addressed to email.
func (s *Service) ListPending(ctx context.Context, email string) ([]*models.Invitation, error) {
	invs, err := s.store.Invitations().ListPendingByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invs, nil
}

// CountPending returns the number of pending invitations for email.
func (s *Service) CountPending(ctx context.Context, email string) (int, error) {
	n, err := s.store.Invitations().CountPendingByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("counting invitations: %w", err)
	}
	return n, nil
}

// expire persists the EXPIRED status for an invitation whose deadline
// has passed. Expiry is a terminal transition, so it stamps respondedAt
// like the other terminal states.
func (s *Service) expire(ctx context.Context, inv *models.Invitation, now time.Time) error {
	inv.Status = models.InvitationStatusExpired
	inv.RespondedAt = &now
	if err := s.store.Invitations().UpdateStatus(ctx, inv); err != nil {
		return fmt.Errorf("marking invitation expired: %w", err)
	}
	return errs.Expired("invitation %s has expired", inv.ID)
}

func (s *Service) load(ctx context.Context, invitationID string) (*models.Invitation, error) {
	inv, err := s.store.Invitations().Get(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("loading invitation: %w", err)
	}
	if inv == nil {
		return nil, errs.NotFound("invitation %s not found", invitationID)
	}
	return inv, nil
}
