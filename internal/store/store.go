// Package store provides database access interfaces and implementations.
package store

import (
	"context"

	"github.com/scribehub/scribe-server/internal/models"
)

// DocumentStore defines operations for document persistence. Reads and
// writes are atomic per row; there is no compare-and-swap primitive, so
// concurrent read-modify-write sequences against the same document race
// and the later write wins.
type DocumentStore interface {
	// Create creates a new document.
	Create(ctx context.Context, doc *models.Document) error
	// Get retrieves a document by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*models.Document, error)
	// Update overwrites an existing document row.
	Update(ctx context.Context, doc *models.Document) error
	// Delete removes a document.
	Delete(ctx context.Context, id string) error
	// ListAccessible retrieves all documents the user owns or collaborates on.
	ListAccessible(ctx context.Context, userID string) ([]*models.Document, error)
}

// InvitationStore defines operations for invitation persistence.
type InvitationStore interface {
	// Create creates a new invitation.
	Create(ctx context.Context, inv *models.Invitation) error
	// Get retrieves an invitation by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*models.Invitation, error)
	// GetPending retrieves the pending invitation for (documentID, email),
	// if one exists.
	GetPending(ctx context.Context, documentID, email string) (*models.Invitation, error)
	// ListPendingByEmail retrieves all pending invitations addressed to email.
	ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error)
	// CountPendingByEmail returns the number of pending invitations for email.
	CountPendingByEmail(ctx context.Context, email string) (int, error)
	// UpdateStatus records a status transition.
	UpdateStatus(ctx context.Context, inv *models.Invitation) error
	// DeleteByDocument removes all invitations for a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// VersionStore defines operations for the append-only version history.
type VersionStore interface {
	// Create appends a new version. Versions are never updated.
	Create(ctx context.Context, v *models.Version) error
	// Get retrieves a version by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*models.Version, error)
	// Latest retrieves the most recent version for a document, or (nil, nil).
	Latest(ctx context.Context, documentID string) (*models.Version, error)
	// ListByDocument retrieves all versions for a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]*models.Version, error)
	// DeleteByDocument removes all versions for a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ContributionStore defines operations for per-user contribution rows.
type ContributionStore interface {
	// Get retrieves the contribution row for (documentID, userID), or (nil, nil).
	Get(ctx context.Context, documentID, userID string) (*models.Contribution, error)
	// Upsert creates or overwrites the contribution row for its
	// (documentID, userID) pair.
	Upsert(ctx context.Context, c *models.Contribution) error
	// ListByDocument retrieves all contribution rows for a document.
	ListByDocument(ctx context.Context, documentID string) ([]*models.Contribution, error)
	// DeleteByDocument removes all contribution rows for a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Store is the main interface for database operations.
type Store interface {
	// Documents returns the DocumentStore.
	Documents() DocumentStore
	// Invitations returns the InvitationStore.
	Invitations() InvitationStore
	// Versions returns the VersionStore.
	Versions() VersionStore
	// Contributions returns the ContributionStore.
	Contributions() ContributionStore

	// WithTx executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
