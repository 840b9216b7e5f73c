// Package models provides data structures for the collaboration service.
package models

import (
	"time"

	"github.com/scribehub/scribe-server/internal/errs"
)

// Permission represents the access level granted to a collaborator.
type Permission string

const (
	// PermissionEdit allows reading and modifying a document.
	PermissionEdit Permission = "edit"
	// PermissionView allows read-only access to a document.
	PermissionView Permission = "view"
)

// Valid reports whether the permission is one of the known variants.
func (p Permission) Valid() bool {
	return p == PermissionEdit || p == PermissionView
}

// ParsePermission converts a wire string into a Permission. Anything
// outside the closed set is a validation error.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", errs.Validation("invalid permission %q, must be %q or %q", s, PermissionEdit, PermissionView)
	}
	return p, nil
}

// Collaborator is a user granted access to a document, distinct from its owner.
type Collaborator struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email,omitempty"` // set on invitation acceptance, empty for direct shares
	Permission Permission `json:"permission"`
	AddedAt    time.Time  `json:"added_at"`
}

// Document represents a shared editable text document.
// The owner is never a member of its own collaborator list, and a given
// user appears at most once in Collaborators.
type Document struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	OwnerID        string         `json:"owner_id"`
	Collaborators  []Collaborator `json:"collaborators"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastModifiedBy string         `json:"last_modified_by,omitempty"`
}

// Collaborator returns the collaborator entry for userID, if present.
func (d *Document) Collaborator(userID string) (Collaborator, bool) {
	for _, c := range d.Collaborators {
		if c.UserID == userID {
			return c, true
		}
	}
	return Collaborator{}, false
}

// HasCollaboratorEmail reports whether email already belongs to a collaborator.
func (d *Document) HasCollaboratorEmail(email string) bool {
	for _, c := range d.Collaborators {
		if c.Email != "" && c.Email == email {
			return true
		}
	}
	return false
}
