// Package permissions implements the pure access predicates that gate
// every document mutation. The functions here perform no I/O; callers load
// the document first and fail with an authorization error when the
// relevant predicate returns false.
package permissions

import "github.com/scribehub/scribe-server/internal/models"

// HasAccess reports whether userID may read the document: the owner and
// every collaborator have access regardless of permission level.
func HasAccess(doc *models.Document, userID string) bool {
	if doc == nil || userID == "" {
		return false
	}
	if doc.OwnerID == userID {
		return true
	}
	_, ok := doc.Collaborator(userID)
	return ok
}

// HasEditPermission reports whether userID may modify the document's
// title or content: the owner, or a collaborator with edit permission.
func HasEditPermission(doc *models.Document, userID string) bool {
	if doc == nil || userID == "" {
		return false
	}
	if doc.OwnerID == userID {
		return true
	}
	c, ok := doc.Collaborator(userID)
	return ok && c.Permission == models.PermissionEdit
}

// CanShare reports whether userID may add collaborators directly. Sharing
// requires the same rights as editing.
func CanShare(doc *models.Document, userID string) bool {
	return HasEditPermission(doc, userID)
}
