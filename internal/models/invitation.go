package models

import "time"

// InvitationStatus represents the status of a document invitation.
type InvitationStatus string

const (
	// InvitationStatusPending indicates the invitation has not been responded to.
	InvitationStatusPending InvitationStatus = "PENDING"
	// InvitationStatusAccepted indicates the invitation has been accepted.
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	// InvitationStatusDeclined indicates the invitation has been declined.
	InvitationStatusDeclined InvitationStatus = "DECLINED"
	// InvitationStatusCancelled indicates the sender withdrew the invitation.
	InvitationStatusCancelled InvitationStatus = "CANCELLED"
	// InvitationStatusExpired indicates the invitation passed its expiry.
	InvitationStatusExpired InvitationStatus = "EXPIRED"
)

// Terminal reports whether the status is immutable once reached.
func (s InvitationStatus) Terminal() bool {
	switch s {
	case InvitationStatusAccepted, InvitationStatusDeclined,
		InvitationStatusCancelled, InvitationStatusExpired:
		return true
	}
	return false
}

// InvitationUser identifies a party to an invitation. UserID is optional
// for the invited side until acceptance; Email is always set.
type InvitationUser struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
}

// Invitation is a pending offer of collaborator rights on a document.
// DocumentTitle is a snapshot taken at send time.
type Invitation struct {
	ID            string           `json:"id"`
	DocumentID    string           `json:"document_id"`
	DocumentTitle string           `json:"document_title"`
	InvitedBy     InvitationUser   `json:"invited_by"`
	InvitedUser   InvitationUser   `json:"invited_user"`
	Permission    Permission       `json:"permission"`
	Status        InvitationStatus `json:"status"`
	Message       string           `json:"message,omitempty"`
	InvitedAt     time.Time        `json:"invited_at"`
	RespondedAt   *time.Time       `json:"responded_at,omitempty"`
	ExpiresAt     time.Time        `json:"expires_at"`
}

// IsExpired returns true if the invitation is past its expiry at t.
func (i *Invitation) IsExpired(t time.Time) bool {
	return t.After(i.ExpiresAt)
}
