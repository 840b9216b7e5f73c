package models

import "time"

// MessageType identifies a relay message kind.
type MessageType string

const (
	// MessageTypeContentChange carries an edit notification.
	MessageTypeContentChange MessageType = "content-change"
	// MessageTypeUserJoined announces a user joining a document session.
	MessageTypeUserJoined MessageType = "user-joined"
	// MessageTypeUserLeft announces a user leaving a document session.
	MessageTypeUserLeft MessageType = "user-left"
	// MessageTypeCursorPosition carries a cursor location update.
	MessageTypeCursorPosition MessageType = "cursor-position"
)

// Message is an ephemeral presence or edit notification. It exists only on
// the wire: the relay never persists it, and its content payload is not
// authoritative for the stored document.
type Message struct {
	Type           MessageType `json:"type"`
	DocumentID     string      `json:"document_id"`
	UserID         string      `json:"user_id"`
	Username       string      `json:"username"`
	Permission     string      `json:"permission,omitempty"`
	Content        string      `json:"content,omitempty"`
	CursorPosition int         `json:"cursor_position,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
