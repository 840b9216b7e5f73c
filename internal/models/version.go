package models

import "time"

// ChangeStats holds the length-delta statistics for a version. The deltas
// are a coarse proxy for edit distance, not a true diff: replacing content
// with different text of the same length reports zero net change.
type ChangeStats struct {
	CharsAdded   int `json:"chars_added"`
	CharsDeleted int `json:"chars_deleted"`
	TotalChanges int `json:"total_changes"`
}

// Version is an immutable full-content snapshot in a document's
// append-only history. Versions are never updated or deleted individually.
type Version struct {
	ID          string      `json:"id"`
	DocumentID  string      `json:"document_id"`
	Content     string      `json:"content"`
	UserID      string      `json:"user_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description,omitempty"`
	ChangeStats ChangeStats `json:"change_stats"`
}
