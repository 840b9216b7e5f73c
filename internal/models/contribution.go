package models

// ContributionStats is a running aggregate of a user's edit activity on a
// document. Counters are only ever incremented.
type ContributionStats struct {
	EditsCount      int `json:"edits_count"`
	CharsAdded      int `json:"chars_added"`
	CharsDeleted    int `json:"chars_deleted"`
	VersionsCreated int `json:"versions_created"`
}

// Contribution tracks one (document, user) pair's accumulated activity.
type Contribution struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	UserID     string            `json:"user_id"`
	Username   string            `json:"username"`
	Stats      ContributionStats `json:"stats"`
}
