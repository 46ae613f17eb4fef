package store

import "time"

// Run is one assemble call.
type Run struct {
	ID          string
	Fingerprint string
	Variables   []string
	Years       []string
	JoinKey     string
	JoinMode    string
	Phase       string
	Error       string
	Rows        int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Artifact is one decoded file materialized in the cache.
type Artifact struct {
	Year      string
	File      string
	Path      string
	SourceURL string
	Rows      int
	Columns   int
	SHA256    string
	RunID     string
	CreatedAt time.Time
}
