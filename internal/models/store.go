package models

import "time"

// StoreSnapshot is an immutable view of the event store at a revision.
type StoreSnapshot struct {
	Revision  uint64    `json:"revision" yaml:"revision"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Events    []Event   `json:"events" yaml:"events"`
}

// SyncStatus describes the health of the remote sync adapter for the presentation layer.
type SyncStatus struct {
	Enabled             bool       `json:"enabled"`
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	Retryable           bool       `json:"retryable"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastEventCount      int        `json:"last_event_count"`
}

// Healthy reports whether the last attempt succeeded.
func (s SyncStatus) Healthy() bool {
	return s.LastError == ""
}

// EventFilter narrows server event listings.
type EventFilter struct {
	IncludeDeleted bool
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// Pagination describes a paged listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// RevisionNotice is broadcast whenever the store advances to a new revision.
type RevisionNotice struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Revision   uint64    `json:"revision"`
	Source     string    `json:"source,omitempty"`
	EventCount int       `json:"event_count"`
	Timestamp  time.Time `json:"timestamp"`
}
