package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Event is a calendar entry held in the client event store.
type Event struct {
	ID              string           `json:"id" yaml:"id"`
	Title           string           `json:"title" yaml:"title"`
	Start           Timestamp        `json:"start" yaml:"start"`
	End             Timestamp        `json:"end" yaml:"end"`
	AllDay          bool             `json:"allDay" yaml:"allDay"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty"`
	IsDeleted       bool             `json:"isDeleted" yaml:"isDeleted"`
	RescheduledFrom *RescheduledFrom `json:"rescheduledFrom,omitempty" yaml:"rescheduledFrom,omitempty"`
}

// Active reports whether the event has not been soft deleted.
func (e Event) Active() bool {
	return !e.IsDeleted
}

// Clone returns a deep copy.
func (e Event) Clone() Event {
	if e.RescheduledFrom != nil {
		ref := *e.RescheduledFrom
		e.RescheduledFrom = &ref
	}
	return e
}

// CloneEvents deep copies a slice of events.
func CloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}

// RescheduledFrom references the event a rescheduled event superseded. It is either a
// bare id or an embedded snapshot of the original times.
type RescheduledFrom struct {
	ID    string    `json:"id,omitempty" yaml:"id,omitempty"`
	Start Timestamp `json:"start" yaml:"start"`
	End   Timestamp `json:"end" yaml:"end"`
}

// RescheduledFromID builds an id-only back reference.
func RescheduledFromID(id string) *RescheduledFrom {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return &RescheduledFrom{ID: id}
}

// IDOnly reports whether the reference carries no embedded snapshot.
func (r RescheduledFrom) IDOnly() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

type rescheduledFromAlias RescheduledFrom

// MarshalJSON encodes id-only references as plain strings.
func (r RescheduledFrom) MarshalJSON() ([]byte, error) {
	if r.IDOnly() {
		return json.Marshal(r.ID)
	}
	return json.Marshal(rescheduledFromAlias(r))
}

// UnmarshalJSON accepts either a string id or an object snapshot.
func (r *RescheduledFrom) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = RescheduledFrom{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*r = RescheduledFrom{ID: id}
		return nil
	}
	var alias rescheduledFromAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return err
	}
	*r = RescheduledFrom(alias)
	return nil
}

// MarshalYAML mirrors the JSON shape.
func (r RescheduledFrom) MarshalYAML() (interface{}, error) {
	if r.IDOnly() {
		return r.ID, nil
	}
	return map[string]interface{}{"id": r.ID, "start": r.Start.String(), "end": r.End.String()}, nil
}
