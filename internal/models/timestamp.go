package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const calendarDateLayout = "2006-01-02"

// timestampLayouts lists the ISO-ish shapes produced by the interpreter and remote services.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	calendarDateLayout,
}

// Timestamp is a point in time that remembers the layout it was parsed from so it
// re-encodes the way the producer wrote it.
type Timestamp struct {
	time.Time
	layout string
}

// NewTimestamp wraps t using RFC3339 encoding.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, layout: time.RFC3339}
}

// ParseTimestamp parses any supported layout. Values without a zone are read as UTC wall clock.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, layout: layout}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp %q", raw)
}

// MustTimestamp parses raw and panics on failure. Intended for fixtures.
func MustTimestamp(raw string) Timestamp {
	ts, err := ParseTimestamp(raw)
	if err != nil {
		panic(err)
	}
	return ts
}

// String formats the timestamp in its source layout.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	layout := t.layout
	if layout == "" {
		layout = time.RFC3339
	}
	return t.Format(layout)
}

// CalendarDate returns the YYYY-MM-DD date in the timestamp's own offset.
func (t Timestamp) CalendarDate() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(calendarDateLayout)
}

// SameDate reports whether both timestamps are set and fall on the same calendar date.
func (t Timestamp) SameDate(other Timestamp) bool {
	if t.IsZero() || other.IsZero() {
		return false
	}
	return t.CalendarDate() == other.CalendarDate()
}

// MarshalJSON encodes zero values as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts null, empty strings and every supported layout.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML renders the same string form as JSON.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}
