package models

import "strings"

// MutationAction enumerates the chat mutations the interpreter can report.
type MutationAction string

const (
	MutationActionCreate     MutationAction = "create"
	MutationActionDelete     MutationAction = "delete"
	MutationActionReschedule MutationAction = "reschedule"
)

// Valid reports whether the action is one of the supported mutations.
func (a MutationAction) Valid() bool {
	switch a {
	case MutationActionCreate, MutationActionDelete, MutationActionReschedule:
		return true
	default:
		return false
	}
}

// normalize lowercases and trims the action.
func (a MutationAction) normalize() MutationAction {
	return MutationAction(strings.ToLower(strings.TrimSpace(string(a))))
}

// MutationEvent is the event payload of a MutationResult. Its meaning depends on the action:
// the new event for create, the search hint for delete, the replacement for reschedule.
type MutationEvent struct {
	ID              string           `json:"id,omitempty" yaml:"id,omitempty"`
	Title           string           `json:"title" yaml:"title"`
	Start           Timestamp        `json:"start" yaml:"start"`
	End             Timestamp        `json:"end" yaml:"end"`
	AllDay          bool             `json:"allDay" yaml:"allDay"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty"`
	IsDeleted       bool             `json:"isDeleted,omitempty" yaml:"isDeleted,omitempty"`
	OriginalStart   Timestamp        `json:"originalStart" yaml:"originalStart"`
	OriginalEnd     Timestamp        `json:"originalEnd" yaml:"originalEnd"`
	RescheduledFrom *RescheduledFrom `json:"rescheduled_from,omitempty" yaml:"rescheduled_from,omitempty"`
	Action          MutationAction   `json:"action,omitempty" yaml:"action,omitempty"`
}

// ToEvent copies the event-shaped fields of the payload.
func (m MutationEvent) ToEvent() Event {
	e := Event{
		ID:          m.ID,
		Title:       m.Title,
		Start:       m.Start,
		End:         m.End,
		AllDay:      m.AllDay,
		Description: m.Description,
		IsDeleted:   m.IsDeleted,
	}
	if m.RescheduledFrom != nil {
		ref := *m.RescheduledFrom
		e.RescheduledFrom = &ref
	}
	return e
}

// RescheduledFromID returns the identifier carried in rescheduled_from, if any.
func (m MutationEvent) RescheduledFromID() string {
	if m.RescheduledFrom == nil {
		return ""
	}
	return strings.TrimSpace(m.RescheduledFrom.ID)
}

// MutationResult is the structured output of the mutation interpreter for one chat turn.
type MutationResult struct {
	Message         string         `json:"message" yaml:"message"`
	Action          MutationAction `json:"action,omitempty" yaml:"action,omitempty"`
	Event           *MutationEvent `json:"event" yaml:"event"`
	OriginalEventID string         `json:"original_event_id,omitempty" yaml:"original_event_id,omitempty"`
}

// EffectiveAction resolves the action to apply. A top-level action wins over one nested
// in the event; an event without any action is a create.
func (r MutationResult) EffectiveAction() MutationAction {
	if action := r.Action.normalize(); action != "" {
		return action
	}
	if r.Event == nil {
		return ""
	}
	if action := r.Event.Action.normalize(); action != "" {
		return action
	}
	return MutationActionCreate
}
