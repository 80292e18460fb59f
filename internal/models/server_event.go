package models

import "time"

// ServerEvent is an event record as served by the remote events service. Flags use
// snake_case; camelCase variants are tolerated for older payloads.
type ServerEvent struct {
	ID                   string           `json:"id"`
	Title                string           `json:"title"`
	Start                Timestamp        `json:"start"`
	End                  Timestamp        `json:"end"`
	AllDay               bool             `json:"all_day"`
	AllDayCamel          *bool            `json:"allDay,omitempty"`
	Description          string           `json:"description"`
	IsDeleted            bool             `json:"is_deleted"`
	IsDeletedCamel       *bool            `json:"isDeleted,omitempty"`
	RescheduledFrom      *RescheduledFrom `json:"rescheduled_from,omitempty"`
	RescheduledFromCamel *RescheduledFrom `json:"rescheduledFrom,omitempty"`
	CreatedAt            *time.Time       `json:"created_at,omitempty"`
	UpdatedAt            *time.Time       `json:"updated_at,omitempty"`
}

// Normalize maps the server record onto the client Event shape.
func (s ServerEvent) Normalize() Event {
	event := Event{
		ID:              s.ID,
		Title:           s.Title,
		Start:           s.Start,
		End:             s.End,
		AllDay:          s.AllDay,
		Description:     s.Description,
		IsDeleted:       s.IsDeleted,
		RescheduledFrom: s.RescheduledFrom,
	}
	if s.AllDayCamel != nil && !s.AllDay {
		event.AllDay = *s.AllDayCamel
	}
	if s.IsDeletedCamel != nil && !s.IsDeleted {
		event.IsDeleted = *s.IsDeletedCamel
	}
	if event.RescheduledFrom == nil && s.RescheduledFromCamel != nil {
		event.RescheduledFrom = s.RescheduledFromCamel
	}
	return event.Clone()
}

// NormalizeServerEvents converts a list of server records preserving order.
func NormalizeServerEvents(records []ServerEvent) []Event {
	events := make([]Event, 0, len(records))
	for _, record := range records {
		events = append(events, record.Normalize())
	}
	return events
}

// ServerEventFromEvent renders an event in the server wire shape.
func ServerEventFromEvent(e Event) ServerEvent {
	e = e.Clone()
	return ServerEvent{
		ID:              e.ID,
		Title:           e.Title,
		Start:           e.Start,
		End:             e.End,
		AllDay:          e.AllDay,
		Description:     e.Description,
		IsDeleted:       e.IsDeleted,
		RescheduledFrom: e.RescheduledFrom,
	}
}
