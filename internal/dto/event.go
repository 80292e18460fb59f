package dto

import (
	"time"

	"github.com/noah-isme/chatcal-api/internal/models"
)

// CreateEventRequest payload for adding an authoritative event.
type CreateEventRequest struct {
	ID          string           `json:"id" validate:"omitempty,max=64"`
	Title       string           `json:"title" validate:"required,max=200"`
	Start       models.Timestamp `json:"start"`
	End         models.Timestamp `json:"end"`
	AllDay      bool             `json:"allDay"`
	Description string           `json:"description" validate:"max=2000"`
}

// RescheduleEventRequest describes the replacement of an existing event. Blank title and
// description are inherited from the original.
type RescheduleEventRequest struct {
	ID          string           `json:"id" validate:"omitempty,max=64"`
	Title       string           `json:"title" validate:"max=200"`
	Start       models.Timestamp `json:"start"`
	End         models.Timestamp `json:"end"`
	AllDay      bool             `json:"allDay"`
	Description string           `json:"description" validate:"max=2000"`
}

// EventQuery mirrors supported listing filters.
type EventQuery struct {
	IncludeDeleted bool
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// CleanResult reports how many soft-deleted events were permanently removed.
type CleanResult struct {
	Removed  int64  `json:"removed"`
	Revision uint64 `json:"revision,omitempty"`
}
