package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

const icsProductID = "-//chatcal-api//agenda export//EN"

// CalendarEntry is one VEVENT of an iCalendar export.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Cancelled   bool
	// RelatedTo points a rescheduled entry at the entry it replaced.
	RelatedTo string
}

// ICSExporter renders calendar entries into an RFC 5545 document.
type ICSExporter struct {
	now func() time.Time
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{now: time.Now}
}

// Render serialises the entries. Entries without a start are skipped since VEVENT
// requires DTSTART for a published calendar.
func (e *ICSExporter) Render(name string, entries []CalendarEntry) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("ics entry %q has no uid", entry.Summary)
		}
		if entry.Start.IsZero() {
			continue
		}
		event := cal.AddEvent(entry.UID)
		event.SetDtStampTime(stamp)
		event.SetSummary(entry.Summary)
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}
		if entry.AllDay {
			event.SetAllDayStartAt(entry.Start)
			if !entry.End.IsZero() {
				event.SetAllDayEndAt(entry.End)
			}
		} else {
			event.SetStartAt(entry.Start)
			if !entry.End.IsZero() {
				event.SetEndAt(entry.End)
			}
		}
		if entry.Cancelled {
			event.SetStatus(ical.ObjectStatusCancelled)
		} else {
			event.SetStatus(ical.ObjectStatusConfirmed)
		}
		if entry.RelatedTo != "" {
			event.SetProperty(ical.ComponentPropertyRelatedTo, entry.RelatedTo)
		}
	}
	return []byte(cal.Serialize()), nil
}
