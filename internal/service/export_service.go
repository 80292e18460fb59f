package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/pkg/export"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

const (
	exportCalendarName = "Chat Calendar"
	exportBaseName     = "agenda"
)

var exportHeaders = []string{"ID", "Title", "Start", "End", "All Day", "Status", "Rescheduled From", "Description"}

type snapshotSource interface {
	Snapshot() models.StoreSnapshot
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, entries []export.CalendarEntry) ([]byte, error)
}

// ExportFile is a rendered agenda ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Revision    uint64
}

// ExportService renders the store as CSV, PDF or iCalendar.
type ExportService struct {
	source snapshotSource
	csv    csvRenderer
	pdf    pdfRenderer
	ics    icsRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(source snapshotSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ics icsRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, ics: ics, logger: logger}
}

// Export renders the current store. Soft-deleted events are only included on request.
func (s *ExportService) Export(rawFormat string, includeDeleted bool) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	snapshot := s.source.Snapshot()
	events := make([]models.Event, 0, len(snapshot.Events))
	for _, e := range snapshot.Events {
		if e.IsDeleted && !includeDeleted {
			continue
		}
		events = append(events, e)
	}

	var payload []byte
	switch format {
	case export.FormatICS:
		payload, err = s.ics.Render(exportCalendarName, calendarEntries(events))
	case export.FormatPDF:
		payload, err = s.pdf.Render(agendaDataset(events), export.PDFOptions{
			Title:    exportCalendarName,
			Subtitle: fmt.Sprintf("Revision %d, %d events", snapshot.Revision, len(events)),
			Widths:   []float64{1.4, 2.4, 1.6, 1.6, 0.8, 0.9, 1.4, 2.8},
		})
	default:
		payload, err = s.csv.Render(agendaDataset(events))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("agenda exported",
		zap.String("format", string(format)),
		zap.Int("events", len(events)),
		zap.Uint64("revision", snapshot.Revision),
	)
	return &ExportFile{
		Filename:    format.Filename(exportBaseName),
		ContentType: format.ContentType(),
		Data:        payload,
		Revision:    snapshot.Revision,
	}, nil
}

func agendaDataset(events []models.Event) export.Dataset {
	rows := make([]map[string]string, 0, len(events))
	for _, e := range events {
		status := "active"
		if e.IsDeleted {
			status = "deleted"
		}
		allDay := "no"
		if e.AllDay {
			allDay = "yes"
		}
		var from string
		if e.RescheduledFrom != nil {
			from = e.RescheduledFrom.ID
		}
		rows = append(rows, map[string]string{
			"ID":               e.ID,
			"Title":            e.Title,
			"Start":            e.Start.String(),
			"End":              e.End.String(),
			"All Day":          allDay,
			"Status":           status,
			"Rescheduled From": from,
			"Description":      e.Description,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func calendarEntries(events []models.Event) []export.CalendarEntry {
	entries := make([]export.CalendarEntry, 0, len(events))
	for _, e := range events {
		entry := export.CalendarEntry{
			UID:         e.ID,
			Summary:     e.Title,
			Description: e.Description,
			Start:       e.Start.Time,
			End:         e.End.Time,
			AllDay:      e.AllDay,
			Cancelled:   e.IsDeleted,
		}
		if e.RescheduledFrom != nil {
			entry.RelatedTo = e.RescheduledFrom.ID
		}
		if entry.AllDay && entry.End.IsZero() && !entry.Start.IsZero() {
			entry.End = entry.Start.Add(24 * time.Hour)
		}
		entries = append(entries, entry)
	}
	return entries
}
