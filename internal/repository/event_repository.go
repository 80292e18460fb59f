package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/chatcal-api/internal/models"
)

var (
	// ErrEventActive is returned when cleaning a row that has not been soft deleted.
	ErrEventActive = errors.New("event is not soft deleted")
	// ErrEventDeleted is returned when rescheduling a row that is already soft deleted.
	ErrEventDeleted = errors.New("event already deleted")
)

const eventColumns = `id, title, description, start_at, end_at, all_day, is_deleted, rescheduled_from_id, rescheduled_from_start, rescheduled_from_end, created_at, updated_at`

type eventRow struct {
	ID                   string         `db:"id"`
	Title                string         `db:"title"`
	Description          string         `db:"description"`
	StartAt              sql.NullTime   `db:"start_at"`
	EndAt                sql.NullTime   `db:"end_at"`
	AllDay               bool           `db:"all_day"`
	IsDeleted            bool           `db:"is_deleted"`
	RescheduledFromID    sql.NullString `db:"rescheduled_from_id"`
	RescheduledFromStart sql.NullTime   `db:"rescheduled_from_start"`
	RescheduledFromEnd   sql.NullTime   `db:"rescheduled_from_end"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func nullTime(ts models.Timestamp) sql.NullTime {
	if ts.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts.UTC(), Valid: true}
}

func timestampOf(nt sql.NullTime) models.Timestamp {
	if !nt.Valid {
		return models.Timestamp{}
	}
	return models.NewTimestamp(nt.Time.UTC())
}

func rowFromEvent(e models.Event, now time.Time) eventRow {
	row := eventRow{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartAt:     nullTime(e.Start),
		EndAt:       nullTime(e.End),
		AllDay:      e.AllDay,
		IsDeleted:   e.IsDeleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ref := e.RescheduledFrom; ref != nil && ref.ID != "" {
		row.RescheduledFromID = sql.NullString{String: ref.ID, Valid: true}
		row.RescheduledFromStart = nullTime(ref.Start)
		row.RescheduledFromEnd = nullTime(ref.End)
	}
	return row
}

func (r eventRow) toServerEvent() models.ServerEvent {
	event := models.Event{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Start:       timestampOf(r.StartAt),
		End:         timestampOf(r.EndAt),
		AllDay:      r.AllDay,
		IsDeleted:   r.IsDeleted,
	}
	if r.RescheduledFromID.Valid {
		event.RescheduledFrom = &models.RescheduledFrom{
			ID:    r.RescheduledFromID.String,
			Start: timestampOf(r.RescheduledFromStart),
			End:   timestampOf(r.RescheduledFromEnd),
		}
	}
	server := models.ServerEventFromEvent(event)
	created, updated := r.CreatedAt, r.UpdatedAt
	server.CreatedAt = &created
	server.UpdatedAt = &updated
	return server
}

// EventRepository persists the authoritative server-side event list.
type EventRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// List returns events matching filters ordered by start, with the total count.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.ServerEvent, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if !filter.IncludeDeleted {
		where = append(where, "is_deleted = FALSE")
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("COALESCE(end_at, start_at) >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("start_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE %s ORDER BY start_at ASC NULLS LAST, created_at ASC LIMIT %d OFFSET %d`, eventColumns, whereClause, size, offset)
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list calendar events: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM calendar_events WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count calendar events: %w", err)
	}

	events := make([]models.ServerEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toServerEvent())
	}
	return events, total, nil
}

// GetByID fetches one event, soft-deleted ones included. Missing rows yield sql.ErrNoRows.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.ServerEvent, error) {
	var row eventRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id); err != nil {
		return nil, err
	}
	event := row.toServerEvent()
	return &event, nil
}

// Create inserts an event, generating an id when absent.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.ServerEvent, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	row := rowFromEvent(*event, r.now())
	if _, err := r.db.NamedExecContext(ctx, insertEventQuery, row); err != nil {
		return nil, fmt.Errorf("create calendar event: %w", mapConstraint(err))
	}
	server := row.toServerEvent()
	return &server, nil
}

const insertEventQuery = `INSERT INTO calendar_events (id, title, description, start_at, end_at, all_day, is_deleted, rescheduled_from_id, rescheduled_from_start, rescheduled_from_end, created_at, updated_at)
VALUES (:id, :title, :description, :start_at, :end_at, :all_day, :is_deleted, :rescheduled_from_id, :rescheduled_from_start, :rescheduled_from_end, :created_at, :updated_at)`

// upsertEventQuery never clears is_deleted on an existing row.
const upsertEventQuery = insertEventQuery + `
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, start_at = EXCLUDED.start_at,
end_at = EXCLUDED.end_at, all_day = EXCLUDED.all_day, is_deleted = calendar_events.is_deleted OR EXCLUDED.is_deleted,
rescheduled_from_id = EXCLUDED.rescheduled_from_id, rescheduled_from_start = EXCLUDED.rescheduled_from_start,
rescheduled_from_end = EXCLUDED.rescheduled_from_end, updated_at = EXCLUDED.updated_at`

// SoftDelete flags an event as deleted. It reports false when the row was missing or
// already deleted.
func (r *EventRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE calendar_events SET is_deleted = TRUE, updated_at = $2 WHERE id = $1 AND is_deleted = FALSE`, id, r.now())
	if err != nil {
		return false, fmt.Errorf("soft delete calendar event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete calendar event: %w", err)
	}
	return affected > 0, nil
}

// Reschedule soft deletes the original and inserts the replacement in one transaction.
// The replacement records the original's id and times in rescheduled_from and inherits
// the original's title and description when left blank.
func (r *EventRepository) Reschedule(ctx context.Context, originalID string, replacement *models.Event) (*models.ServerEvent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var original eventRow
	if err := tx.GetContext(ctx, &original, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1 FOR UPDATE`, originalID); err != nil {
		return nil, err
	}
	if original.IsDeleted {
		return nil, ErrEventDeleted
	}

	now := r.now()
	if _, err := tx.ExecContext(ctx, `UPDATE calendar_events SET is_deleted = TRUE, updated_at = $2 WHERE id = $1`, originalID, now); err != nil {
		return nil, fmt.Errorf("soft delete original event: %w", err)
	}

	if replacement.ID == "" || replacement.ID == originalID {
		replacement.ID = uuid.NewString()
	}
	if strings.TrimSpace(replacement.Title) == "" {
		replacement.Title = original.Title
	}
	if replacement.Description == "" {
		replacement.Description = original.Description
	}
	replacement.IsDeleted = false
	replacement.RescheduledFrom = &models.RescheduledFrom{
		ID:    original.ID,
		Start: timestampOf(original.StartAt),
		End:   timestampOf(original.EndAt),
	}
	row := rowFromEvent(*replacement, now)
	if _, err := tx.NamedExecContext(ctx, insertEventQuery, row); err != nil {
		return nil, fmt.Errorf("insert rescheduled event: %w", mapConstraint(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reschedule: %w", err)
	}
	server := row.toServerEvent()
	return &server, nil
}

// ApplyChanges mirrors a reconciliation outcome: soft deletes the given ids and upserts
// the appended events, atomically.
func (r *EventRepository) ApplyChanges(ctx context.Context, deletedIDs []string, upserts []models.Event) error {
	if len(deletedIDs) == 0 && len(upserts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply changes: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := r.now()
	if len(deletedIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE calendar_events SET is_deleted = TRUE, updated_at = $2 WHERE id = ANY($1) AND is_deleted = FALSE`, pq.Array(deletedIDs), now); err != nil {
			return fmt.Errorf("soft delete calendar events: %w", err)
		}
	}
	for _, event := range upserts {
		if _, err := tx.NamedExecContext(ctx, upsertEventQuery, rowFromEvent(event, now)); err != nil {
			return fmt.Errorf("upsert calendar event %s: %w", event.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply changes: %w", err)
	}
	return nil
}

// Clean permanently removes one soft-deleted row. Missing rows yield sql.ErrNoRows and
// active rows ErrEventActive.
func (r *EventRepository) Clean(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1 AND is_deleted = TRUE`, id)
	if err != nil {
		return fmt.Errorf("clean calendar event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clean calendar event: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var deleted bool
	if err := r.db.GetContext(ctx, &deleted, `SELECT is_deleted FROM calendar_events WHERE id = $1`, id); err != nil {
		return err
	}
	return ErrEventActive
}

// CleanDeleted permanently removes every soft-deleted row.
func (r *EventRepository) CleanDeleted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE is_deleted = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("clean deleted calendar events: %w", err)
	}
	return res.RowsAffected()
}

// ErrDuplicateEvent is returned when inserting an id that already exists.
var ErrDuplicateEvent = errors.New("event id already exists")

func mapConstraint(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEvent
	}
	return err
}
