package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/repository"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.ServerEvent, int, error)
	GetByID(ctx context.Context, id string) (*models.ServerEvent, error)
	Create(ctx context.Context, event *models.Event) (*models.ServerEvent, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Reschedule(ctx context.Context, originalID string, replacement *models.Event) (*models.ServerEvent, error)
	Clean(ctx context.Context, id string) error
	CleanDeleted(ctx context.Context) (int64, error)
}

// EventService manages the authoritative server-side event list.
type EventService struct {
	repo      eventRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated events.
func (s *EventService) List(ctx context.Context, query dto.EventQuery) ([]models.ServerEvent, *models.Pagination, error) {
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = 100
	}
	if size > 500 {
		size = 500
	}
	events, total, err := s.repo.List(ctx, models.EventFilter{
		IncludeDeleted: query.IncludeDeleted,
		From:           query.From,
		To:             query.To,
		Page:           page,
		PageSize:       size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one event, soft-deleted ones included.
func (s *EventService) Get(ctx context.Context, id string) (*models.ServerEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapEventError(err, "failed to load event")
	}
	return event, nil
}

// Create validates and stores a new event.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest) (*models.ServerEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if err := validateSchedule(req.Start, req.End); err != nil {
		return nil, err
	}
	event := &models.Event{
		ID:          strings.TrimSpace(req.ID),
		Title:       strings.TrimSpace(req.Title),
		Start:       req.Start,
		End:         req.End,
		AllDay:      req.AllDay,
		Description: req.Description,
	}
	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, mapEventError(err, "failed to create event")
	}
	s.logger.Info("event created", zap.String("id", created.ID))
	return created, nil
}

// Reschedule replaces an active event with a new one that records the original.
func (s *EventService) Reschedule(ctx context.Context, id string, req dto.RescheduleEventRequest) (*models.ServerEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	if err := validateSchedule(req.Start, req.End); err != nil {
		return nil, err
	}
	replacement := &models.Event{
		ID:          strings.TrimSpace(req.ID),
		Title:       strings.TrimSpace(req.Title),
		Start:       req.Start,
		End:         req.End,
		AllDay:      req.AllDay,
		Description: req.Description,
	}
	created, err := s.repo.Reschedule(ctx, id, replacement)
	if err != nil {
		return nil, mapEventError(err, "failed to reschedule event")
	}
	s.logger.Info("event rescheduled", zap.String("original_id", id), zap.String("id", created.ID))
	return created, nil
}

// Delete soft deletes an event. Deleting a missing or already deleted event is a 404.
func (s *EventService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found or already deleted")
	}
	return nil
}

// Clean permanently removes one soft-deleted event.
func (s *EventService) Clean(ctx context.Context, id string) error {
	if err := s.repo.Clean(ctx, id); err != nil {
		return mapEventError(err, "failed to clean event")
	}
	return nil
}

// CleanDeleted permanently removes every soft-deleted event.
func (s *EventService) CleanDeleted(ctx context.Context) (*dto.CleanResult, error) {
	removed, err := s.repo.CleanDeleted(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean events")
	}
	s.logger.Info("deleted events cleaned", zap.Int64("removed", removed))
	return &dto.CleanResult{Removed: removed}, nil
}

func validateSchedule(start, end models.Timestamp) error {
	if start.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "start is required")
	}
	if !end.IsZero() && end.Before(start.Time) {
		return appErrors.Clone(appErrors.ErrValidation, "end must not be before start")
	}
	return nil
}

func mapEventError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	case errors.Is(err, repository.ErrDuplicateEvent):
		return appErrors.Clone(appErrors.ErrConflict, "event id already exists")
	case errors.Is(err, repository.ErrEventActive):
		return appErrors.ErrNotSoftDeleted
	case errors.Is(err, repository.ErrEventDeleted):
		return appErrors.Clone(appErrors.ErrConflict, "event is already deleted")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
