package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/models"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
	"github.com/noah-isme/chatcal-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, query dto.EventQuery) ([]models.ServerEvent, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ServerEvent, error)
	Create(ctx context.Context, req dto.CreateEventRequest) (*models.ServerEvent, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleEventRequest) (*models.ServerEvent, error)
	Delete(ctx context.Context, id string) error
	Clean(ctx context.Context, id string) error
	CleanDeleted(ctx context.Context) (*dto.CleanResult, error)
}

// EventHandler serves the authoritative event records.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(service eventService) *EventHandler {
	return &EventHandler{service: service}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param include_deleted query bool false "Include soft-deleted events"
// @Param from query string false "Only events starting at or after this time"
// @Param to query string false "Only events starting at or before this time"
// @Param page query int false "Page"
// @Param page_size query int false "Page size (max 500)"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	query, err := parseEventQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if events == nil {
		events = []models.ServerEvent{}
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Reschedule godoc
// @Summary Reschedule event
// @Description Soft-deletes the event and creates a replacement that records the original schedule.
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.RescheduleEventRequest true "Replacement"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/reschedule [post]
func (h *EventHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	event, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Delete godoc
// @Summary Soft delete event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clean godoc
// @Summary Permanently remove a soft-deleted event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/clean [post]
func (h *EventHandler) Clean(c *gin.Context) {
	if err := h.service.Clean(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CleanAll godoc
// @Summary Permanently remove every soft-deleted event
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/clean [post]
func (h *EventHandler) CleanAll(c *gin.Context) {
	result, err := h.service.CleanDeleted(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func parseEventQuery(c *gin.Context) (dto.EventQuery, error) {
	var query dto.EventQuery
	var err error
	if query.IncludeDeleted, err = parseBoolQuery(pickQuery(c, "include_deleted", "includeDeleted")); err != nil {
		return query, err
	}
	if query.From, err = parseTimeQuery(c.Query("from"), "from"); err != nil {
		return query, err
	}
	if query.To, err = parseTimeQuery(c.Query("to"), "to"); err != nil {
		return query, err
	}
	if query.Page, err = parseIntQuery(c.Query("page"), "page"); err != nil {
		return query, err
	}
	if query.PageSize, err = parseIntQuery(pickQuery(c, "page_size", "pageSize"), "page_size"); err != nil {
		return query, err
	}
	return query, nil
}

func parseTimeQuery(raw, name string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := models.ParseTimestamp(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" timestamp")
	}
	return &ts.Time, nil
}

func parseIntQuery(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a non-negative integer")
	}
	return value, nil
}
