package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/middleware"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/service"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
	"github.com/noah-isme/chatcal-api/pkg/response"
)

const defaultUpcomingLimit = 20

type storeService interface {
	Snapshot(sinceRevision *uint64) (models.StoreSnapshot, bool)
	Revision() uint64
	Upcoming(limit int) []models.Event
	SyncStatus() models.SyncStatus
	Refresh() (*dto.RefreshResponse, error)
	Clean(id string) (models.StoreSnapshot, error)
	CleanDeleted() dto.CleanResult
}

type exportService interface {
	Export(format string, includeDeleted bool) (*service.ExportFile, error)
}

// StoreHandler exposes the client event store.
type StoreHandler struct {
	service storeService
	export  exportService
}

// NewStoreHandler constructs the handler.
func NewStoreHandler(service storeService, export exportService) *StoreHandler {
	return &StoreHandler{service: service, export: export}
}

// Snapshot godoc
// @Summary Current event store
// @Description Returns every event including soft-deleted ones. Pass the last seen revision to receive 304 when nothing changed.
// @Tags Store
// @Produce json
// @Param since_revision query int false "Revision already held by the caller"
// @Success 200 {object} response.Envelope
// @Success 304
// @Router /store [get]
func (h *StoreHandler) Snapshot(c *gin.Context) {
	var since *uint64
	if raw := strings.TrimSpace(pickQuery(c, "since_revision", "sinceRevision")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "since_revision must be a non-negative integer"))
			return
		}
		since = &parsed
	}

	snapshot, notModified := h.service.Snapshot(since)
	middleware.SetRevision(c, snapshot.Revision)
	if notModified {
		response.NotModified(c, snapshot.Revision)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}

// Upcoming godoc
// @Summary Upcoming active events
// @Tags Store
// @Produce json
// @Param limit query int false "Maximum events (default 20)"
// @Success 200 {object} response.Envelope
// @Router /store/upcoming [get]
func (h *StoreHandler) Upcoming(c *gin.Context) {
	limit := defaultUpcomingLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	middleware.SetRevision(c, h.service.Revision())
	response.JSON(c, http.StatusOK, h.service.Upcoming(limit), nil, middleware.ExtractMeta(c))
}

// Sync godoc
// @Summary Remote sync status
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /store/sync [get]
func (h *StoreHandler) Sync(c *gin.Context) {
	middleware.SetRevision(c, h.service.Revision())
	response.JSON(c, http.StatusOK, h.service.SyncStatus(), nil)
}

// Refresh godoc
// @Summary Request an immediate remote sync
// @Tags Store
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /store/refresh [post]
func (h *StoreHandler) Refresh(c *gin.Context) {
	resp, err := h.service.Refresh()
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetRevision(c, h.service.Revision())
	response.Accepted(c, resp)
}

// CleanAll godoc
// @Summary Permanently remove every soft-deleted event from the store
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /store/clean [post]
func (h *StoreHandler) CleanAll(c *gin.Context) {
	result := h.service.CleanDeleted()
	middleware.SetRevision(c, result.Revision)
	response.JSON(c, http.StatusOK, result, nil)
}

// CleanEvent godoc
// @Summary Permanently remove one soft-deleted event from the store
// @Tags Store
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /store/events/{id}/clean [post]
func (h *StoreHandler) CleanEvent(c *gin.Context) {
	snapshot, err := h.service.Clean(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetRevision(c, snapshot.Revision)
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Export godoc
// @Summary Export the agenda
// @Tags Store
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param format query string false "csv, pdf or ics (default csv)"
// @Param include_deleted query bool false "Include soft-deleted events"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /store/export [get]
func (h *StoreHandler) Export(c *gin.Context) {
	includeDeleted, err := parseBoolQuery(pickQuery(c, "include_deleted", "includeDeleted"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.export.Export(c.Query("format"), includeDeleted)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetRevision(c, file.Revision)
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func parseBoolQuery(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid boolean query parameter")
	}
	return value, nil
}

func pickQuery(c *gin.Context, preferred string, fallback string) string {
	if value := c.Query(preferred); value != "" {
		return value
	}
	return c.Query(fallback)
}
