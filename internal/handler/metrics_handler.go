package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/pkg/response"
)

type metricsSource interface {
	Handler() http.Handler
	Snapshot() models.MetricsSnapshot
}

type readinessSource interface {
	Revision() uint64
	SyncStatus() models.SyncStatus
}

type interpreterStatus interface {
	InterpreterConfigured() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics     metricsSource
	store       readinessSource
	interpreter interpreterStatus
}

// NewMetricsHandler constructs a metrics handler. Nil collaborators are reported as absent.
func NewMetricsHandler(metrics metricsSource, store readinessSource, interpreter interpreterStatus) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, store: store, interpreter: interpreter}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthResponse("ok"))
}

// Ready godoc
// @Summary Readiness probe
// @Description Reports 503 while remote sync is enabled, has never succeeded and nothing was restored into the store.
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	resp := h.healthResponse("ready")
	if resp.Sync != nil && resp.Sync.Enabled && resp.Sync.LastSuccessAt == nil && resp.StoreRevision == 0 {
		resp.Status = "syncing"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats godoc
// @Summary Service statistics
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *MetricsHandler) Stats(c *gin.Context) {
	var snapshot models.MetricsSnapshot
	if h.metrics != nil {
		snapshot = h.metrics.Snapshot()
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

func (h *MetricsHandler) healthResponse(status string) dto.HealthResponse {
	resp := dto.HealthResponse{Status: status}
	if h.interpreter != nil {
		resp.InterpreterConfigured = h.interpreter.InterpreterConfigured()
	}
	if h.store != nil {
		resp.StoreRevision = h.store.Revision()
		sync := h.store.SyncStatus()
		resp.Sync = &sync
	}
	return resp
}
