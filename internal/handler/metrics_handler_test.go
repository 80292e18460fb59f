package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/service"
)

type readinessStub struct {
	revision uint64
	status   models.SyncStatus
}

func (s readinessStub) Revision() uint64 { return s.revision }

func (s readinessStub) SyncStatus() models.SyncStatus { return s.status }

type interpreterStub bool

func (s interpreterStub) InterpreterConfigured() bool { return bool(s) }

func TestMetricsHandlerHealth(t *testing.T) {
	h := NewMetricsHandler(nil, readinessStub{revision: 3}, interpreterStub(true))
	r := testRouter(http.MethodGet, "/health", h.Health)

	rec := performRequest(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.InterpreterConfigured)
	assert.Equal(t, uint64(3), resp.StoreRevision)
}

func TestMetricsHandlerReadyWaitsForFirstSync(t *testing.T) {
	cases := []struct {
		name   string
		stub   readinessStub
		status int
	}{
		{"sync disabled", readinessStub{}, http.StatusOK},
		{"never synced and empty", readinessStub{status: models.SyncStatus{Enabled: true}}, http.StatusServiceUnavailable},
		{"restored from snapshot", readinessStub{revision: 5, status: models.SyncStatus{Enabled: true}}, http.StatusOK},
		{"synced", readinessStub{revision: 1, status: models.SyncStatus{Enabled: true, LastSuccessAt: ptrTime(time.Now())}}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := testRouter(http.MethodGet, "/ready", NewMetricsHandler(nil, tc.stub, nil).Ready)
			assert.Equal(t, tc.status, performRequest(r, http.MethodGet, "/ready", "").Code)
		})
	}
}

func TestMetricsHandlerStatsAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveStore(models.StoreSnapshot{Revision: 8})
	h := NewMetricsHandler(metrics, nil, nil)

	stats := testRouter(http.MethodGet, "/stats", h.Stats)
	rec := performRequest(stats, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.MetricsSnapshot
	decodeEnvelope(t, rec, &snapshot)
	assert.Equal(t, uint64(8), snapshot.StoreRevision)

	prom := testRouter(http.MethodGet, "/metrics", h.Prometheus)
	rec = performRequest(prom, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatcal_store_revision 8")

	missing := testRouter(http.MethodGet, "/metrics", NewMetricsHandler(nil, nil, nil).Prometheus)
	assert.Equal(t, http.StatusServiceUnavailable, performRequest(missing, http.MethodGet, "/metrics", "").Code)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
