package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/chat", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/store", http.StatusOK, 40*time.Millisecond)
	m.ObserveReconcile(reconcile.Outcome{Action: models.MutationActionDelete, Tier: reconcile.TierID, MatchedIDs: []string{"a"}, DeletedIDs: []string{"a"}}, nil)
	m.ObserveReconcile(reconcile.Outcome{Action: models.MutationActionDelete}, nil)
	m.ObserveReconcile(reconcile.Outcome{Action: "archive"}, errors.New("malformed"))
	m.ObserveSync(true, time.Second, 4)
	m.ObserveSync(false, time.Second, 0)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(false)
	m.ObserveStore(models.StoreSnapshot{Revision: 9, Events: []models.Event{{ID: "a"}, {ID: "b", IsDeleted: true}}})

	snap := m.Snapshot()
	require.Equal(t, uint64(2), snap.RequestsTotal)
	require.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.001)
	require.Equal(t, uint64(1), snap.Reconciliations["id"])
	require.Equal(t, uint64(2), snap.Reconciliations["none"])
	require.Equal(t, uint64(1), snap.NoMatchTotal)
	require.Equal(t, uint64(1), snap.MalformedTotal)
	require.Equal(t, uint64(1), snap.SyncSuccesses)
	require.Equal(t, uint64(1), snap.SyncFailures)
	require.Equal(t, uint64(1), snap.CacheHits)
	require.Equal(t, uint64(1), snap.CacheMisses)
	require.Equal(t, uint64(9), snap.StoreRevision)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveStore(models.StoreSnapshot{Revision: 3})
	m.ObserveReconcile(reconcile.Outcome{Action: models.MutationActionCreate, AppendedID: "a"}, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "chatcal_store_revision 3")
	require.Contains(t, body, `chatcal_reconciliations_total{action="create",result="applied",tier="none"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.ObserveReconcile(reconcile.Outcome{}, nil)
	m.ObserveSync(true, time.Millisecond, 1)
	m.ObserveStore(models.StoreSnapshot{})
	require.Equal(t, models.MetricsSnapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
