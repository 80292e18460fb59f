package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/interpreter"
	"github.com/noah-isme/chatcal-api/internal/middleware"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/service"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.Claims, error) {
	if token != "valid" {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}, nil
}

func buildTestRouter(t *testing.T, auth gin.HandlerFunc, events *EventHandler) *gin.Engine {
	t.Helper()
	interp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Added lunch.","action":"create","event":{"title":"Lunch","start":"2024-03-05T12:00","end":"2024-03-05T13:00","allDay":false}}`))
	}))
	t.Cleanup(interp.Close)

	st, storeSvc := newStoreFixture()
	metrics := service.NewMetricsService()
	client := interpreter.NewClient(interpreter.Config{URL: interp.URL, Timeout: time.Second}, nil, nil)
	chat := service.NewChatService(client, st, nil, nil, metrics, nil)

	return NewRouter(RouterConfig{
		APIPrefix:     "/api/v1/",
		EnableMetrics: true,
		Auth:          auth,
		Middlewares:   []gin.HandlerFunc{middleware.Metrics(metrics)},
	}, Handlers{
		Chat:    NewChatHandler(chat),
		Store:   NewStoreHandler(storeSvc, service.NewExportService(st, nil, nil, nil, nil)),
		Events:  events,
		Metrics: NewMetricsHandler(metrics, storeSvc, chat),
	})
}

func TestRouterChatThenPoll(t *testing.T) {
	r := buildTestRouter(t, nil, nil)

	rec := performRequest(r, http.MethodPost, "/api/v1/chat", `{"message":"lunch tomorrow at noon"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ChatResponse
	decodeEnvelope(t, rec, &resp)
	require.NotNil(t, resp.Event)
	assert.Equal(t, "gen-1", resp.Event.ID)
	assert.Equal(t, uint64(1), resp.Revision)

	assert.Equal(t, http.StatusNotModified, performRequest(r, http.MethodGet, "/api/v1/store?since_revision=1", "").Code)

	rec = performRequest(r, http.MethodGet, "/api/v1/store", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.StoreSnapshot
	decodeEnvelope(t, rec, &snapshot)
	require.Len(t, snapshot.Events, 1)
	assert.Equal(t, "Lunch", snapshot.Events[0].Title)

	rec = performRequest(r, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.MetricsSnapshot
	decodeEnvelope(t, rec, &stats)
	assert.GreaterOrEqual(t, stats.RequestsTotal, uint64(3))

	rec = performRequest(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"interpreter_configured":true`)
}

func TestRouterEventsUnmountedWithoutDatabase(t *testing.T) {
	r := buildTestRouter(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodGet, "/api/v1/events", "").Code)

	withEvents := buildTestRouter(t, nil, NewEventHandler(&eventServiceMock{}))
	assert.Equal(t, http.StatusOK, performRequest(withEvents, http.MethodGet, "/api/v1/events", "").Code)
	assert.Equal(t, http.StatusOK, performRequest(withEvents, http.MethodPost, "/api/v1/events/clean", "").Code)
}

func TestRouterRequiresTokenWhenAuthEnabled(t *testing.T) {
	r := buildTestRouter(t, middleware.JWT(tokenStub{}), nil)

	assert.Equal(t, http.StatusUnauthorized, performRequest(r, http.MethodGet, "/api/v1/store", "").Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/health", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterDocsDisabledByDefault(t *testing.T) {
	r := buildTestRouter(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodGet, "/docs/index.html", "").Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/metrics", "").Code)
}
