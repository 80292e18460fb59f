package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/chatcal-api/internal/models"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

type stubValidator struct {
	claims *models.Claims
	tokens []string
}

func (s *stubValidator) ValidateToken(token string) (*models.Claims, error) {
	s.tokens = append(s.tokens, token)
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (r *recordingObserver) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func newRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares...)
	return r
}

func perform(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresBearerToken(t *testing.T) {
	validator := &stubValidator{claims: &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}}
	r := newRouter(JWT(validator))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).Principal())
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "Bearer bad").Code)

	rec := perform(r, http.MethodGet, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
	assert.Equal(t, []string{"bad", "good"}, validator.tokens)
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	validator := &stubValidator{claims: &models.Claims{Email: "ann@example.com"}}
	r := newRouter(OptionalJWT(validator))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, "principal=%s", Claims(c).Principal())
	})

	assert.Equal(t, "principal=", perform(r, http.MethodGet, "/me", "").Body.String())
	assert.Equal(t, "principal=", perform(r, http.MethodGet, "/me", "Bearer bad").Body.String())
	assert.Equal(t, "principal=ann@example.com", perform(r, http.MethodGet, "/me", "Bearer good").Body.String())
}

func TestMetricsRecordsRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	r := newRouter(Metrics(obs))
	r.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	perform(r, http.MethodGet, "/events/abc", "")
	perform(r, http.MethodGet, "/nowhere", "")

	assert.Equal(t, []string{"/events/:id", "unmatched"}, obs.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, obs.statuses)
}

func TestMetricsNilObserver(t *testing.T) {
	r := newRouter(Metrics(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ok", "").Code)
}

func TestSetRevisionWritesHeaderAndMeta(t *testing.T) {
	r := newRouter(WithResponseMeta())
	r.GET("/store", func(c *gin.Context) {
		SetRevision(c, 42)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := perform(r, http.MethodGet, "/store", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get(RevisionHeader))
	assert.JSONEq(t, `{"revision":42}`, rec.Body.String())
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	validator := &stubValidator{claims: &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}}
	r := newRouter(OptionalJWT(validator))
	r.POST("/store/events/:id/clean", Audit(zap.New(core), "store.clean"), func(c *gin.Context) {
		SetRevision(c, 7)
		c.Status(http.StatusOK)
	})
	r.POST("/fail/:id", Audit(zap.New(core), "fail"), func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusConflict)
	})

	perform(r, http.MethodPost, "/store/events/a/clean", "Bearer good")
	perform(r, http.MethodPost, "/fail/a", "")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "store.clean", fields["action"])
	assert.Equal(t, "user-1", fields["principal"])
	assert.Equal(t, "a", fields["resource_id"])
	assert.Equal(t, "7", fields["revision"])
}
