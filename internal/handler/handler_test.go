package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/middleware"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/service"
	"github.com/noah-isme/chatcal-api/internal/store"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *errorBody             `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope
}

func performRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// testRouter mounts one handler on a bare engine with response metadata enabled.
func testRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.Handle(method, path, handler)
	return r
}

func newStoreFixture(events ...models.Event) (*store.Store, *service.StoreService) {
	n := 0
	st := store.New(store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}))
	if len(events) > 0 {
		st.Replace(events, store.SourceSync)
	}
	return st, service.NewStoreService(st, nil, nil)
}
