package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/middleware"
	"github.com/noah-isme/chatcal-api/internal/models"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

type fakeChatService struct {
	chatResp  *dto.ChatResponse
	chatErr   error
	lastReq   dto.ChatRequest
	applied   []models.MutationResult
	applyResp *dto.ChatResponse
}

func (f *fakeChatService) Chat(_ context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	f.lastReq = req
	return f.chatResp, f.chatErr
}

func (f *fakeChatService) ApplyResult(_ context.Context, result models.MutationResult) (*dto.ChatResponse, error) {
	f.applied = append(f.applied, result)
	return f.applyResp, nil
}

func TestChatHandlerInvalidBody(t *testing.T) {
	svc := &fakeChatService{}
	r := testRouter(http.MethodPost, "/chat", NewChatHandler(svc).Chat)

	rec := performRequest(r, http.MethodPost, "/chat", `{"message":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec, nil)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
	assert.Empty(t, svc.lastReq.Message)
}

func TestChatHandlerSuccess(t *testing.T) {
	svc := &fakeChatService{chatResp: &dto.ChatResponse{
		Message:  "Added lunch.",
		Action:   models.MutationActionCreate,
		Event:    &models.Event{ID: "a", Title: "Lunch"},
		Revision: 4,
	}}
	r := testRouter(http.MethodPost, "/chat", NewChatHandler(svc).Chat)

	rec := performRequest(r, http.MethodPost, "/chat", `{"message":"lunch tomorrow"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lunch tomorrow", svc.lastReq.Message)
	assert.Equal(t, "4", rec.Header().Get(middleware.RevisionHeader))

	var resp dto.ChatResponse
	envelope := decodeEnvelope(t, rec, &resp)
	assert.Equal(t, "Added lunch.", resp.Message)
	assert.Equal(t, "a", resp.Event.ID)
	assert.Equal(t, float64(4), envelope.Meta["revision"])
	assert.NotContains(t, envelope.Meta, "anomaly")
}

func TestChatHandlerPropagatesServiceErrors(t *testing.T) {
	svc := &fakeChatService{chatErr: appErrors.Clone(appErrors.ErrServiceDisabled, "interpreter is not configured")}
	r := testRouter(http.MethodPost, "/chat", NewChatHandler(svc).Chat)

	rec := performRequest(r, http.MethodPost, "/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	envelope := decodeEnvelope(t, rec, nil)
	assert.Equal(t, "SERVICE_DISABLED", envelope.Error.Code)
}

func TestChatHandlerApplyReportsAnomaly(t *testing.T) {
	svc := &fakeChatService{applyResp: &dto.ChatResponse{
		Message:  "Done.",
		Action:   "archive",
		Revision: 2,
		Anomaly:  &dto.Anomaly{Code: "MALFORMED_MUTATION", Detail: "unknown action"},
	}}
	r := testRouter(http.MethodPost, "/chat/apply", NewChatHandler(svc).Apply)

	rec := performRequest(r, http.MethodPost, "/chat/apply", `{"message":"Done.","action":"archive","event":{"title":"Standup"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.applied, 1)
	assert.Equal(t, models.MutationAction("archive"), svc.applied[0].Action)
	assert.Equal(t, "Standup", svc.applied[0].Event.Title)

	envelope := decodeEnvelope(t, rec, nil)
	assert.Equal(t, "MALFORMED_MUTATION", envelope.Meta["anomaly"])
}
