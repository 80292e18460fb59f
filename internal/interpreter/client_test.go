package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
	"github.com/noah-isme/chatcal-api/pkg/middleware/requestid"
)

func TestInterpretDecodesReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get(APIKeyHeader))
		assert.Equal(t, "req-1", r.Header.Get(requestid.HeaderKey))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cancel lunch tomorrow", body["message"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"message": "Cancelled lunch.",
			"event": {"title": "Lunch", "start": "2024-03-05T12:00", "action": "delete"}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL, APIKey: "secret"}, nil, nil)
	ctx := requestid.WithValue(context.Background(), "req-1")
	result, err := client.Interpret(ctx, "cancel lunch tomorrow")
	require.NoError(t, err)
	require.Equal(t, models.MutationActionDelete, result.Action)
	require.Equal(t, "Cancelled lunch.", result.Message)
	require.Equal(t, "2024-03-05T12:00", result.Event.Start.String())
}

func TestInterpretTopLevelActionWins(t *testing.T) {
	result, err := decodeResult([]byte(`{"action": "reschedule", "event": {"title": "Sync", "action": "create"}, "original_event_id": "a"}`))
	require.NoError(t, err)
	require.Equal(t, models.MutationActionReschedule, result.Action)
	require.Equal(t, "a", result.OriginalEventID)
}

func TestInterpretMessageOnlyReply(t *testing.T) {
	result, err := decodeResult([]byte(`{"message": "I could not find an event in that."}`))
	require.NoError(t, err)
	require.Empty(t, result.Action)
	require.Nil(t, result.Event)
}

func TestInterpretErrorStatusIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(Config{URL: server.URL}, nil, nil).Interpret(context.Background(), "hi")
	require.ErrorIs(t, err, appErrors.ErrInterpreterUnavailable)
	require.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}

func TestInterpretTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL}, &http.Client{Timeout: 20 * time.Millisecond}, nil)
	_, err := client.Interpret(context.Background(), "hi")
	require.ErrorIs(t, err, appErrors.ErrInterpreterUnavailable)
}

func TestInterpretUndecodableReplyIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"event": "not an object"`))
	}))
	defer server.Close()

	_, err := NewClient(Config{URL: server.URL}, nil, nil).Interpret(context.Background(), "hi")
	require.ErrorIs(t, err, appErrors.ErrMalformedMutation)
	require.True(t, errors.Is(err, reconcile.ErrMalformedMutation))
}

func TestInterpretNotConfigured(t *testing.T) {
	client := NewClient(Config{}, nil, nil)
	require.False(t, client.Configured())
	_, err := client.Interpret(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.ErrorIs(t, err, appErrors.ErrServiceDisabled)
}
