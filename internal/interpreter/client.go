// Package interpreter talks to the external service that turns a chat message into a
// structured mutation result.
package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
	"github.com/noah-isme/chatcal-api/pkg/middleware/requestid"
)

// APIKeyHeader carries the optional interpreter API key.
const APIKeyHeader = "X-Api-Key"

const maxReplyBytes = 1 << 20

// ErrNotConfigured is returned when no interpreter URL is set.
var ErrNotConfigured = errors.New("interpreter url not configured")

// Config configures the client.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client posts chat messages to the interpreter.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

type interpretRequest struct {
	Message string `json:"message"`
}

// NewClient constructs a client. A nil httpClient gets one bounded by cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:        strings.TrimSpace(cfg.URL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Configured reports whether the client has somewhere to send messages.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Interpret sends one message and decodes the mutation result. Transport failures and
// non-2xx replies map to INTERPRETER_UNAVAILABLE; undecodable replies to MALFORMED_MUTATION.
func (c *Client) Interpret(ctx context.Context, message string) (models.MutationResult, error) {
	if !c.Configured() {
		return models.MutationResult{}, appErrors.Wrap(ErrNotConfigured, appErrors.ErrServiceDisabled.Code, appErrors.ErrServiceDisabled.Status, "chat interpreter is not configured")
	}

	body, err := json.Marshal(interpretRequest{Message: message})
	if err != nil {
		return models.MutationResult{}, fmt.Errorf("encode interpret request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.MutationResult{}, fmt.Errorf("build interpret request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("interpreter request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return models.MutationResult{}, unavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return models.MutationResult{}, unavailable(fmt.Errorf("read interpreter reply: %w", err))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("interpreter returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return models.MutationResult{}, unavailable(fmt.Errorf("interpreter status %d", resp.StatusCode))
	}

	result, err := decodeResult(raw)
	if err != nil {
		c.logger.Warn("interpreter reply malformed", zap.Error(err))
		return models.MutationResult{}, appErrors.Wrap(err, appErrors.ErrMalformedMutation.Code, appErrors.ErrMalformedMutation.Status, "interpreter reply could not be decoded")
	}
	c.logger.Debug("interpreter replied",
		zap.String("action", string(result.Action)),
		zap.Bool("has_event", result.Event != nil),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// decodeResult parses a reply and lifts an action nested in the event to the top level.
func decodeResult(raw []byte) (models.MutationResult, error) {
	var result models.MutationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.MutationResult{}, fmt.Errorf("%w: %v", reconcile.ErrMalformedMutation, err)
	}
	if result.Action == "" && result.Event != nil && result.Event.Action != "" {
		result.Action = result.Event.Action
	}
	return result, nil
}

func unavailable(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInterpreterUnavailable.Code, appErrors.ErrInterpreterUnavailable.Status, appErrors.ErrInterpreterUnavailable.Message)
}
