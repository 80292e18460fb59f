// Package remotesync keeps the event store aligned with the remote events service.
package remotesync

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

	"github.com/noah-isme/chatcal-api/internal/models"
)

const maxBodyBytes = 8 << 20

// ErrUnexpectedStatus marks a non-2xx reply from the remote service.
var ErrUnexpectedStatus = errors.New("unexpected remote status")

// FetcherConfig configures HTTPFetcher.
type FetcherConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// HTTPFetcher reads the authoritative event list over HTTP.
type HTTPFetcher struct {
	url    string
	token  string
	client *http.Client
}

// envelope matches responses wrapped as {"data": [...]}.
type envelope struct {
	Data []models.ServerEvent `json:"data"`
}

// NewHTTPFetcher builds a fetcher. A nil client gets one bounded by cfg.Timeout.
func NewHTTPFetcher(cfg FetcherConfig, client *http.Client) *HTTPFetcher {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{
		url:    strings.TrimSpace(cfg.URL),
		token:  strings.TrimSpace(cfg.Token),
		client: client,
	}
}

// Fetch downloads and normalizes the remote list.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]models.Event, error) {
	if f.url == "" {
		return nil, errors.New("remote events url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build remote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch remote events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read remote events: %w", err)
	}
	records, err := decodeServerEvents(raw)
	if err != nil {
		return nil, err
	}
	return models.NormalizeServerEvents(records), nil
}

func decodeServerEvents(raw []byte) ([]models.ServerEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []models.ServerEvent
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode remote events: %w", err)
		}
		return records, nil
	}
	var wrapped envelope
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode remote events: %w", err)
	}
	return wrapped.Data, nil
}
