package dto

import "github.com/noah-isme/chatcal-api/internal/models"

// RefreshResponse acknowledges an on-demand sync request.
type RefreshResponse struct {
	Queued bool              `json:"queued"`
	Status models.SyncStatus `json:"status"`
}

// HealthResponse is served by the readiness probe.
type HealthResponse struct {
	Status                string             `json:"status"`
	InterpreterConfigured bool               `json:"interpreter_configured"`
	StoreRevision         uint64             `json:"store_revision"`
	Sync                  *models.SyncStatus `json:"sync,omitempty"`
}
