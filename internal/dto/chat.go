package dto

import (
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
)

// ChatRequest carries one user chat message.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// Anomaly describes a mutation result that was received but could not be applied.
type Anomaly struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// ChatResponse is the reply to a chat turn.
type ChatResponse struct {
	Message  string                `json:"message"`
	Action   models.MutationAction `json:"action,omitempty"`
	Event    *models.Event         `json:"event,omitempty"`
	Outcome  reconcile.Outcome     `json:"outcome"`
	Revision uint64                `json:"revision"`
	Anomaly  *Anomaly              `json:"anomaly,omitempty"`
}
