package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/middleware"
	"github.com/noah-isme/chatcal-api/internal/models"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
	"github.com/noah-isme/chatcal-api/pkg/response"
)

type chatService interface {
	Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error)
	ApplyResult(ctx context.Context, result models.MutationResult) (*dto.ChatResponse, error)
}

// ChatHandler turns chat messages into store mutations.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs the handler.
func NewChatHandler(service chatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat godoc
// @Summary Send a chat message
// @Description Interprets the message, reconciles the result against the event store and replies. Results that cannot be applied are reported as an anomaly.
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Chat message"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}
	resp, err := h.service.Chat(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondChat(c, resp)
}

// Apply godoc
// @Summary Apply an interpreted mutation result
// @Description Reconciles a mutation result produced by the interpreter on the caller's side.
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body models.MutationResult true "Mutation result"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /chat/apply [post]
func (h *ChatHandler) Apply(c *gin.Context) {
	var result models.MutationResult
	if err := c.ShouldBindJSON(&result); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mutation result"))
		return
	}
	resp, err := h.service.ApplyResult(c.Request.Context(), result)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondChat(c, resp)
}

func respondChat(c *gin.Context, resp *dto.ChatResponse) {
	middleware.SetRevision(c, resp.Revision)
	meta := middleware.ExtractMeta(c)
	if resp.Anomaly != nil {
		meta["anomaly"] = resp.Anomaly.Code
	}
	response.JSON(c, http.StatusOK, resp, nil, meta)
}
