package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

const (
	deleteNoMatchSuffix     = " However, I couldn't find the exact event to delete."
	rescheduleNoMatchSuffix = " I couldn't find the original event, so I've created a new one with the updated schedule."

	anomalyWriteThrough = "WRITE_THROUGH_FAILED"
)

type mutationInterpreter interface {
	Configured() bool
	Interpret(ctx context.Context, message string) (models.MutationResult, error)
}

type mutationStore interface {
	Apply(result models.MutationResult) (reconcile.Outcome, models.StoreSnapshot, error)
	Revision() uint64
}

type eventWriter interface {
	ApplyChanges(ctx context.Context, deletedIDs []string, upserts []models.Event) error
}

// ChatService turns chat messages into store mutations.
type ChatService struct {
	interpreter mutationInterpreter
	store       mutationStore
	writer      eventWriter
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewChatService constructs a ChatService. A nil writer disables write-through.
func NewChatService(interpreter mutationInterpreter, store mutationStore, writer eventWriter, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ChatService{
		interpreter: interpreter,
		store:       store,
		writer:      writer,
		validator:   validate,
		metrics:     metrics,
		logger:      logger,
	}
}

// InterpreterConfigured reports whether Chat can reach an interpreter.
func (s *ChatService) InterpreterConfigured() bool {
	return s.interpreter != nil && s.interpreter.Configured()
}

// Chat interprets the message and applies the resulting mutation.
func (s *ChatService) Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}
	if !s.InterpreterConfigured() {
		return nil, appErrors.Clone(appErrors.ErrServiceDisabled, "chat interpreter is not configured")
	}

	started := time.Now()
	result, err := s.interpreter.Interpret(ctx, req.Message)
	s.metrics.ObserveInterpreter(time.Since(started))
	if err != nil {
		if errors.Is(err, appErrors.ErrMalformedMutation) {
			s.metrics.ObserveReconcile(reconcile.Outcome{}, err)
			s.logger.Warn("interpreter returned malformed result", zap.Error(err))
			return &dto.ChatResponse{
				Revision: s.store.Revision(),
				Anomaly:  &dto.Anomaly{Code: appErrors.ErrMalformedMutation.Code, Detail: err.Error()},
			}, nil
		}
		return nil, err
	}
	return s.ApplyResult(ctx, result)
}

// ApplyResult reconciles an already interpreted mutation result. Malformed results are
// reported as an anomaly with the store left unchanged.
func (s *ChatService) ApplyResult(ctx context.Context, result models.MutationResult) (*dto.ChatResponse, error) {
	outcome, snapshot, err := s.store.Apply(result)
	s.metrics.ObserveReconcile(outcome, err)

	resp := &dto.ChatResponse{
		Message:  result.Message,
		Action:   outcome.Action,
		Outcome:  outcome,
		Revision: snapshot.Revision,
	}
	if err != nil {
		if !errors.Is(err, reconcile.ErrMalformedMutation) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply mutation")
		}
		s.logger.Warn("malformed mutation result rejected",
			zap.String("action", string(result.Action)),
			zap.Error(err),
		)
		resp.Anomaly = &dto.Anomaly{Code: appErrors.ErrMalformedMutation.Code, Detail: err.Error()}
		return resp, nil
	}

	if outcome.NoMatch() {
		s.logger.Info("mutation matched no event",
			zap.String("action", string(outcome.Action)),
			zap.Uint64("revision", snapshot.Revision),
		)
		switch outcome.Action {
		case models.MutationActionDelete:
			resp.Message += deleteNoMatchSuffix
		case models.MutationActionReschedule:
			resp.Message += rescheduleNoMatchSuffix
		}
	}

	var appended *models.Event
	if outcome.AppendedID != "" {
		for i := range snapshot.Events {
			if snapshot.Events[i].ID == outcome.AppendedID {
				event := snapshot.Events[i].Clone()
				appended = &event
				break
			}
		}
	}
	resp.Event = appended

	if s.writer != nil && outcome.Changed() {
		var upserts []models.Event
		if appended != nil {
			upserts = append(upserts, *appended)
		}
		if err := s.writer.ApplyChanges(ctx, outcome.DeletedIDs, upserts); err != nil {
			s.logger.Error("write-through failed", zap.Uint64("revision", snapshot.Revision), zap.Error(err))
			resp.Anomaly = &dto.Anomaly{Code: anomalyWriteThrough, Detail: err.Error()}
		}
	}

	s.logger.Debug("chat mutation applied",
		zap.String("action", string(outcome.Action)),
		zap.Stringer("tier", outcome.Tier),
		zap.Strings("deleted", outcome.DeletedIDs),
		zap.String("appended", outcome.AppendedID),
	)
	return resp, nil
}
