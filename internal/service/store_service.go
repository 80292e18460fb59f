package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/dto"
	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/remotesync"
	"github.com/noah-isme/chatcal-api/internal/store"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

type eventStore interface {
	Snapshot() models.StoreSnapshot
	Revision() uint64
	Upcoming(now time.Time, limit int) []models.Event
	Clean(id string) (models.StoreSnapshot, error)
	CleanDeleted() (int, models.StoreSnapshot)
}

type syncController interface {
	RequestRefresh() (bool, error)
	Status() models.SyncStatus
}

// StoreService exposes the client event store and its sync state.
type StoreService struct {
	store  eventStore
	sync   syncController
	logger *zap.Logger
	now    func() time.Time
}

// NewStoreService constructs a StoreService. A nil sync controller reports sync disabled.
func NewStoreService(st eventStore, sync syncController, logger *zap.Logger) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{store: st, sync: sync, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Snapshot returns the current store. When sinceRevision matches the current revision
// the caller already holds it and notModified is true.
func (s *StoreService) Snapshot(sinceRevision *uint64) (models.StoreSnapshot, bool) {
	if sinceRevision != nil && *sinceRevision == s.store.Revision() {
		return models.StoreSnapshot{Revision: *sinceRevision}, true
	}
	return s.store.Snapshot(), false
}

// Revision returns the current store revision.
func (s *StoreService) Revision() uint64 {
	return s.store.Revision()
}

// Upcoming lists active events that have not ended yet.
func (s *StoreService) Upcoming(limit int) []models.Event {
	events := s.store.Upcoming(s.now(), limit)
	if events == nil {
		events = []models.Event{}
	}
	return events
}

// SyncStatus reports remote sync health.
func (s *StoreService) SyncStatus() models.SyncStatus {
	if s.sync == nil {
		return models.SyncStatus{}
	}
	return s.sync.Status()
}

// Refresh queues an on-demand sync.
func (s *StoreService) Refresh() (*dto.RefreshResponse, error) {
	if s.sync == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceDisabled, "remote sync is not enabled")
	}
	queued, err := s.sync.RequestRefresh()
	if err != nil {
		if errors.Is(err, remotesync.ErrNotRunning) {
			return nil, appErrors.Clone(appErrors.ErrServiceDisabled, "remote sync is not running")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrSyncFailed.Code, appErrors.ErrSyncFailed.Status, "failed to queue refresh")
	}
	return &dto.RefreshResponse{Queued: queued, Status: s.sync.Status()}, nil
}

// Clean permanently removes one soft-deleted event.
func (s *StoreService) Clean(id string) (models.StoreSnapshot, error) {
	snapshot, err := s.store.Clean(id)
	switch {
	case err == nil:
		s.logger.Info("store event cleaned", zap.String("id", id), zap.Uint64("revision", snapshot.Revision))
		return snapshot, nil
	case errors.Is(err, store.ErrNotFound):
		return models.StoreSnapshot{}, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	case errors.Is(err, store.ErrNotDeleted):
		return models.StoreSnapshot{}, appErrors.ErrNotSoftDeleted
	default:
		return models.StoreSnapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean event")
	}
}

// CleanDeleted permanently removes every soft-deleted event.
func (s *StoreService) CleanDeleted() dto.CleanResult {
	removed, snapshot := s.store.CleanDeleted()
	if removed > 0 {
		s.logger.Info("store cleaned", zap.Int("removed", removed), zap.Uint64("revision", snapshot.Revision))
	}
	return dto.CleanResult{Removed: int64(removed), Revision: snapshot.Revision}
}
