package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/pkg/storage"
)

const publishTimeout = 2 * time.Second

type snapshotFile interface {
	Save(snapshot models.StoreSnapshot) error
	Load() (models.StoreSnapshot, error)
}

type revisionPublisher interface {
	PublishRevision(ctx context.Context, snapshot models.StoreSnapshot) error
}

type snapshotLoader interface {
	Load(snapshot models.StoreSnapshot)
}

// PersistenceService mirrors store revisions to the snapshot file, the revision channel
// and the store gauges. Revisions older than the last persisted one are skipped.
type PersistenceService struct {
	file      snapshotFile
	publisher revisionPublisher
	metrics   *MetricsService
	logger    *zap.Logger

	mu        sync.Mutex
	persisted uint64
}

// NewPersistenceService constructs the service. Nil collaborators are skipped.
func NewPersistenceService(file snapshotFile, publisher revisionPublisher, metrics *MetricsService, logger *zap.Logger) *PersistenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceService{file: file, publisher: publisher, metrics: metrics, logger: logger}
}

// Restore loads the snapshot file into the store. A missing file is not an error.
func (s *PersistenceService) Restore(target snapshotLoader) (bool, error) {
	if s.file == nil {
		return false, nil
	}
	snapshot, err := s.file.Load()
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.logger.Info("no snapshot file, starting with an empty store")
			return false, nil
		}
		return false, err
	}
	target.Load(snapshot)

	s.mu.Lock()
	s.persisted = snapshot.Revision
	s.mu.Unlock()

	s.metrics.ObserveStore(snapshot)
	s.logger.Info("store restored from snapshot file",
		zap.Uint64("revision", snapshot.Revision),
		zap.Int("events", len(snapshot.Events)),
	)
	return true, nil
}

// OnChange is registered as a store change hook.
func (s *PersistenceService) OnChange(snapshot models.StoreSnapshot) {
	s.metrics.ObserveStore(snapshot)

	if s.file != nil {
		s.mu.Lock()
		if snapshot.Revision >= s.persisted {
			if err := s.file.Save(snapshot); err != nil {
				s.logger.Error("failed to write snapshot file", zap.Uint64("revision", snapshot.Revision), zap.Error(err))
			} else {
				s.persisted = snapshot.Revision
			}
		}
		s.mu.Unlock()
	}

	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishRevision(ctx, snapshot); err != nil {
			s.logger.Warn("failed to publish revision", zap.Uint64("revision", snapshot.Revision), zap.Error(err))
		}
	}
}
