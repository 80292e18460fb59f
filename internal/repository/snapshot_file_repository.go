package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/chatcal-api/internal/models"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
}

// SnapshotFileRepository persists the store snapshot as a JSON document on disk.
type SnapshotFileRepository struct {
	storage  fileStorage
	filename string
}

// NewSnapshotFileRepository constructs the repository.
func NewSnapshotFileRepository(storage fileStorage, filename string) *SnapshotFileRepository {
	return &SnapshotFileRepository{storage: storage, filename: filename}
}

// Save writes the snapshot.
func (r *SnapshotFileRepository) Save(snapshot models.StoreSnapshot) error {
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := r.storage.Save(r.filename, payload); err != nil {
		return err
	}
	return nil
}

// Load reads the snapshot. A bare JSON array of events is accepted as revision zero.
// Missing files surface the storage error unchanged.
func (r *SnapshotFileRepository) Load() (models.StoreSnapshot, error) {
	data, err := r.storage.Read(r.filename)
	if err != nil {
		return models.StoreSnapshot{}, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []models.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return models.StoreSnapshot{}, fmt.Errorf("decode event list %s: %w", r.filename, err)
		}
		return models.StoreSnapshot{Events: events}, nil
	}
	var snapshot models.StoreSnapshot
	if err := json.Unmarshal(trimmed, &snapshot); err != nil {
		return models.StoreSnapshot{}, fmt.Errorf("decode snapshot %s: %w", r.filename, err)
	}
	return snapshot, nil
}
