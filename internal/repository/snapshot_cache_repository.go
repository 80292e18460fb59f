package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/models"
	appErrors "github.com/noah-isme/chatcal-api/pkg/errors"
)

// RevisionNoticeType tags store revision broadcasts.
const RevisionNoticeType = "store_revision"

// SnapshotCacheRepository keeps the last known-good store snapshot in Redis and
// broadcasts revisions on a pub/sub channel. A nil client turns every call into a no-op
// miss so the service runs without Redis.
type SnapshotCacheRepository struct {
	client  *redis.Client
	key     string
	channel string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewSnapshotCacheRepository constructs the repository.
func NewSnapshotCacheRepository(client *redis.Client, key, channel string, ttl time.Duration, logger *zap.Logger) *SnapshotCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCacheRepository{client: client, key: key, channel: channel, ttl: ttl, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *SnapshotCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *SnapshotCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// SaveSnapshot stores the snapshot under the configured key.
func (r *SnapshotCacheRepository) SaveSnapshot(ctx context.Context, snapshot models.StoreSnapshot) error {
	return r.Set(ctx, r.key, snapshot, r.ttl)
}

// LoadSnapshot returns the cached snapshot or appErrors.ErrCacheMiss.
func (r *SnapshotCacheRepository) LoadSnapshot(ctx context.Context) (models.StoreSnapshot, error) {
	var snapshot models.StoreSnapshot
	if err := r.Get(ctx, r.key, &snapshot); err != nil {
		return models.StoreSnapshot{}, err
	}
	return snapshot, nil
}

// PublishRevision announces a new store revision.
func (r *SnapshotCacheRepository) PublishRevision(ctx context.Context, snapshot models.StoreSnapshot) error {
	if r.client == nil || r.channel == "" {
		return nil
	}
	notice := models.RevisionNotice{
		ID:         uuid.NewString(),
		Type:       RevisionNoticeType,
		Revision:   snapshot.Revision,
		Source:     snapshot.Source,
		EventCount: len(snapshot.Events),
		Timestamp:  time.Now().UTC(),
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal revision notice: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	return nil
}

// SubscribeRevisions streams revision notices until ctx is cancelled. Malformed
// messages are logged and skipped.
func (r *SnapshotCacheRepository) SubscribeRevisions(ctx context.Context) (<-chan models.RevisionNotice, error) {
	if r.client == nil || r.channel == "" {
		return nil, appErrors.Clone(appErrors.ErrServiceDisabled, "revision channel is not configured")
	}
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	out := make(chan models.RevisionNotice)
	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var notice models.RevisionNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					r.logger.Warn("skip malformed revision notice", zap.Error(err))
					continue
				}
				select {
				case out <- notice:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the underlying Redis connection if present.
func (r *SnapshotCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
