package remotesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/store"
	"github.com/noah-isme/chatcal-api/pkg/jobs"
)

const (
	refreshJobType = "remote_refresh"
	refreshJobKey  = "refresh"
)

// ErrNotRunning is returned by RequestRefresh before Start or after Stop.
var ErrNotRunning = errors.New("sync adapter is not running")

// Fetcher returns the authoritative event list.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.Event, error)
}

type eventStore interface {
	Replace(events []models.Event, source string) models.StoreSnapshot
	Load(snapshot models.StoreSnapshot)
	Len() int
}

type snapshotCache interface {
	SaveSnapshot(ctx context.Context, snapshot models.StoreSnapshot) error
	LoadSnapshot(ctx context.Context) (models.StoreSnapshot, error)
}

// Observer records refresh outcomes.
type Observer interface {
	ObserveSync(success bool, duration time.Duration, events int)
}

// Config controls scheduling.
type Config struct {
	Schedule      string
	Timeout       time.Duration
	OnStart       bool
	WorkerRetries int
	RetryDelay    time.Duration
}

// Adapter refreshes the store from the remote service on a schedule and on demand.
// A failed refresh keeps the current list and marks the status retryable.
type Adapter struct {
	fetcher  Fetcher
	store    eventStore
	cache    snapshotCache
	observer Observer
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	status  models.SyncStatus
	cron    *cron.Cron
	queue   *jobs.Queue
	running bool
}

// Option customises the adapter.
type Option func(*Adapter)

// WithCache enables snapshot caching and warm starts.
func WithCache(cache snapshotCache) Option {
	return func(a *Adapter) { a.cache = cache }
}

// WithObserver attaches a metrics observer.
func WithObserver(observer Observer) Option {
	return func(a *Adapter) { a.observer = observer }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdapter constructs an adapter. It does nothing until Start.
func NewAdapter(fetcher Fetcher, st eventStore, cfg Config, opts ...Option) *Adapter {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	a := &Adapter{
		fetcher: fetcher,
		store:   st,
		cfg:     cfg,
		logger:  zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		status:  models.SyncStatus{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.logger = a.logger.With(zap.String("component", "remote_sync"))
	return a
}

// Start schedules periodic refreshes and the on-demand worker. With OnStart set the
// first refresh runs before Start returns; if it fails on an empty store the cached
// snapshot is loaded instead.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}

	queue := jobs.NewQueue(refreshJobType, func(jobCtx context.Context, _ jobs.Job) error {
		return a.Refresh(jobCtx)
	}, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: a.cfg.WorkerRetries,
		RetryDelay: a.cfg.RetryDelay,
		Logger:     a.logger,
	})

	logger := cronLogger{sugar: a.logger.Sugar()}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := scheduler.AddFunc(a.cfg.Schedule, func() {
		if err := a.Refresh(ctx); err != nil {
			a.logger.Debug("scheduled refresh failed", zap.Error(err))
		}
	}); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("invalid sync schedule %q: %w", a.cfg.Schedule, err)
	}

	queue.Start(ctx)
	a.queue = queue
	a.cron = scheduler
	a.running = true
	a.mu.Unlock()

	if a.cfg.OnStart {
		if err := a.Refresh(ctx); err != nil && a.store.Len() == 0 {
			a.warmStart(ctx)
		}
	}

	scheduler.Start()
	a.logger.Info("remote sync started", zap.String("schedule", a.cfg.Schedule))
	return nil
}

// Stop halts scheduling and waits for running refreshes.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	scheduler, queue := a.cron, a.queue
	a.running = false
	a.mu.Unlock()

	<-scheduler.Stop().Done()
	queue.Stop()
	a.logger.Info("remote sync stopped")
}

// RequestRefresh queues an on-demand refresh. It reports false when one is already pending.
func (a *Adapter) RequestRefresh() (bool, error) {
	a.mu.Lock()
	queue, running := a.queue, a.running
	a.mu.Unlock()
	if !running {
		return false, ErrNotRunning
	}

	err := queue.TryEnqueue(jobs.Job{Type: refreshJobType, Key: refreshJobKey})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, jobs.ErrDuplicate), errors.Is(err, jobs.ErrQueueFull):
		return false, nil
	default:
		return false, err
	}
}

// Refresh fetches the remote list once and replaces the store with it.
func (a *Adapter) Refresh(ctx context.Context) error {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	started := a.now()
	events, err := a.fetcher.Fetch(ctx)
	duration := a.now().Sub(started)
	if err != nil {
		failures := a.recordFailure(started, err)
		fields := []zap.Field{zap.Error(err), zap.Int("consecutive_failures", failures)}
		if failures > 1 {
			a.logger.Error("remote sync failed, keeping last known events", fields...)
		} else {
			a.logger.Warn("remote sync failed, keeping last known events", fields...)
		}
		a.observe(false, duration, 0)
		return err
	}

	snapshot := a.store.Replace(events, store.SourceSync)
	a.recordSuccess(started, len(events))
	a.observe(true, duration, len(events))
	a.logger.Debug("remote sync applied",
		zap.Int("events", len(events)),
		zap.Uint64("revision", snapshot.Revision),
	)

	if a.cache != nil {
		if err := a.cache.SaveSnapshot(ctx, snapshot); err != nil {
			a.logger.Warn("failed to cache snapshot", zap.Error(err))
		}
	}
	return nil
}

// Status returns the current sync health.
func (a *Adapter) Status() models.SyncStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	status := a.status
	if status.LastAttemptAt != nil {
		at := *status.LastAttemptAt
		status.LastAttemptAt = &at
	}
	if status.LastSuccessAt != nil {
		at := *status.LastSuccessAt
		status.LastSuccessAt = &at
	}
	return status
}

func (a *Adapter) warmStart(ctx context.Context) {
	if a.cache == nil {
		return
	}
	snapshot, err := a.cache.LoadSnapshot(ctx)
	if err != nil {
		a.logger.Info("no cached snapshot for warm start", zap.Error(err))
		return
	}
	a.store.Load(snapshot)
	a.logger.Info("store warmed from cached snapshot",
		zap.Uint64("revision", snapshot.Revision),
		zap.Int("events", len(snapshot.Events)),
	)
}

func (a *Adapter) recordFailure(at time.Time, err error) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.LastAttemptAt = &at
	a.status.LastError = err.Error()
	a.status.Retryable = true
	a.status.ConsecutiveFailures++
	return a.status.ConsecutiveFailures
}

func (a *Adapter) recordSuccess(at time.Time, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.LastAttemptAt = &at
	a.status.LastSuccessAt = &at
	a.status.LastError = ""
	a.status.Retryable = false
	a.status.ConsecutiveFailures = 0
	a.status.LastEventCount = count
}

func (a *Adapter) observe(success bool, duration time.Duration, events int) {
	if a.observer != nil {
		a.observer.ObserveSync(success, duration, events)
	}
}
