package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
)

var (
	// ErrNotFound is returned when an event id is not held by the store.
	ErrNotFound = errors.New("event not found")
	// ErrNotDeleted is returned when cleaning an event that is still active.
	ErrNotDeleted = errors.New("event is not soft deleted")
)

const maxIDAttempts = 8

// Snapshot sources recorded on each revision.
const (
	SourceChat     = "chat"
	SourceSync     = "sync"
	SourceClean    = "clean"
	SourceSnapshot = "snapshot"
)

// ChangeHook observes a new revision. Hooks run outside the store lock.
type ChangeHook func(models.StoreSnapshot)

// Store is the single holder of the client event list. Every write computes the next
// list from the current one and swaps it in under the lock.
type Store struct {
	mu        sync.RWMutex
	events    []models.Event
	revision  uint64
	updatedAt time.Time
	source    string

	hooksMu sync.RWMutex
	hooks   []ChangeHook

	newID  func() string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides the id generator passed to the reconciliation engine.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an empty store at revision zero.
func New(opts ...Option) *Store {
	s := &Store{
		now:    func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// OnChange registers a hook invoked after every new revision.
func (s *Store) OnChange(hook ChangeHook) {
	if hook == nil {
		return
	}
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, hook)
	s.hooksMu.Unlock()
}

// Apply reconciles a mutation result against the current events. The revision only
// advances when the outcome changed the list. Malformed results leave the store as is.
func (s *Store) Apply(result models.MutationResult) (reconcile.Outcome, models.StoreSnapshot, error) {
	var opts []reconcile.Option
	if s.newID != nil {
		opts = append(opts, reconcile.WithIDGenerator(s.newID))
	}

	s.mu.Lock()
	res, err := reconcile.Reconcile(s.events, result, opts...)
	if err != nil || !res.Outcome.Changed() {
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		return res.Outcome, snapshot, err
	}
	s.commitLocked(res.Events, SourceChat)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("store updated",
		zap.Uint64("revision", snapshot.Revision),
		zap.String("action", string(res.Outcome.Action)),
		zap.Stringer("tier", res.Outcome.Tier),
	)
	s.notify(snapshot)
	return res.Outcome, snapshot, nil
}

// Replace swaps in an authoritative list, typically from the remote sync. Later
// duplicates of an id are dropped and events without an id get a fresh one. The
// revision always advances.
func (s *Store) Replace(events []models.Event, source string) models.StoreSnapshot {
	if source == "" {
		source = SourceSync
	}
	unique := s.dedupe(events)

	s.mu.Lock()
	s.commitLocked(unique, source)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot
}

// Load restores a persisted snapshot without notifying hooks.
func (s *Store) Load(snapshot models.StoreSnapshot) {
	unique := s.dedupe(snapshot.Events)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = unique
	s.revision = snapshot.Revision
	s.updatedAt = snapshot.UpdatedAt
	s.source = snapshot.Source
	if s.source == "" {
		s.source = SourceSnapshot
	}
}

// Clean permanently removes one soft-deleted event.
func (s *Store) Clean(id string) (models.StoreSnapshot, error) {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	idx := -1
	for i, e := range s.events {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.StoreSnapshot{}, ErrNotFound
	}
	if !s.events[idx].IsDeleted {
		s.mu.Unlock()
		return models.StoreSnapshot{}, ErrNotDeleted
	}
	next := make([]models.Event, 0, len(s.events)-1)
	next = append(next, s.events[:idx]...)
	next = append(next, s.events[idx+1:]...)
	s.commitLocked(next, SourceClean)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot, nil
}

// CleanDeleted permanently removes every soft-deleted event and reports how many went.
func (s *Store) CleanDeleted() (int, models.StoreSnapshot) {
	s.mu.Lock()
	next := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		if e.Active() {
			next = append(next, e)
		}
	}
	removed := len(s.events) - len(next)
	if removed == 0 {
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		return 0, snapshot
	}
	s.commitLocked(next, SourceClean)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return removed, snapshot
}

// Upcoming lists active events that have not ended before now, ordered by start.
// A non-positive limit returns every match.
func (s *Store) Upcoming(now time.Time, limit int) []models.Event {
	s.mu.RLock()
	var upcoming []models.Event
	for _, e := range s.events {
		if !e.Active() {
			continue
		}
		until := e.End
		if until.IsZero() {
			until = e.Start
		}
		if until.IsZero() || until.Before(now) {
			continue
		}
		upcoming = append(upcoming, e.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start.Time)
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Revision returns the current revision.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Len returns the number of held events, soft-deleted ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) commitLocked(events []models.Event, source string) {
	s.events = events
	s.revision++
	s.updatedAt = s.now()
	s.source = source
}

func (s *Store) snapshotLocked() models.StoreSnapshot {
	events := models.CloneEvents(s.events)
	if events == nil {
		events = []models.Event{}
	}
	return models.StoreSnapshot{
		Revision:  s.revision,
		UpdatedAt: s.updatedAt,
		Source:    s.source,
		Events:    events,
	}
}

// dedupe drops later duplicates of an id and assigns fresh ids to records that arrive
// without one.
func (s *Store) dedupe(events []models.Event) []models.Event {
	taken := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.ID != "" {
			taken[e.ID] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(events))
	unique := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			e = e.Clone()
			e.ID = s.freshID(taken)
			s.logger.Debug("assigned id to event without one", zap.String("id", e.ID), zap.String("title", e.Title))
			seen[e.ID] = struct{}{}
			unique = append(unique, e)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			s.logger.Warn("dropping duplicate event id", zap.String("id", e.ID))
			continue
		}
		seen[e.ID] = struct{}{}
		unique = append(unique, e.Clone())
	}
	return unique
}

func (s *Store) freshID(taken map[string]struct{}) string {
	gen := s.newID
	if gen == nil {
		gen = uuid.NewString
	}
	for i := 0; i < maxIDAttempts; i++ {
		if id := gen(); id != "" {
			if _, exists := taken[id]; !exists {
				taken[id] = struct{}{}
				return id
			}
		}
	}
	id := uuid.NewString()
	taken[id] = struct{}{}
	return id
}

func (s *Store) notify(snapshot models.StoreSnapshot) {
	s.hooksMu.RLock()
	hooks := make([]ChangeHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(snapshot)
	}
}
