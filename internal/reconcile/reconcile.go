package reconcile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/chatcal-api/internal/models"
)

// ErrMalformedMutation marks a mutation result that cannot be applied as given, such as
// a create without an event payload or an unknown action.
var ErrMalformedMutation = errors.New("malformed mutation result")

const maxIDAttempts = 8

// Outcome summarises what a reconciliation did.
type Outcome struct {
	Action          models.MutationAction   `json:"action,omitempty" yaml:"action,omitempty"`
	Tier            MatchTier               `json:"tier" yaml:"tier"`
	MatchedIDs      []string                `json:"matched_ids,omitempty" yaml:"matched_ids,omitempty"`
	DeletedIDs      []string                `json:"deleted_ids,omitempty" yaml:"deleted_ids,omitempty"`
	AppendedID      string                  `json:"appended_id,omitempty" yaml:"appended_id,omitempty"`
	RescheduledFrom *models.RescheduledFrom `json:"rescheduled_from,omitempty" yaml:"rescheduled_from,omitempty"`
}

// Changed reports whether the event list differs from the input.
func (o Outcome) Changed() bool {
	return len(o.DeletedIDs) > 0 || o.AppendedID != ""
}

// NoMatch reports whether a delete or reschedule located no existing event.
func (o Outcome) NoMatch() bool {
	switch o.Action {
	case models.MutationActionDelete, models.MutationActionReschedule:
		return len(o.MatchedIDs) == 0
	default:
		return false
	}
}

// Result carries the next event list together with the outcome.
type Result struct {
	Events  []models.Event
	Outcome Outcome
}

// Option customises Reconcile.
type Option func(*options)

type options struct {
	newID func() string
}

// WithIDGenerator overrides the id generator used for appended events.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// Reconcile applies one mutation result to events and returns the next list. The input
// slice is never modified. On ErrMalformedMutation the returned events equal the input.
func Reconcile(events []models.Event, result models.MutationResult, opts ...Option) (Result, error) {
	cfg := options{newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	action := result.EffectiveAction()
	unchanged := Result{Events: models.CloneEvents(events), Outcome: Outcome{Action: action}}
	if action == "" {
		return unchanged, nil
	}
	if !action.Valid() {
		return unchanged, fmt.Errorf("%w: unsupported action %q", ErrMalformedMutation, action)
	}
	if result.Event == nil {
		return unchanged, fmt.Errorf("%w: %s requires an event payload", ErrMalformedMutation, action)
	}

	switch action {
	case models.MutationActionCreate:
		return reconcileCreate(events, *result.Event, cfg), nil
	case models.MutationActionDelete:
		return reconcileDelete(events, *result.Event), nil
	default:
		return reconcileReschedule(events, result, cfg), nil
	}
}

func reconcileCreate(events []models.Event, payload models.MutationEvent, cfg options) Result {
	next := models.CloneEvents(events)
	created := payload.ToEvent()
	created.ID = assignID(created.ID, takenIDs(events), cfg.newID)
	next = append(next, created)
	return Result{
		Events:  next,
		Outcome: Outcome{Action: models.MutationActionCreate, AppendedID: created.ID},
	}
}

func reconcileDelete(events []models.Event, target models.MutationEvent) Result {
	tier, hits := evaluate(events, deleteRules(target))
	next, matched, deleted := markDeleted(events, hits)
	return Result{
		Events: next,
		Outcome: Outcome{
			Action:     models.MutationActionDelete,
			Tier:       tier,
			MatchedIDs: matched,
			DeletedIDs: deleted,
		},
	}
}

func reconcileReschedule(events []models.Event, result models.MutationResult, cfg options) Result {
	rules, candidate := rescheduleRules(result)
	tier, hits := evaluate(events, rules)
	next, matched, deleted := markDeleted(events, hits)
	ref := backReference(candidate, matched)

	replacement := result.Event.ToEvent()
	replacement.ID = assignID(replacement.ID, takenIDs(events), cfg.newID)
	replacement.IsDeleted = false
	replacement.RescheduledFrom = ref
	next = append(next, replacement)

	var outcomeRef *models.RescheduledFrom
	if ref != nil {
		copied := *ref
		outcomeRef = &copied
	}
	return Result{
		Events: next,
		Outcome: Outcome{
			Action:          models.MutationActionReschedule,
			Tier:            tier,
			MatchedIDs:      matched,
			DeletedIDs:      deleted,
			AppendedID:      replacement.ID,
			RescheduledFrom: outcomeRef,
		},
	}
}

// markDeleted copies events and soft deletes the hits. Already deleted events count as
// matched but are left as they are.
func markDeleted(events []models.Event, hits []int) ([]models.Event, []string, []string) {
	next := models.CloneEvents(events)
	var matched, deleted []string
	for _, idx := range hits {
		matched = append(matched, next[idx].ID)
		if next[idx].IsDeleted {
			continue
		}
		next[idx].IsDeleted = true
		deleted = append(deleted, next[idx].ID)
	}
	return next, matched, deleted
}

func takenIDs(events []models.Event) map[string]struct{} {
	taken := make(map[string]struct{}, len(events))
	for _, e := range events {
		taken[e.ID] = struct{}{}
	}
	return taken
}

// assignID keeps candidate when it is set and unused, otherwise generates a fresh id.
func assignID(candidate string, taken map[string]struct{}, gen func() string) string {
	if candidate != "" {
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
	for i := 0; i < maxIDAttempts; i++ {
		id := gen()
		if _, exists := taken[id]; id != "" && !exists {
			return id
		}
	}
	return uuid.NewString()
}
