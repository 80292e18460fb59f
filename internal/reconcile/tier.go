package reconcile

import (
	"fmt"

	"github.com/noah-isme/chatcal-api/internal/models"
)

// MatchTier identifies which rule located the target of a mutation.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierID
	TierExactTitleDate
	TierPartialTitleDate
	TierOriginalEventID
	TierRescheduledFromID
	TierFuzzyTitleDate
)

var tierNames = map[MatchTier]string{
	TierNone:              "none",
	TierID:                "id",
	TierExactTitleDate:    "exact_title_date",
	TierPartialTitleDate:  "partial_title_date",
	TierOriginalEventID:   "original_event_id",
	TierRescheduledFromID: "rescheduled_from_id",
	TierFuzzyTitleDate:    "fuzzy_title_date",
}

// String returns the snake_case tier name used in logs and metric labels.
func (t MatchTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText encodes the tier by name.
func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name produced by MarshalText.
func (t *MatchTier) UnmarshalText(text []byte) error {
	for tier, name := range tierNames {
		if name == string(text) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown match tier %q", text)
}

// tierRule is one row of the precedence table.
type tierRule struct {
	tier  MatchTier
	match func(models.Event) bool
	// firstOnly stops scanning at the first hit; used for identifier tiers.
	firstOnly bool
	// includeDeleted lets reschedule identifier tiers resolve events that are already
	// soft deleted. Delete tiers only see active events.
	includeDeleted bool
}

// evaluate walks the rules in order and returns the first tier with any hit along with
// the indexes of the matched events.
func evaluate(events []models.Event, rules []tierRule) (MatchTier, []int) {
	for _, rule := range rules {
		if rule.match == nil {
			continue
		}
		var hits []int
		for i, event := range events {
			if event.IsDeleted && !rule.includeDeleted {
				continue
			}
			if !rule.match(event) {
				continue
			}
			hits = append(hits, i)
			if rule.firstOnly {
				break
			}
		}
		if len(hits) > 0 {
			return rule.tier, hits
		}
	}
	return TierNone, nil
}
