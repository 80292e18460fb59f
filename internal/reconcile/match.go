package reconcile

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/noah-isme/chatcal-api/internal/models"
)

// genericMeetingTitle is the vague noun for which delete matches any "meeting" event.
const genericMeetingTitle = "meeting"

// significantWordLength is the rune count a word must exceed to count as shared.
const significantWordLength = 3

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func idRule(tier MatchTier, id string, includeDeleted bool) tierRule {
	return tierRule{
		tier:           tier,
		match:          func(e models.Event) bool { return e.ID == id },
		firstOnly:      true,
		includeDeleted: includeDeleted,
	}
}

// deleteRules builds the precedence table for a delete mutation.
func deleteRules(target models.MutationEvent) []tierRule {
	var rules []tierRule
	if id := strings.TrimSpace(target.ID); id != "" {
		rules = append(rules, idRule(TierID, id, false))
	}
	title := normalizeTitle(target.Title)
	if title == "" {
		return rules
	}
	rules = append(rules,
		tierRule{
			tier: TierExactTitleDate,
			match: func(e models.Event) bool {
				return normalizeTitle(e.Title) == title && e.Start.SameDate(target.Start)
			},
		},
		tierRule{
			tier: TierPartialTitleDate,
			match: func(e models.Event) bool {
				candidate := normalizeTitle(e.Title)
				if strings.Contains(candidate, title) && e.Start.SameDate(target.Start) {
					return true
				}
				return title == genericMeetingTitle && strings.Contains(candidate, genericMeetingTitle)
			},
		},
	)
	return rules
}

// rescheduleRules builds the precedence table for a reschedule mutation. The path is
// picked by which identifier the result carries; the fuzzy tier only runs when none does.
// The returned reference is the candidate back pointer for the replacement event and is
// settled by backReference once the rules have been evaluated.
func rescheduleRules(result models.MutationResult) ([]tierRule, *models.RescheduledFrom) {
	target := result.Event
	if id := strings.TrimSpace(result.OriginalEventID); id != "" {
		return []tierRule{idRule(TierOriginalEventID, id, true)}, models.RescheduledFromID(id)
	}
	if id := target.RescheduledFromID(); id != "" {
		ref := *target.RescheduledFrom
		ref.ID = id
		return []tierRule{idRule(TierRescheduledFromID, id, true)}, &ref
	}

	var snapshot *models.RescheduledFrom
	if target.RescheduledFrom != nil && !target.RescheduledFrom.IDOnly() {
		snapshot = &models.RescheduledFrom{Start: target.RescheduledFrom.Start, End: target.RescheduledFrom.End}
	}
	originalStart := target.OriginalStart
	if originalStart.IsZero() && snapshot != nil {
		originalStart = snapshot.Start
	}
	if normalizeTitle(target.Title) == "" || originalStart.IsZero() {
		return nil, snapshot
	}
	return []tierRule{{
		tier: TierFuzzyTitleDate,
		match: func(e models.Event) bool {
			return e.Start.SameDate(originalStart) && titlesOverlap(e.Title, target.Title)
		},
	}}, snapshot
}

// backReference settles the rescheduledFrom of a replacement event. An identifier that
// resolved nothing is dropped. An id-less snapshot adopts the first matched id and is
// kept as is when nothing matched.
func backReference(candidate *models.RescheduledFrom, matched []string) *models.RescheduledFrom {
	if len(matched) == 0 {
		if candidate == nil || candidate.ID != "" {
			return nil
		}
		ref := *candidate
		return &ref
	}
	if candidate == nil {
		return models.RescheduledFromID(matched[0])
	}
	ref := *candidate
	if ref.ID == "" {
		ref.ID = matched[0]
	}
	return &ref
}

// titlesOverlap reports whether either title contains the other or both share a word
// longer than three characters, ignoring case.
func titlesOverlap(a, b string) bool {
	a, b = normalizeTitle(a), normalizeTitle(b)
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	words := significantWords(a)
	for word := range significantWords(b) {
		if _, ok := words[word]; ok {
			return true
		}
	}
	return false
}

func significantWords(title string) map[string]struct{} {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) > significantWordLength {
			words[field] = struct{}{}
		}
	}
	return words
}
