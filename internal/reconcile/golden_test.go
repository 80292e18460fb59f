package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/models"
)

type goldenSnapshot struct {
	Events  []models.Event `json:"events"`
	Outcome Outcome        `json:"outcome"`
}

func assertGolden(t *testing.T, name string, result Result) {
	t.Helper()
	payload, err := json.MarshalIndent(goldenSnapshot{Events: result.Events, Outcome: result.Outcome}, "", "  ")
	require.NoError(t, err)
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, append(payload, '\n'))
}

func TestReconcileGolden(t *testing.T) {
	cases := []struct {
		name     string
		events   []models.Event
		mutation models.MutationResult
	}{
		{
			name: "delete_partial_title",
			events: []models.Event{
				{ID: "a", Title: "Meeting with Bob", Start: ts("2024-01-05T09:00"), End: ts("2024-01-05T10:00")},
				{ID: "b", Title: "Lunch", Start: ts("2024-01-05T12:00")},
			},
			mutation: models.MutationResult{
				Action: models.MutationActionDelete,
				Event:  &models.MutationEvent{Title: "Bob", Start: ts("2024-01-05T00:00")},
			},
		},
		{
			name: "reschedule_original_id",
			events: []models.Event{
				{ID: "a", Title: "Sync", Start: ts("2024-02-01T10:00"), End: ts("2024-02-01T10:30")},
			},
			mutation: models.MutationResult{
				Action:          models.MutationActionReschedule,
				OriginalEventID: "a",
				Event:           &models.MutationEvent{Title: "Sync", Start: ts("2024-02-03T10:00"), End: ts("2024-02-03T10:30")},
			},
		},
		{
			name: "reschedule_fuzzy",
			events: []models.Event{
				{ID: "a", Title: "Dentist appointment", Start: ts("2024-03-04T15:00:00Z"), End: ts("2024-03-04T16:00:00Z")},
				{ID: "b", Title: "Team standup", Start: ts("2024-03-04T09:00:00Z")},
			},
			mutation: models.MutationResult{
				Action: models.MutationActionReschedule,
				Event: &models.MutationEvent{
					Title:         "Appointment with dentist",
					OriginalStart: ts("2024-03-04"),
					Start:         ts("2024-03-06T15:00:00Z"),
					End:           ts("2024-03-06T16:00:00Z"),
					Description:   "Moved by request",
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Reconcile(tc.events, tc.mutation, WithIDGenerator(sequentialIDs("evt")))
			require.NoError(t, err)
			assertGolden(t, tc.name, result)
		})
	}
}
