package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/chatcal-api/internal/reconcile"
)

const storeFixture = `[
  {"id": "a", "title": "Lunch with Sam", "start": "2024-01-01T12:00:00Z", "end": "2024-01-01T13:00:00Z", "allDay": false, "isDeleted": false},
  {"id": "b", "title": "Standup", "start": "2024-01-02T09:00:00Z", "end": "2024-01-02T09:15:00Z", "allDay": false, "isDeleted": false}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runReconcileCommand(t *testing.T, format string, stdin string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReconcileCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestReconcileDeleteWritesNewRevision(t *testing.T) {
	dir := t.TempDir()
	storePath := writeFile(t, dir, "events.json", storeFixture)
	resultPath := writeFile(t, dir, "turn.json", `{"message":"Deleted lunch.","action":"delete","event":{"id":"a","title":"Lunch with Sam"}}`)

	buf, err := runReconcileCommand(t, "json", "", "--store", storePath, "--result", resultPath, "--write")
	require.NoError(t, err)

	var report reconcileReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "Deleted lunch.", report.Message)
	assert.Equal(t, reconcile.TierID, report.Outcome.Tier)
	assert.Equal(t, []string{"a"}, report.Outcome.DeletedIDs)
	assert.Equal(t, uint64(1), report.Revision)
	assert.True(t, report.Written)
	require.Len(t, report.Events, 2)
	assert.True(t, report.Events[0].IsDeleted)

	fileRepo, err := openSnapshotFile(storePath)
	require.NoError(t, err)
	saved, err := fileRepo.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), saved.Revision)
	require.Len(t, saved.Events, 2)
	assert.True(t, saved.Events[0].IsDeleted)
}

func TestReconcileNoMatchLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	storePath := writeFile(t, dir, "events.json", storeFixture)

	buf, err := runReconcileCommand(t, "json",
		`{"message":"Deleted the dentist.","action":"delete","event":{"title":"Dentist","start":"2024-05-01T10:00:00Z"}}`,
		"--store", storePath, "--result", "-", "--write")
	require.NoError(t, err)

	var report reconcileReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, reconcile.TierNone, report.Outcome.Tier)
	assert.Contains(t, report.Message, "couldn't find the exact event to delete")
	assert.Equal(t, uint64(0), report.Revision)
	assert.False(t, report.Written)

	raw, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Equal(t, storeFixture, string(raw))
}

func TestReconcileCreateOnMissingStore(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "nested", "events.json")

	buf, err := runReconcileCommand(t, "json",
		`{"message":"Added.","event":{"title":"Dentist","start":"2024-05-01T10:00:00Z","end":"2024-05-01T11:00:00Z"}}`,
		"--store", storePath, "--write")
	require.NoError(t, err)

	var report reconcileReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	require.Len(t, report.Events, 1)
	assert.NotEmpty(t, report.Outcome.AppendedID)
	assert.Equal(t, report.Outcome.AppendedID, report.Events[0].ID)
	assert.True(t, report.Written)

	_, err = os.Stat(storePath)
	require.NoError(t, err)
}

func TestReconcileMalformedResultIsRejected(t *testing.T) {
	dir := t.TempDir()
	storePath := writeFile(t, dir, "events.json", storeFixture)

	buf, err := runReconcileCommand(t, "json", `{"message":"?","action":"create"}`, "--store", storePath, "--write")
	require.ErrorIs(t, err, ErrMutationRejected)

	var report reconcileReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "MALFORMED_MUTATION", report.Anomaly)
	assert.False(t, report.Written)
	assert.Len(t, report.Events, 2)
}

func TestReconcileYAMLOutput(t *testing.T) {
	dir := t.TempDir()
	storePath := writeFile(t, dir, "events.json", storeFixture)

	buf, err := runReconcileCommand(t, "yaml",
		`{"message":"Deleted standup.","action":"delete","event":{"id":"b","title":"Standup"}}`,
		"--store", storePath)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 1, doc["revision"])
	assert.Equal(t, false, doc["written"])
	outcome, ok := doc["outcome"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "id", outcome["tier"])
	assert.Equal(t, []interface{}{"b"}, outcome["deleted_ids"])
}

func TestReconcileRequiresStoreFlag(t *testing.T) {
	_, err := runReconcileCommand(t, "json", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store")
}

func TestReconcileRejectsInvalidResultJSON(t *testing.T) {
	dir := t.TempDir()
	storePath := writeFile(t, dir, "events.json", storeFixture)

	_, err := runReconcileCommand(t, "json", "not json", "--store", storePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode result")
}
