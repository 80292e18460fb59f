package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chatcal-api/internal/store"
)

func newRemoteEvents(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"r1","title":"Standup","start":"2024-03-01T09:00:00Z","end":"2024-03-01T09:15:00Z","all_day":false,"is_deleted":false},
			{"id":"r2","title":"Offsite","start":"2024-03-04","all_day":true,"is_deleted":false}
		]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runSyncCommand(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSyncCommand(&RootOptions{Format: "json", EnvFile: missingEnvFile(t)})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestSyncPrintsRemoteEvents(t *testing.T) {
	srv := newRemoteEvents(t, "secret")

	buf, err := runSyncCommand(t, "--url", srv.URL, "--token", "secret")
	require.NoError(t, err)

	var report syncReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 2, report.Fetched)
	assert.False(t, report.Saved)
	require.Len(t, report.Events, 2)
	assert.True(t, report.Events[1].AllDay)
}

func TestSyncSaveReplacesSnapshotEvents(t *testing.T) {
	srv := newRemoteEvents(t, "secret")
	dir := t.TempDir()
	storePath := writeFile(t, dir, "events.json", storeFixture)

	buf, err := runSyncCommand(t, "--url", srv.URL, "--token", "secret", "--store", storePath, "--save")
	require.NoError(t, err)

	var report syncReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.True(t, report.Saved)
	assert.Equal(t, uint64(1), report.Revision)

	fileRepo, err := openSnapshotFile(storePath)
	require.NoError(t, err)
	saved, err := fileRepo.Load()
	require.NoError(t, err)
	assert.Equal(t, store.SourceSync, saved.Source)
	require.Len(t, saved.Events, 2)
	assert.Equal(t, "r1", saved.Events[0].ID)
}

func TestSyncRemoteFailure(t *testing.T) {
	srv := newRemoteEvents(t, "secret")
	storePath := filepath.Join(t.TempDir(), "events.json")

	_, err := runSyncCommand(t, "--url", srv.URL, "--token", "wrong", "--store", storePath, "--save")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch remote events")
}

func TestSyncRequiresURL(t *testing.T) {
	t.Setenv("REMOTE_EVENTS_URL", "")

	_, err := runSyncCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no remote events URL")
}
