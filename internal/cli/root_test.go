package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"serve", "reconcile", "sync", "watch", "migrate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "json", format.DefValue)

	envFile := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().ShorthandLookup("v"))
}

func TestRootCommandRejectsUnknownFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "reconcile", "--store", filepath.Join(t.TempDir(), "events.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestWriteOutputFormats(t *testing.T) {
	payload := map[string]int{"revision": 3}

	var js bytes.Buffer
	require.NoError(t, writeOutput(&js, "json", payload))
	assert.JSONEq(t, `{"revision":3}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, writeOutput(&ym, "yaml", payload))
	assert.Equal(t, "revision: 3\n", ym.String())
}
