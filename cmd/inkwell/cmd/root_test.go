package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args against an isolated data root
// and returns combined output.
func runCLI(t *testing.T, dataRoot string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("INKWELL_DATA_ROOT", dataRoot)
	t.Setenv("INKWELL_EMBEDDER", "static")
	t.Setenv("INKWELL_TIER", "full")
	t.Setenv("INKWELL_LOG_FILE", filepath.Join(dataRoot, "test.log"))

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "inkwell")
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"go_version"`)
}

func TestIngestRequiresArgsOrWatch(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to ingest")
}

func TestIngestRecallRoundTrip(t *testing.T) {
	dataRoot := t.TempDir()
	srcDir := t.TempDir()

	notePath := filepath.Join(srcDir, "note.txt")
	require.NoError(t, os.WriteFile(notePath, []byte("Rust is a systems programming language"), 0o644))

	out, err := runCLI(t, dataRoot, "ingest", notePath)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed")
	assert.Contains(t, out, "1 indexed, 0 skipped, 0 failed")

	// Repeating the ingest skips the unchanged file via the tracking file.
	out, err = runCLI(t, dataRoot, "ingest", notePath)
	require.NoError(t, err)
	assert.Contains(t, out, "unchanged")

	out, err = runCLI(t, dataRoot, "recall", "Rust", "programming")
	require.NoError(t, err)
	assert.Contains(t, out, "Rust")
	assert.Contains(t, out, "Strategy: hybrid")
}

func TestDistillCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "distill")
	require.NoError(t, err)
	assert.Contains(t, out, "Distill complete")
}

func TestConsolidateCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "consolidate")
	require.NoError(t, err)
	assert.Contains(t, out, "Consolidation complete")
}

func TestStatusPlainCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "status", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "inkwell status")
	assert.Contains(t, out, "full")
}

func TestRecallUnknownResolver(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "recall", "query", "--resolver", "telepathy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown resolver")
}

func TestMigrateValidateMissingSource(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "migrate", "--validate", t.TempDir())
	require.Error(t, err)
}
