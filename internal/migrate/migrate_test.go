package migrate

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-kb/inkwell/internal/store"
)

func openRaw(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite", dbPath)
}

// setupSourceDir builds a valid data directory by driving the real store.
func setupSourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "vectordb"), "inkwell", 384)
	require.NoError(t, err)

	hash := "abc123"
	docID, err := st.AddDocument("Hello world", store.AddDocumentOptions{ContentHash: &hash})
	require.NoError(t, err)
	_, err = st.AddChunk(docID, "Hello world", 0, store.LevelParagraph, store.AddChunkOptions{})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	return dir
}

func TestValidateValidDB(t *testing.T) {
	dir := setupSourceDir(t)

	report := Validate(dir, "inkwell")

	assert.True(t, report.DBValid)
	assert.Empty(t, report.Errors)
	assert.Equal(t, int64(1), report.Documents)
	assert.Equal(t, int64(1), report.Chunks)
	assert.False(t, report.Failed())
}

func TestValidateMissingDB(t *testing.T) {
	report := Validate(t.TempDir(), "inkwell")

	assert.False(t, report.DBValid)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], "Database not found")
	assert.True(t, report.Failed())
}

func TestValidateMissingColumnAborts(t *testing.T) {
	dir := setupSourceDir(t)

	// Drop a required column to simulate an older schema.
	dbPath := filepath.Join(dir, "vectordb", "inkwell.db")
	dropColumn(t, dbPath, "chunks", "enriched_text")

	report := Validate(dir, "inkwell")

	assert.False(t, report.DBValid)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], "enriched_text")
	// Counts were never gathered — validation stops at the schema check.
	assert.Zero(t, report.Documents)
}

func TestMigrateIndexedFilesRewritesPaths(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	records := map[string]map[string]any{
		filepath.Join(src, "imports", "test.txt"): {
			"filename":   "test.txt",
			"file_path":  filepath.Join(src, "imports", "test.txt"),
			"indexed_at": "2026-01-01T00:00:00Z",
			"size":       100,
			"modified":   "2026-01-01T00:00:00Z",
		},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, ".indexed-files.json"), data, 0o644))

	count, err := MigrateIndexedFiles(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	out, err := os.ReadFile(filepath.Join(dst, ".indexed-files.json"))
	require.NoError(t, err)

	var migrated map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &migrated))
	wantKey := filepath.Join(dst, "imports", "test.txt")
	require.Contains(t, migrated, wantKey)
	assert.Equal(t, wantKey, migrated[wantKey]["file_path"])
}

func TestMigrateIndexedFilesNoSourceIsZero(t *testing.T) {
	count, err := MigrateIndexedFiles(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunCopiesDatabaseAndState(t *testing.T) {
	src := setupSourceDir(t)
	dst := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(src, "llm-config.json"), []byte(`{"preferredProvider":"auto"}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "imports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "imports", "pending.txt"), []byte("queued"), 0o644))

	report := Run(src, dst, "inkwell")

	assert.True(t, report.DBValid)
	assert.Empty(t, report.Errors)
	assert.True(t, report.LLMConfigMigrated)

	assert.FileExists(t, filepath.Join(dst, "vectordb", "inkwell.db"))
	assert.FileExists(t, filepath.Join(dst, "llm-config.json"))
	assert.FileExists(t, filepath.Join(dst, "imports", "pending.txt"))
	assert.DirExists(t, filepath.Join(dst, "uploads"))
	assert.DirExists(t, filepath.Join(dst, "exports"))
	assert.DirExists(t, filepath.Join(dst, "browser-connector"))

	// WAL sidecars are not carried over.
	assert.NoFileExists(t, filepath.Join(dst, "vectordb", "inkwell.db-wal"))

	// The copied database opens and still holds the source data.
	st, err := store.Open(filepath.Join(dst, "vectordb"), "inkwell", 384)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunAbortsOnInvalidSource(t *testing.T) {
	report := Run(t.TempDir(), t.TempDir(), "inkwell")
	assert.True(t, report.Failed())
}

// dropColumn removes one column with ALTER TABLE DROP COLUMN, first
// dropping the FTS triggers that reference it.
func dropColumn(t *testing.T, dbPath, table, column string) {
	t.Helper()
	db, err := openRaw(dbPath)
	require.NoError(t, err)
	defer db.Close()

	switch {
	case table == "chunks" && column == "enriched_text":
		_, err = db.Exec(`
			DROP TRIGGER IF EXISTS chunks_ai;
			DROP TRIGGER IF EXISTS chunks_ad;
			DROP TRIGGER IF EXISTS chunks_au;
			ALTER TABLE chunks DROP COLUMN enriched_text;`)
		require.NoError(t, err)
	default:
		t.Fatalf("dropColumn doesn't support %s.%s", table, column)
	}
}
