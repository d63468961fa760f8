// Package migrate validates and imports data from another inkwell (or
// schema-compatible) installation: schema check against the fixed
// required-columns list, row counts, path rewriting in the tracking file,
// and copying of the database plus auxiliary state into a fresh data root.
package migrate

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/inkwell-kb/inkwell/internal/store"
	"github.com/inkwell-kb/inkwell/internal/tracking"
)

// requiredTables are checked for presence before any column validation.
var requiredTables = []string{"documents", "chunks", "chunk_embeddings", "chunks_fts"}

// expectedEmbeddingDim is the blob length a healthy embedding row carries.
const expectedEmbeddingDim = 384

// Report is the outcome of a validation or migration run.
type Report struct {
	DBValid              bool     `json:"dbValid"`
	Documents            int64    `json:"documents"`
	Chunks               int64    `json:"chunks"`
	Embeddings           int64    `json:"embeddings"`
	IndexedFilesMigrated int      `json:"indexedFilesMigrated"`
	LLMConfigMigrated    bool     `json:"llmConfigMigrated"`
	Warnings             []string `json:"warnings"`
	Errors               []string `json:"errors"`
}

// Failed reports whether the run should exit non-zero.
func (r *Report) Failed() bool {
	return !r.DBValid || len(r.Errors) > 0
}

// Validate checks that dataDir contains a compatible database and reports
// its contents. dbName is the database file name without extension.
func Validate(dataDir, dbName string) Report {
	var report Report

	dbPath := filepath.Join(dataDir, "vectordb", dbName+".db")
	if _, err := os.Stat(dbPath); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Database not found: %s", dbPath))
		return report
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to open database: %v", err))
		return report
	}
	defer db.Close()

	for _, table := range requiredTables {
		exists, err := tableExists(db, table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error checking table %s: %v", table, err))
			continue
		}
		if !exists {
			report.Errors = append(report.Errors, fmt.Sprintf("Missing required table: %s", table))
		}
	}
	if len(report.Errors) > 0 {
		return report
	}

	for table, required := range store.RequiredColumns() {
		present := columnNames(db, table)
		for _, col := range required {
			if !present[col] {
				report.Errors = append(report.Errors, fmt.Sprintf("%s table missing column: %s", table, col))
			}
		}
	}
	if len(report.Errors) > 0 {
		return report
	}

	report.DBValid = true
	report.Documents = countRows(db, "documents")
	report.Chunks = countRows(db, "chunks")
	report.Embeddings = countRows(db, "chunk_embeddings")

	if report.Embeddings > 0 {
		var dim int64
		if err := db.QueryRow(`SELECT length(embedding) FROM chunk_embeddings LIMIT 1`).Scan(&dim); err == nil {
			if dim != expectedEmbeddingDim {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Unexpected embedding dimension: %d (expected %d)", dim, expectedEmbeddingDim))
			}
		}
	}

	var orphans int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE doc_id NOT IN (SELECT id FROM documents)`).Scan(&orphans); err == nil && orphans > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d orphaned chunks found", orphans))
	}

	llmConfig := filepath.Join(dataDir, "llm-config.json")
	if _, err := os.Stat(llmConfig); err == nil {
		report.LLMConfigMigrated = true
	} else {
		report.Warnings = append(report.Warnings, "No llm-config.json found")
	}

	indexedFiles := filepath.Join(dataDir, tracking.FileName)
	if data, err := os.ReadFile(indexedFiles); err == nil {
		var parsed map[string]json.RawMessage
		if err := json.Unmarshal(data, &parsed); err == nil {
			report.IndexedFilesMigrated = len(parsed)
		}
	} else if !os.IsNotExist(err) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Cannot read %s: %v", tracking.FileName, err))
	}

	if _, err := os.Stat(filepath.Join(dataDir, "vectordb", "data.mdb")); err == nil {
		report.Warnings = append(report.Warnings,
			"Legacy ObjectBox files found (data.mdb). Safe to delete after migration.")
	}

	return report
}

// MigrateIndexedFiles rewrites every path in the source tracking file,
// replacing the srcDir prefix with dstDir — both the map keys and any
// file-path field inside each record — and writes the result under dstDir.
// Returns the number of records migrated.
func MigrateIndexedFiles(srcDir, dstDir string) (int, error) {
	src := filepath.Join(srcDir, tracking.FileName)
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", tracking.FileName, err)
	}

	var parsed map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("invalid %s: %w", tracking.FileName, err)
	}

	rewritten := make(map[string]map[string]json.RawMessage, len(parsed))
	count := 0
	for key, record := range parsed {
		newKey := strings.Replace(key, srcDir, dstDir, 1)
		// Older exports use camelCase for the path field.
		for _, field := range []string{"file_path", "filePath"} {
			raw, ok := record[field]
			if !ok {
				continue
			}
			var path string
			if err := json.Unmarshal(raw, &path); err != nil {
				continue
			}
			updated, _ := json.Marshal(strings.Replace(path, srcDir, dstDir, 1))
			record[field] = updated
		}
		rewritten[newKey] = record
		count++
	}

	out, err := json.MarshalIndent(rewritten, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to serialize: %w", err)
	}
	dst := filepath.Join(dstDir, tracking.FileName)
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return count, nil
}

// Run validates srcDir and, when valid, copies its database (without WAL or
// journal sidecars — the destination engine rebuilds its own), LLM config,
// rewritten tracking file, browser captures, and import spool into dstDir.
func Run(srcDir, dstDir, dbName string) Report {
	slog.Info("starting migration", slog.String("source", srcDir), slog.String("target", dstDir))

	report := Validate(srcDir, dbName)
	if !report.DBValid {
		slog.Error("source database validation failed")
		return report
	}

	slog.Info("source validated",
		slog.Int64("documents", report.Documents),
		slog.Int64("chunks", report.Chunks),
		slog.Int64("embeddings", report.Embeddings))

	targetVectorDB := filepath.Join(dstDir, "vectordb")
	targetBrowser := filepath.Join(dstDir, "browser-connector")
	for _, dir := range []string{
		targetVectorDB,
		filepath.Join(dstDir, "uploads"),
		filepath.Join(dstDir, "imports"),
		filepath.Join(dstDir, "exports"),
		targetBrowser,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to create %s: %v", dir, err))
			return report
		}
	}

	srcDB := filepath.Join(srcDir, "vectordb", dbName+".db")
	dstDB := filepath.Join(targetVectorDB, dbName+".db")
	if srcDB != dstDB {
		if err := copyFile(srcDB, dstDB); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to copy database: %v", err))
			return report
		}
		slog.Info("copied database", slog.String("path", dstDB))
	}

	srcLLM := filepath.Join(srcDir, "llm-config.json")
	dstLLM := filepath.Join(dstDir, "llm-config.json")
	if _, err := os.Stat(srcLLM); err == nil && srcLLM != dstLLM {
		if err := copyFile(srcLLM, dstLLM); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Failed to copy llm-config.json: %v", err))
		} else {
			report.LLMConfigMigrated = true
		}
	}

	count, err := MigrateIndexedFiles(srcDir, dstDir)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Failed to migrate indexed files: %v", err))
	} else {
		report.IndexedFilesMigrated = count
		if count > 0 {
			slog.Info("migrated indexed file records", slog.Int("count", count))
		}
	}

	copyDirFiles(filepath.Join(srcDir, "browser-connector", "captures"), filepath.Join(targetBrowser, "captures"), &report)
	copyDirFiles(filepath.Join(srcDir, "imports"), filepath.Join(dstDir, "imports"), &report)

	slog.Info("migration complete")
	return report
}

// copyDirFiles best-effort copies the regular files in srcDir into dstDir.
func copyDirFiles(srcDir, dstDir string, report *Report) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Failed to create %s: %v", dstDir, err))
		return
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name())); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Failed to copy %s: %v", entry.Name(), err))
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
	return count > 0, err
}

// columnNames reads PRAGMA table_info; table names come from the fixed
// required-columns list, never user input.
func columnNames(db *sql.DB, table string) map[string]bool {
	names := map[string]bool{}
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return names
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			continue
		}
		names[name] = true
	}
	return names
}

func countRows(db *sql.DB, table string) int64 {
	var n int64
	_ = db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	return n
}

// PrintReport writes a human-readable report to w-like stdout.
func PrintReport(report *Report) {
	fmt.Println("=== inkwell migration report ===")
	fmt.Println()
	fmt.Printf("Database valid:     %s\n", yesNo(report.DBValid))
	fmt.Printf("Documents:          %d\n", report.Documents)
	fmt.Printf("Chunks:             %d\n", report.Chunks)
	fmt.Printf("Embeddings:         %d\n", report.Embeddings)
	fmt.Printf("Indexed files:      %d\n", report.IndexedFilesMigrated)
	if report.LLMConfigMigrated {
		fmt.Println("LLM config:         migrated")
	} else {
		fmt.Println("LLM config:         not found")
	}

	if len(report.Warnings) > 0 {
		fmt.Println()
		fmt.Println("Warnings:")
		for _, w := range report.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(report.Errors) > 0 {
		fmt.Println()
		fmt.Println("Errors:")
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Println()
	if report.Failed() {
		fmt.Println("Status: MIGRATION FAILED")
	} else {
		fmt.Println("Status: READY FOR USE")
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
