// Package tracking maintains the .indexed-files.json map from absolute
// source path to ingestion metadata, used to skip re-ingesting files whose
// size and modification time haven't changed.
package tracking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the tracking file's name under the data root.
const FileName = ".indexed-files.json"

// Record is one indexed file's metadata.
type Record struct {
	Filename   string `json:"filename"`
	FilePath   string `json:"file_path"`
	IndexedAt  string `json:"indexed_at"`
	DocumentID *int64 `json:"document_id,omitempty"`
	Size       int64  `json:"size"`
	Modified   string `json:"modified"`
}

// Tracker is the in-memory view of the tracking file, flushed to disk on
// every mutation.
type Tracker struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
}

// Load reads the tracking file under dataRoot, starting empty when the file
// is absent or unreadable.
func Load(dataRoot string) *Tracker {
	t := &Tracker{
		path:    filepath.Join(dataRoot, FileName),
		records: map[string]Record{},
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		return t
	}
	var parsed map[string]Record
	if err := json.Unmarshal(data, &parsed); err == nil && parsed != nil {
		t.records = parsed
	}
	return t
}

// IsIndexed reports whether path was already ingested and is unchanged
// since: the recorded size and modification time both match the file's
// current state.
func (t *Tracker) IsIndexed(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	t.mu.Lock()
	record, ok := t.records[abs]
	t.mu.Unlock()
	if !ok {
		return false
	}

	info, err := os.Stat(abs)
	if err != nil {
		return false
	}
	return record.Size == info.Size() && record.Modified == info.ModTime().UTC().Format(time.RFC3339)
}

// Mark records path as indexed with its current size and modification time
// and flushes the tracking file.
func (t *Tracker) Mark(path string, documentID *int64) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[abs] = Record{
		Filename:   filepath.Base(abs),
		FilePath:   abs,
		IndexedAt:  time.Now().UTC().Format(time.RFC3339),
		DocumentID: documentID,
		Size:       info.Size(),
		Modified:   info.ModTime().UTC().Format(time.RFC3339),
	}
	return t.flushLocked()
}

// Len reports the number of tracked files.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Path returns the tracking file's location.
func (t *Tracker) Path() string { return t.path }

func (t *Tracker) flushLocked() error {
	data, err := json.MarshalIndent(t.records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o644)
}
