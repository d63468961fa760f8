package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inkwell-kb/inkwell/internal/chunk"
	"github.com/inkwell-kb/inkwell/internal/embed"
	"github.com/inkwell-kb/inkwell/internal/runtime"
	"github.com/inkwell-kb/inkwell/internal/store"
	"github.com/inkwell-kb/inkwell/internal/tracking"
)

// app bundles everything a command needs after the data root is opened.
type app struct {
	store    *store.Store
	embedder embed.Embedder
	orch     *runtime.Orchestrator
	tracker  *tracking.Tracker

	lock *embed.FileLock
}

// openApp prepares the data root (directories, single-writer lock), opens
// the store, and builds the configured embedder and orchestrator. Callers
// must close the returned app.
func openApp(ctx context.Context) (*app, error) {
	for _, dir := range []string{
		cfg.DataRoot,
		cfg.VectorDBDir(),
		filepath.Join(cfg.DataRoot, "uploads"),
		filepath.Join(cfg.DataRoot, "imports"),
		filepath.Join(cfg.DataRoot, "exports"),
		filepath.Join(cfg.DataRoot, "browser-connector"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	lock := embed.NewFileLock(cfg.LockPath())
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("another inkwell process holds %s", cfg.LockPath())
	}

	embedder, err := embed.New(ctx, embed.Options{
		Backend:       embed.ParseBackend(cfg.Embedder.Backend),
		OllamaHost:    cfg.Embedder.OllamaHost,
		OllamaModel:   cfg.Embedder.OllamaModel,
		Timeout:       cfg.Embedder.Timeout,
		CacheCapacity: cfg.Cache.Capacity,
		CacheTTL:      cfg.Cache.TTL,
	})
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	dim := cfg.Embedder.Dimensions
	if d := embedder.Dimensions(); d > 0 {
		dim = d
	}

	st, err := store.Open(cfg.VectorDBDir(), cfg.DBName, dim)
	if err != nil {
		_ = embedder.Close()
		_ = lock.Unlock()
		return nil, err
	}

	if !embedder.Available(ctx) {
		slog.Info("embedder unavailable; recall degrades to keyword search",
			slog.String("backend", cfg.Embedder.Backend))
	}

	orch := runtime.WithTier(st, embedder, runtimeTier())
	orch.SetChunkSizes(chunk.DefaultSizeTable().WithOverrides(chunk.SizeTable{
		GenericSize:    cfg.Chunking.GenericSize,
		GenericOverlap: cfg.Chunking.GenericOverlap,
		CodeSize:       cfg.Chunking.CodeSize,
		CodeOverlap:    cfg.Chunking.CodeOverlap,
		DocSize:        cfg.Chunking.DocSize,
		DocOverlap:     cfg.Chunking.DocOverlap,
	}))

	return &app{
		store:    st,
		embedder: embedder,
		orch:     orch,
		tracker:  tracking.Load(cfg.DataRoot),
		lock:     lock,
	}, nil
}

func (a *app) close() {
	_ = a.store.Close()
	_ = a.embedder.Close()
	_ = a.lock.Unlock()
}
