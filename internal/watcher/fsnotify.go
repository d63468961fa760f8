package watcher

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FSWatcher is the fsnotify-backed Watcher. Raw events run through the
// Debouncer so one saved file doesn't trigger a burst of re-ingests.
type FSWatcher struct {
	opts      Options
	debouncer *Debouncer

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	events  chan FileEvent
	errors  chan error
	stopped bool
	done    chan struct{}
}

var _ Watcher = (*FSWatcher)(nil)

// NewFSWatcher creates an fsnotify-backed watcher.
func NewFSWatcher(opts Options) (*FSWatcher, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &FSWatcher{
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 16),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching path. Only one Start per watcher.
func (w *FSWatcher) Start(ctx context.Context, path string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	go w.pump(ctx)
	go w.drain(ctx)
	return nil
}

// pump feeds raw fsnotify events into the debouncer.
func (w *FSWatcher) pump(ctx context.Context) {
	defer close(w.errors)
	fsw := w.fsw
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			fe, ok := translate(event)
			if !ok {
				continue
			}
			w.debouncer.Add(fe)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// drain flattens debounced batches onto the Events channel.
func (w *FSWatcher) drain(ctx context.Context) {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			for _, event := range batch {
				select {
				case w.events <- event:
				default:
					// Buffer full; drop rather than block the pump.
				}
			}
		}
	}
}

func translate(event fsnotify.Event) (FileEvent, bool) {
	fe := FileEvent{Path: event.Name, Timestamp: time.Now()}
	switch {
	case event.Has(fsnotify.Create):
		fe.Operation = OpCreate
	case event.Has(fsnotify.Write):
		fe.Operation = OpModify
	case event.Has(fsnotify.Remove):
		fe.Operation = OpDelete
	case event.Has(fsnotify.Rename):
		fe.Operation = OpRename
	default:
		return fe, false
	}
	if info, err := os.Stat(event.Name); err == nil {
		fe.IsDir = info.IsDir()
	}
	return fe, true
}

// Events returns the debounced event stream.
func (w *FSWatcher) Events() <-chan FileEvent { return w.events }

// Errors returns non-fatal watcher errors.
func (w *FSWatcher) Errors() <-chan error { return w.errors }

// Stop shuts the watcher down. Safe to call multiple times.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	w.debouncer.Stop()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
