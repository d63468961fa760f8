// Package watcher provides real-time file system watching with automatic
// debouncing, used by the ingest command's --watch mode to index files as
// they land in the imports spool.
//
// Raw fsnotify events are debounced to coalesce the bursts that editors and
// sync tools produce, so one logical change yields one event:
//
//	w, err := watcher.NewFSWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, importsDir); err != nil {
//	    return err
//	}
//
//	for event := range w.Events() {
//	    if event.Operation == watcher.OpCreate {
//	        // ingest event.Path
//	    }
//	}
package watcher
