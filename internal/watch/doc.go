// Package watcher provides real-time file system watching with automatic
// debouncing and gitignore-style exclude filtering.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Events are debounced to coalesce rapid changes from editors and bulk copies,
// and filtered against configured exclude patterns (gitignore syntax) to skip
// irrelevant files.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	// Start blocks until Stop is called or ctx is cancelled.
//	go func() { _ = w.Start(ctx, "/path/to/project") }()
//
//	for events := range w.Events() { // debounced batches
//	    for _, event := range events {
//	        switch event.Operation {
//	        case watcher.OpCreate:
//	            // Handle file creation
//	        case watcher.OpModify:
//	            // Handle file modification
//	        case watcher.OpDelete:
//	            // Handle file deletion
//	        }
//	    }
//	}
package watcher
