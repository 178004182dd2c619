package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-configform/pkg/events"
)

// Watcher reports changes made to a settings file by other processes.
type Watcher struct {
	file    *File
	target  string
	watcher *fsnotify.Watcher
	onError func(error)
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithWatchErrors registers fn to observe notification errors. Errors are
// dropped otherwise.
func WithWatchErrors(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watch starts watching the directory holding f. Changes are delivered by
// Run; the watch is active once Watch returns.
func (f *File) Watch(options ...WatchOption) (*Watcher, error) {
	if f.bus == nil {
		return nil, errors.New("store: watching requires a bus (see WithBus)")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: watch %s: %w", f.path, err)
	}
	// The directory is watched because atomic replacement swaps the inode.
	if err := fsw.Add(filepath.Dir(f.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("store: watch %s: %w", f.path, err)
	}

	w := &Watcher{
		file:    f,
		target:  filepath.Clean(f.path),
		watcher: fsw,
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run blocks until ctx is done or the watcher is closed, emitting
// events.ConfigChanged on the file's bus whenever the settings file content
// differs from what this process last read or wrote. Bus handlers run on the
// calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != w.target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			changed, err := w.file.changedOnDisk(ctx)
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			if changed {
				w.file.bus.Emit(events.ConfigChanged, w.file.path)
			}
		}
	}
}

// Close stops the watcher; Run returns once it notices.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// changedOnDisk reports whether the file differs from the last content this
// process saw, and records the new content when it does.
func (f *File) changedOnDisk(ctx context.Context) (bool, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: read %s: %w", f.path, err)
	}
	if bytes.Equal(data, f.seen) {
		return false, nil
	}
	f.seen = data
	return true, nil
}
