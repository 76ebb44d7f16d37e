// Package watch re-runs a callback when a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one file. Its parent directory is watched so that editors
// which replace the file on save are still seen.
type Watcher struct {
	file     string
	onChange func() error
	onError  func(error)
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithErrorHandler receives callback and watcher errors. By default they are dropped.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// New creates a watcher for file.
func New(file string, onChange func() error, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	w := &Watcher{
		file:     abs,
		onChange: onChange,
		onError:  func(error) {},
		debounce: DefaultDebounce,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run calls onChange once, then after every debounced change, until ctx is
// done. The initial call's error is returned; later errors go to the error
// handler.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.onChange(); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if path, err := filepath.Abs(event.Name); err == nil && path == w.file {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			if err := w.onChange(); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		}
	}
}
