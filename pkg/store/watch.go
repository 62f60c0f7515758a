package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/macropower/browserhost/api"
	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/debounce"
	"github.com/macropower/browserhost/pkg/log"
)

// DefaultWatchDelay is how long the [Watcher] waits for a burst of
// filesystem events to settle before reading the file.
const DefaultWatchDelay = 100 * time.Millisecond

// Watcher reports changes made to a [FileStore]'s file by other processes.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange func(context.Context, *inlays.Config)
	delay    time.Duration
}

// WatcherOpt configures a [Watcher].
type WatcherOpt func(*Watcher)

// WithWatchDelay sets the settle delay. See [DefaultWatchDelay].
func WithWatchDelay(d time.Duration) WatcherOpt {
	return func(w *Watcher) {
		w.delay = d
	}
}

// NewWatcher creates a new [Watcher] for s. onChange is called with every
// configuration that differs from the store's last read or write.
func NewWatcher(s *FileStore, onChange func(context.Context, *inlays.Config), opts ...WatcherOpt) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		store:    s,
		watcher:  fw,
		onChange: onChange,
		delay:    DefaultWatchDelay,
	}
	for _, opt := range opts {
		opt(w)
	}

	// Watch the directory, since atomic writes replace the file.
	dir := filepath.Dir(s.Path())

	err = fw.Add(dir)
	if err != nil {
		_ = fw.Close() //nolint:errcheck // Already failing.
		return nil, fmt.Errorf("add path to watcher: %w", err)
	}

	return w, nil
}

// Run processes filesystem events until ctx is canceled or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) {
	logger := log.WithContext(ctx)
	target := filepath.Clean(w.store.Path())

	d := debounce.New(w.delay, func() {
		w.reload(ctx)
	})
	defer d.Cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) {
				continue
			}

			logger.DebugContext(ctx, "inlay configuration file event",
				slog.String("event", evt.String()),
			)
			d.Call()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			logger.ErrorContext(ctx, "watch inlay configuration", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	logger := log.WithContext(ctx)

	data, err := api.ReadFile(w.store.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.DebugContext(ctx, "read changed inlay configuration", slog.Any("error", err))
		}

		return
	}
	if !w.store.Changed(data) {
		return
	}

	c, err := inlays.Parse(data)
	if err != nil {
		logger.WarnContext(ctx, "ignoring invalid inlay configuration",
			slog.String("path", w.store.Path()),
			slog.Any("error", err),
		)

		return
	}

	w.store.remember(data)
	w.onChange(ctx, c)
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}
