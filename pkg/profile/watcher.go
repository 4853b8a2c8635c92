package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odvcencio/perch/pkg/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the profile registry when the profiles file is edited
// outside the app (a text editor, a dotfiles sync). Events caused by the
// registry's own saves are skipped.
type Watcher struct {
	registry  *Registry
	fsWatcher *fsnotify.Watcher
	log       *logging.Logger
	debounce  time.Duration
	done      chan struct{}
}

// NewWatcher creates a watcher over the registry's backing file.
func NewWatcher(registry *Registry, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		registry:  registry,
		fsWatcher: fsw,
		log:       log,
		debounce:  defaultDebounce,
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory containing the profiles file.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.registry.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	go w.loop(ctx)
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				pending = false
				// Our own saves also trigger fsnotify; the registry
				// already published for those.
				if w.registry.writtenRecently(2 * w.debounce) {
					continue
				}
				if err := w.registry.Reload(ctx); err != nil {
					w.log.Warn(logging.CategoryProfile, "reload_failed", err.Error(), nil)
				} else {
					w.log.Info(logging.CategoryProfile, "reloaded", "profiles file changed on disk", nil)
				}
			}

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isRelevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(ev.Name) == filepath.Base(w.registry.path)
}
