// Package watcher monitors a directory tree and coalesces filesystem churn
// into rescan triggers for watch mode.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher observes a root directory recursively and invokes onChange once
// per burst of events. New subdirectories are added to the watch as they
// appear.
type Watcher struct {
	root     string
	onChange func()
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	debounce time.Duration
}

// New creates a Watcher over root. The onChange callback fires after the
// tree has been quiet for the debounce interval.
func New(root string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:     root,
		onChange: onChange,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: debounce,
	}, nil
}

// Start registers the tree and begins delivering change callbacks.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		log.Warn().Err(err).Str("root", w.root).Msg("Failed to register some watches")
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	w.cancel()
	return w.watcher.Close()
}

// addTree watches every directory under root. Hidden directories are
// skipped; the scanner skips them too, so changes there never alter a
// report.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Skipping unwatchable entry")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Failed to watch directory")
		}
		return nil
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Newly created directories need their own watch before
			// events inside them can be seen.
			if event.Op&fsnotify.Create != 0 {
				if err := w.addTree(event.Name); err != nil {
					log.Debug().Err(err).Str("path", event.Name).Msg("Failed to extend watch")
				}
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Filesystem change")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fireChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) fireChange() {
	log.Info().Str("root", w.root).Msg("Change burst settled, triggering rescan")
	if w.onChange != nil {
		w.onChange()
	}
}
