package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes archive directories and reports debounced change batches.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
}

// NewWatcher creates a Watcher with the given debounce window.
func NewWatcher(debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Watcher{fsw: fsw, debounce: debounce, logger: logger}, nil
}

// AddRecursive watches root and every non-hidden subdirectory beneath it.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unwatchable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || skipDirs[strings.ToLower(name)]) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run blocks delivering debounced batches of changed paths to fn until the
// context is cancelled. Newly created directories are added to the watch.
func (w *Watcher) Run(ctx context.Context, fn func(changed []string)) error {
	var (
		pending []string
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if strings.HasPrefix(base, ".") {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.AddRecursive(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			pending = append(pending, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := pending
			pending = nil
			fn(batch)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
