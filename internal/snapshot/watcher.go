package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klauern/skilltrigger/internal/logging"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// skipDirs are never watched.
var skipDirs = []string{".git", "node_modules"}

// Watcher reloads a Store whenever files under its directories change.
type Watcher struct {
	store    *Store
	dirs     []string
	debounce time.Duration

	// OnReload, if set, is called after every reload attempt triggered by
	// a change.
	OnReload func(*Snapshot, error)
}

// NewWatcher creates a watcher over dirs. Directories that do not exist are
// skipped when Run starts. A non-positive debounce uses DefaultDebounce.
func NewWatcher(store *Store, dirs []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		store:    store,
		dirs:     dirs,
		debounce: debounce,
	}
}

// Run watches until ctx is done. Bursts of events collapse into one reload
// once no event has arrived for the debounce interval.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for _, dir := range w.dirs {
		n, err := addRecursive(fsw, dir)
		if err != nil {
			return err
		}
		watched += n
	}
	logging.Debug("file watcher initialized", logging.Count(watched))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := addRecursive(fsw, event.Name); err != nil {
						logging.Warn("failed to watch new directory", logging.Path(event.Name), logging.Err(err))
					}
				}
			}
			logging.Debug("skill change detected", logging.Path(event.Name), logging.Kind(event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			snap, err := w.store.Reload(ctx)
			if w.OnReload != nil {
				w.OnReload(snap, err)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("file watcher error", logging.Err(err))
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !slices.Contains(skipDirs, filepath.Base(event.Name))
}

// addRecursive watches dir and every directory below it, and returns how
// many were added. A missing dir is not an error.
func addRecursive(fsw *fsnotify.Watcher, dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	n := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && slices.Contains(skipDirs, d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %q: %w", path, err)
		}
		n++
		return nil
	})
	return n, err
}
