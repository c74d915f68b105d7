package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/skilltrigger/internal/util"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	util.WriteSkill(t, root, "a.md", nil, "A")

	store := NewStore(rootLoader(root))
	_, err := store.Reload(context.Background())
	require.NoError(t, err)

	reloaded := make(chan *Snapshot, 8)
	w := NewWatcher(store, []string{root, filepath.Join(root, "missing")}, 50*time.Millisecond)
	w.OnReload = func(s *Snapshot, err error) {
		if err == nil {
			reloaded <- s
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	util.WriteSkill(t, root, "nested/b.md", nil, "B")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-reloaded:
			if s.Report.Registry.Len() == 2 {
				cancel()
				require.NoError(t, <-done)
				assert.Equal(t, 2, store.Current().Report.Registry.Len())
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("watcher did not reload after a change")
		}
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	store := NewStore(rootLoader(t.TempDir()))
	w := NewWatcher(store, []string{t.TempDir()}, 0)
	assert.Equal(t, DefaultDebounce, w.debounce)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}
