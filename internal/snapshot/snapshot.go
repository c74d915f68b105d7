// Package snapshot publishes load results for concurrent readers. A reload
// builds a complete new snapshot off to the side and swaps it in with one
// atomic store, so a reader sees either the old skill set or the new one.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauern/skilltrigger/internal/activation"
	"github.com/klauern/skilltrigger/internal/loader"
	"github.com/klauern/skilltrigger/internal/logging"
	"github.com/klauern/skilltrigger/internal/trigger"
)

// ErrNotLoaded is returned when no load has succeeded yet.
var ErrNotLoaded = errors.New("no skills loaded")

// Snapshot is one immutable load result.
type Snapshot struct {
	Report     *loader.Report
	Generation uint64
	LoadedAt   time.Time
}

// Index returns the snapshot's trigger index.
func (s *Snapshot) Index() *trigger.Index {
	if s == nil || s.Report == nil {
		return nil
	}
	return s.Report.Index
}

// Resolve returns the activations for a message against this snapshot.
func (s *Snapshot) Resolve(text string) []activation.Activation {
	idx := s.Index()
	if idx == nil {
		return nil
	}
	return activation.Resolve(idx, text)
}

// LoadFunc runs one load pass.
type LoadFunc func(ctx context.Context) (*loader.Report, error)

// Store holds the current snapshot. Reloads are serialized; reads never block.
type Store struct {
	load    LoadFunc
	mu      sync.Mutex
	gen     uint64
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store. Call Reload to populate it.
func NewStore(load LoadFunc) *Store {
	return &Store{load: load}
}

// Reload runs a load pass and publishes the result. When the pass fails the
// previous snapshot stays current and the error is returned.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.load(ctx)
	if err == nil && (report == nil || report.Registry == nil) {
		err = errors.New("load returned an empty report")
	}
	if err != nil {
		logging.Warn("reload failed, keeping previous skills",
			logging.Err(err),
			logging.Generation(s.gen),
		)
		return s.current.Load(), err
	}

	s.gen++
	snap := &Snapshot{
		Report:     report,
		Generation: s.gen,
		LoadedAt:   time.Now(),
	}
	s.current.Store(snap)

	logging.Debug("published skill snapshot",
		logging.Generation(snap.Generation),
		logging.Count(report.Registry.Len()),
		logging.Warnings(len(report.Warnings)),
	)
	return snap, nil
}

// Current returns the published snapshot, or nil before the first
// successful load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Resolve resolves a message against the current snapshot.
func (s *Store) Resolve(text string) ([]activation.Activation, error) {
	snap := s.Current()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap.Resolve(text), nil
}
