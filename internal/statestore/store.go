package statestore

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// Store maps pool names to their most recent turntable.Snapshot.
type Store struct {
	snapshots sync.Map // Key: pool name, Value: turntable.Snapshot
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Set records snap as the latest state of its turntable.
func (s *Store) Set(ctx context.Context, snap turntable.Snapshot) {
	s.snapshots.Store(snap.Turntable, snap)
}

// Get returns the latest snapshot of the named turntable.
func (s *Store) Get(ctx context.Context, name string) (turntable.Snapshot, bool) {
	v, ok := s.snapshots.Load(name)
	if !ok {
		return turntable.Snapshot{}, false
	}
	return v.(turntable.Snapshot), true
}

// All returns every snapshot ordered by turntable name.
func (s *Store) All(ctx context.Context) []turntable.Snapshot {
	var out []turntable.Snapshot
	s.snapshots.Range(func(_, v any) bool {
		out = append(out, v.(turntable.Snapshot))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Turntable < out[j].Turntable })
	return out
}

// Observer returns a turntable observer that keeps the store up to date.
func (s *Store) Observer(ctx context.Context) turntable.Observer {
	return func(tr turntable.Transition) {
		s.Set(ctx, tr.Snapshot)
	}
}
