package telemetry

import "sync"

// Store owns the current Snapshot. One goroutine writes through Update,
// any number read through Read. The lock only covers copying a Snapshot
// in or out, never decoding or drawing.
type Store struct {
	mu      sync.Mutex
	current Snapshot
	version uint64
	dirty   bool
}

// NewStore returns a Store holding initial at version 0.
func NewStore(initial Snapshot) *Store {
	return &Store{current: initial}
}

// Update merges f into the current snapshot, bumps the version and marks
// the store dirty. It returns the new version.
func (s *Store) Update(f Fields) uint64 {
	s.mu.Lock()
	s.current = s.current.Merge(f)
	s.version++
	s.dirty = true
	v := s.version
	s.mu.Unlock()
	return v
}

// Read returns a consistent copy of the current snapshot and the version
// that produced it.
func (s *Store) Read() (Snapshot, uint64) {
	s.mu.Lock()
	snap, v := s.current, s.version
	s.mu.Unlock()
	return snap, v
}

// Version returns the current version without copying the snapshot.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	v := s.version
	s.mu.Unlock()
	return v
}

// Dirty reports whether an update arrived that has not been marked clean.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	d := s.dirty
	s.mu.Unlock()
	return d
}

// MarkClean clears the dirty flag if version is still the latest. An update
// that raced in after the caller's Read keeps the store dirty.
func (s *Store) MarkClean(version uint64) {
	s.mu.Lock()
	if version == s.version {
		s.dirty = false
	}
	s.mu.Unlock()
}
