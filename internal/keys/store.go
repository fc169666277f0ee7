package keys

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
)

// Store is the in-memory mapping of key id to key record. Persistence is the
// caller's concern; see configs.Settings.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStore creates a store seeded with the given records.
func NewStore(records map[string]Record) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Get returns the record for id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return r.Clone(), true
}

// Has reports whether a record exists for id.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

// Put inserts or replaces a record.
func (s *Store) Put(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r.Clone()
}

// Delete removes the record for id and reports whether one existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns copies of all records sorted by label, then id.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Label() != out[j].Label() {
			return out[i].Label() < out[j].Label()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Map returns a copy of the id to record mapping, suitable for persisting.
func (s *Store) Map() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.records))
	for id, r := range s.records {
		out[id] = r.Clone()
	}
	return out
}

// Replace swaps the whole mapping, as on a settings reload. Records are
// re-keyed by their own ID.
func (s *Store) Replace(records map[string]Record) {
	next := make(map[string]Record, len(records))
	for _, r := range records {
		next[r.ID] = r.Clone()
	}
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

// Resolve finds a key by reference: an exact id, then a unique name, then a
// unique id prefix.
func (s *Store) Resolve(ref string) (Record, error) {
	ref = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(ref), "..."))
	if ref == "" {
		return Record{}, fmt.Errorf("empty key reference: %w", kerrors.ErrUnknownKey)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[ref]; ok {
		return r.Clone(), nil
	}

	var byName, byPrefix []Record
	for _, r := range s.records {
		if r.Name == ref {
			byName = append(byName, r)
		}
		if strings.HasPrefix(r.ID, ref) {
			byPrefix = append(byPrefix, r)
		}
	}

	switch {
	case len(byName) == 1:
		return byName[0].Clone(), nil
	case len(byName) > 1:
		return Record{}, fmt.Errorf("%d keys are named %q: %w", len(byName), ref, kerrors.ErrAmbiguousKey)
	case len(byPrefix) == 1:
		return byPrefix[0].Clone(), nil
	case len(byPrefix) > 1:
		return Record{}, fmt.Errorf("%d key ids start with %q: %w", len(byPrefix), ref, kerrors.ErrAmbiguousKey)
	}
	return Record{}, fmt.Errorf("no key matches %q: %w", ref, kerrors.ErrUnknownKey)
}
