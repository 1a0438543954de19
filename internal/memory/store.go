package memory

import (
	"fmt"
	"sync"
	"time"
)

// Store is the append-only Memory Store (§3/§4.4). Safe for concurrent
// use by a single owning coordinator task plus read-only observers, per
// §5's shared-resource model.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	nextSeq uint64
}

// NewStore creates an empty Memory Store.
func NewStore() *Store {
	return &Store{nextSeq: 1}
}

// Append assigns the next seq to entry and appends it, returning the
// assigned seq.
func (s *Store) Append(e Entry) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq
	s.nextSeq++

	e.Seq = seq
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, e)
	return seq
}

// ActiveEntries returns every entry with compacted == false, in seq order.
func (s *Store) ActiveEntries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Compacted {
			out = append(out, e)
		}
	}
	return out
}

// ActiveTokenCount sums estimated_tokens over active entries.
func (s *Store) ActiveTokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, e := range s.entries {
		if !e.Compacted {
			total += e.EstimatedTokens
		}
	}
	return total
}

// CompactUpTo sets compacted=true for every non-Summary entry with
// seq <= upTo. Summary entries are preserved regardless.
func (s *Store) CompactUpTo(upTo uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		e := &s.entries[i]
		if e.IsSummary() {
			continue
		}
		if e.Seq <= upTo {
			e.Compacted = true
		}
	}
}

// InsertSummary marks the range [up to compactUpToSeq] compacted, then
// appends the summary entry with a fresh seq. Returns the summary's
// assigned seq.
func (s *Store) InsertSummary(summary Entry, compactUpToSeq uint64) uint64 {
	s.CompactUpTo(compactUpToSeq)
	summary.Kind = KindSummary
	return s.Append(summary)
}

// Lookup returns the entry with the given seq, if any.
func (s *Store) Lookup(seq uint64) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Seq == seq {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns every entry in the store, including compacted ones, in seq
// order.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the total number of entries ever appended (including
// compacted ones).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// HasReachablePrefix reports whether at least one non-compacted entry
// exists, or the store is empty, satisfying the store's invariant (c): at
// least one non-compacted prefix is always reachable.
func (s *Store) HasReachablePrefix() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if !e.Compacted {
			return true
		}
	}
	return len(s.entries) == 0
}

// ErrInvalidRange is returned when a range operation references seq
// numbers outside the store.
var ErrInvalidRange = fmt.Errorf("memory: invalid range")
