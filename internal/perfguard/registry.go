package perfguard

import (
	"sort"
	"sync"
)

// Registry is a shared, concurrency-safe table of ToolHealth trackers
// keyed by tool name. It is the only shared mutable state permitted
// across coordinator tasks; updates use interior mutability with
// last-write-wins semantics, grounded on original_source's
// ProviderRegistry (registry/mod.rs).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*ToolHealth
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*ToolHealth)}
}

// Get returns the tracker for name, registering a fresh healthy one on
// first use.
func (r *Registry) Get(name string) *ToolHealth {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[name]
	if !ok {
		h = NewToolHealth(name)
		r.entries[name] = h
	}
	return h
}

// Update replaces the tracker for name outright (last-write-wins: a
// concurrent Update always overwrites whatever was there).
func (r *Registry) Update(name string, health *ToolHealth) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = health
}

// MarkUnavailable forces a tool to Unavailable with a status reason
// recorded as its last error.
func (r *Registry) MarkUnavailable(name, reason string) {
	h := r.Get(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	h.Level = LevelUnavailable
	h.LastError = reason
}

// MarkAvailable resets a tool to Full, clearing its failure streak.
func (r *Registry) MarkAvailable(name string) {
	h := r.Get(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	h.Level = LevelFull
	h.ConsecutiveFailures = 0
	h.LastError = ""
}

// Usable returns every tracked tool not at LevelUnavailable.
func (r *Registry) Usable() []*ToolHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ToolHealth, 0, len(r.entries))
	for _, h := range r.entries {
		if h.Level != LevelUnavailable {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RankedByHealth returns every tracked tool sorted best-first: lowest
// failure rate, ties broken by fewest consecutive failures.
func (r *Registry) RankedByHealth() []*ToolHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ToolHealth, 0, len(r.entries))
	for _, h := range r.entries {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].FailureRate(), out[j].FailureRate()
		if ri != rj {
			return ri < rj
		}
		return out[i].ConsecutiveFailures < out[j].ConsecutiveFailures
	})
	return out
}
