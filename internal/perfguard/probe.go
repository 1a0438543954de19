package perfguard

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// ProbeAll runs probe concurrently across every registered tool,
// bounded to maxConcurrent in flight at once via a weighted semaphore,
// and records the outcome into each tool's ToolHealth tracker.
func (r *Registry) ProbeAll(ctx context.Context, maxConcurrent int64, probe func(ctx context.Context, name string) error) error {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	for _, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func(name string) {
			defer sem.Release(1)
			h := r.Get(name)
			if err := probe(ctx, name); err != nil {
				h.RecordFailure(err.Error())
			} else {
				h.RecordSuccess()
			}
		}(name)
	}

	// Drain: acquiring the full weight blocks until every in-flight
	// goroutine has released its slot.
	return sem.Acquire(ctx, maxConcurrent)
}
