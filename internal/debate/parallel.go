package debate

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunParallel drives step concurrently across independent orchestrators,
// matching §5's "a debate session is single-threaded... but multiple
// debates run in parallel tasks": each orchestrator owns its own
// session and is only ever touched by its own goroutine here. The first
// error cancels ctx for the remaining in-flight steps and is returned;
// all orchestrators still run to completion of their own step before
// RunParallel returns.
func RunParallel(ctx context.Context, orchestrators []*Orchestrator, step func(context.Context, *Orchestrator) error) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, orch := range orchestrators {
		orch := orch
		group.Go(func() error {
			return step(gctx, orch)
		})
	}
	return group.Wait()
}
