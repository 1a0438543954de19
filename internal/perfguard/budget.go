// Package perfguard implements bounded operation budgets, retry backoff,
// tiered fallback, and tool health tracking (C15), grounded on the
// original_source perf_control.rs and resilience.rs modules.
package perfguard

import (
	"fmt"
	"time"
)

// Limit identifies which budget dimension was exceeded.
type Limit string

const (
	LimitTimeout     Limit = "timeout"
	LimitResultCount Limit = "result_count"
	LimitOutputSize  Limit = "output_size"
	LimitDepth       Limit = "depth"
)

// Budget bounds a single operation. A zero value for any field means
// that dimension is unlimited.
type Budget struct {
	TimeoutMs     int64
	MaxResults    int
	MaxOutputBytes int
	MaxDepth      int
}

// IsExceeded reports whether any non-zero timeout, result-count or
// output-size dimension has been crossed. MaxDepth is not checked here;
// Guard checks it.
func (b Budget) IsExceeded(elapsedMs int64, resultCount, outputBytes int) bool {
	return (b.TimeoutMs > 0 && elapsedMs >= b.TimeoutMs) ||
		(b.MaxResults > 0 && resultCount >= b.MaxResults) ||
		(b.MaxOutputBytes > 0 && outputBytes >= b.MaxOutputBytes)
}

// ExceededLimit reports which limit fired first, if any.
func (b Budget) ExceededLimit(elapsedMs int64, resultCount, outputBytes int) (Limit, bool) {
	if b.TimeoutMs > 0 && elapsedMs >= b.TimeoutMs {
		return LimitTimeout, true
	}
	if b.MaxResults > 0 && resultCount >= b.MaxResults {
		return LimitResultCount, true
	}
	if b.MaxOutputBytes > 0 && outputBytes >= b.MaxOutputBytes {
		return LimitOutputSize, true
	}
	return "", false
}

// Guard tracks live consumption against a Budget across the lifetime of
// a single operation (a debate step, a tool call, a graph traversal).
type Guard struct {
	budget      Budget
	start       time.Time
	resultCount int
	outputBytes int
	depth       int
}

// NewGuard starts a guard against budget, clocked from now.
func NewGuard(budget Budget) *Guard {
	return &Guard{budget: budget, start: time.Now()}
}

// AddResults records additional results and output bytes produced.
func (g *Guard) AddResults(count, bytes int) {
	g.resultCount += count
	g.outputBytes += bytes
}

// SetDepth records the current traversal depth.
func (g *Guard) SetDepth(depth int) {
	g.depth = depth
}

// ElapsedMs is the wall-clock time since the guard was created.
func (g *Guard) ElapsedMs() int64 {
	return time.Since(g.start).Milliseconds()
}

// IsExceeded reports whether any budget dimension, including depth, has
// been crossed.
func (g *Guard) IsExceeded() bool {
	if g.budget.MaxDepth > 0 && g.depth >= g.budget.MaxDepth {
		return true
	}
	return g.budget.IsExceeded(g.ElapsedMs(), g.resultCount, g.outputBytes)
}

// ExceededLimit reports which limit fired first, if any. Depth is
// checked ahead of the budget's own dimensions since it is guard-local.
func (g *Guard) ExceededLimit() (Limit, bool) {
	if g.budget.MaxDepth > 0 && g.depth >= g.budget.MaxDepth {
		return LimitDepth, true
	}
	return g.budget.ExceededLimit(g.ElapsedMs(), g.resultCount, g.outputBytes)
}

// ResultCount is the number of results recorded so far.
func (g *Guard) ResultCount() int { return g.resultCount }

// OutputBytes is the number of output bytes recorded so far.
func (g *Guard) OutputBytes() int { return g.outputBytes }

// TruncationResult describes the outcome of applying a result-count
// budget to a collection.
type TruncationResult struct {
	Truncated      bool
	OriginalCount  int
	RetainedCount  int
	Reason         Limit
}

// Warning renders a user-facing truncation notice, or "" if untruncated.
func (r TruncationResult) Warning() string {
	if !r.Truncated {
		return ""
	}
	reason := r.Reason
	if reason == "" {
		reason = "unknown"
	}
	return fmt.Sprintf("results truncated: %d of %d retained (%s)", r.RetainedCount, r.OriginalCount, reason)
}

// Truncate applies budget.MaxResults to items, returning the retained
// slice and a description of what happened.
func Truncate[T any](items []T, budget Budget) ([]T, TruncationResult) {
	if budget.MaxResults == 0 || len(items) <= budget.MaxResults {
		return items, TruncationResult{OriginalCount: len(items), RetainedCount: len(items)}
	}
	original := len(items)
	retained := items[:budget.MaxResults]
	return retained, TruncationResult{
		Truncated:     true,
		OriginalCount: original,
		RetainedCount: budget.MaxResults,
		Reason:        LimitResultCount,
	}
}
