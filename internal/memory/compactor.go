package memory

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"codenerd/internal/budget"
	"codenerd/internal/coreerr"
	"codenerd/internal/logging"
)

// CompactionEvent is a trigger signal considered by CheckEvent.
type CompactionEvent struct {
	Kind   string // "budget_exceeded", "session_ending", or a custom marker
	Marker string
}

const (
	EventBudgetExceeded = "budget_exceeded"
	EventSessionEnding  = "session_ending"
)

// Trigger names what caused a compaction run, recorded on the metrics.
type Trigger string

const (
	TriggerBudget  Trigger = "budget"
	TriggerEvent   Trigger = "event"
	TriggerManual  Trigger = "manual"
)

// Metrics is one compaction run's observable outcome (§4.6).
type Metrics struct {
	Seq              uint64
	Trigger          Trigger
	EntriesBefore    int
	EntriesAfter     int
	TokensBefore     int
	TokensAfter      int
	TokensFreed      int
	CompressionRatio float64
	SummaryTokens    int
	Duration         time.Duration
	Success          bool
	Error            string
}

// Compactor runs the memory compaction operation (§4.6).
type Compactor struct {
	store      *Store
	summarizer Summarizer
	estimator  budget.Estimator
	budget     budget.Budget
	observer   *Observer

	retryPolicy   RetryPolicy
	reservedOutputPct float64
	seqCounter    uint64
}

// RetryPolicy bounds auto-compaction retries (§6's compaction policy:
// max retries, retry backoff, auto-on/off).
type RetryPolicy struct {
	MaxRetries   int
	RetryBackoff time.Duration
	AutoCompact  bool
}

// NewCompactor wires a Compactor over a store, summarizer, token
// estimator, and budget. reservedOutputPct is the fraction of target
// tokens reserved for the summary's own output (§4.6 step 3).
func NewCompactor(store *Store, summarizer Summarizer, estimator budget.Estimator, b budget.Budget, observer *Observer, retryPolicy RetryPolicy, reservedOutputPct float64) *Compactor {
	return &Compactor{
		store:             store,
		summarizer:        summarizer,
		estimator:         estimator,
		budget:            b,
		observer:          observer,
		retryPolicy:       retryPolicy,
		reservedOutputPct: reservedOutputPct,
	}
}

// CheckBudget wraps §4.3's budget evaluation over the store's current
// active token count.
func (c *Compactor) CheckBudget() budget.Decision {
	return c.budget.Evaluate(c.store.ActiveTokenCount())
}

// CheckEvent decides whether an event warrants compaction.
func (c *Compactor) CheckEvent(ev CompactionEvent) bool {
	switch ev.Kind {
	case EventBudgetExceeded:
		return true
	case EventSessionEnding:
		return true
	default:
		return ev.Marker != ""
	}
}

// Compact runs one compaction pass per §4.6's seven steps. Returns the
// metrics record (also emitted to the observer) and a structured error on
// failure.
func (c *Compactor) Compact(ctx context.Context, trigger Trigger, minRetainedEntries int) (Metrics, *coreerr.Error) {
	start := time.Now()
	c.seqCounter++
	seq := c.seqCounter

	active := c.store.ActiveEntries()
	tokensBefore := sumTokens(active)

	if len(active) == 0 || len(active) < minRetainedEntries+1 {
		m := Metrics{Seq: seq, Trigger: trigger, EntriesBefore: len(active), EntriesAfter: len(active),
			TokensBefore: tokensBefore, TokensAfter: tokensBefore, Duration: time.Since(start), Success: false,
			Error: string(coreerr.KindEmptyInput)}
		c.emit(m)
		logging.MemoryWarn("compaction skipped: %d active entries (min_retained=%d)", len(active), minRetainedEntries)
		return m, coreerr.New(coreerr.KindEmptyInput, "no entries eligible for compaction", nil)
	}

	nonSummary := filterNonSummary(active)
	entryTokens := make([]int, len(nonSummary))
	for i, e := range nonSummary {
		entryTokens[i] = e.EstimatedTokens
	}
	n := budget.EntriesToCompact(entryTokens, tokensBefore, c.budget.TargetTokens, minRetainedEntries)
	if n == 0 {
		m := Metrics{Seq: seq, Trigger: trigger, EntriesBefore: len(active), EntriesAfter: len(active),
			TokensBefore: tokensBefore, TokensAfter: tokensBefore, Duration: time.Since(start), Success: true}
		c.emit(m)
		return m, nil
	}

	toSummarize := nonSummary[:n]
	reservedOutput := int(float64(c.budget.TargetTokens) * c.reservedOutputPct)
	if reservedOutput <= 0 {
		reservedOutput = 1
	}
	req := NewSummaryRequest(toSummarize, reservedOutput, "")

	resp, err := c.summarizer.Summarize(ctx, req)
	if err != nil {
		m := Metrics{Seq: seq, Trigger: trigger, EntriesBefore: len(active), EntriesAfter: len(active),
			TokensBefore: tokensBefore, TokensAfter: tokensBefore, Duration: time.Since(start), Success: false,
			Error: string(coreerr.KindSummarizationFailed)}
		c.emit(m)
		logging.Get(logging.CategoryMemory).Error("summarization failed: %v", err)
		return m, coreerr.New(coreerr.KindSummarizationFailed, err.Error(), nil)
	}

	if verr := Validate(req, resp); verr != nil {
		m := Metrics{Seq: seq, Trigger: trigger, EntriesBefore: len(active), EntriesAfter: len(active),
			TokensBefore: tokensBefore, TokensAfter: tokensBefore, Duration: time.Since(start), Success: false,
			Error: string(verr.Kind)}
		c.emit(m)
		return m, verr
	}

	lastSeq := toSummarize[len(toSummarize)-1].Seq
	summaryEntry := Entry{
		Kind:            KindSummary,
		Content:         resp.Text,
		EstimatedTokens: resp.SummaryTokens,
		Source:          "compactor",
	}
	c.store.InsertSummary(summaryEntry, lastSeq)

	tokensAfter := c.store.ActiveTokenCount()
	m := Metrics{
		Seq:              seq,
		Trigger:          trigger,
		EntriesBefore:    len(active),
		EntriesAfter:     len(c.store.ActiveEntries()),
		TokensBefore:     tokensBefore,
		TokensAfter:      tokensAfter,
		TokensFreed:      tokensBefore - tokensAfter,
		CompressionRatio: resp.CompressionRatio,
		SummaryTokens:    resp.SummaryTokens,
		Duration:         time.Since(start),
		Success:          true,
	}
	c.emit(m)
	logging.Memory("compaction %d: %d->%d entries, %d->%d tokens (ratio %.2f)",
		seq, m.EntriesBefore, m.EntriesAfter, m.TokensBefore, m.TokensAfter, m.CompressionRatio)
	return m, nil
}

// AutoCompact wraps Compact with the configured retry/backoff policy
// (§4.6, §6's "compaction policy: max retries, retry backoff,
// auto-on/off"), driven by github.com/cenkalti/backoff/v4 the same way
// internal/perfguard/retry.go drives its own retry path. If the policy
// disables auto-compaction, it returns the EmptyInput-equivalent no-op
// immediately rather than looping. Only retryable failures (per
// coreerr.Error.Retryable) are reattempted; a non-retryable failure
// returns on the first attempt.
func (c *Compactor) AutoCompact(ctx context.Context, trigger Trigger, minRetainedEntries int) (Metrics, *coreerr.Error) {
	if !c.retryPolicy.AutoCompact {
		logging.MemoryDebug("auto-compaction disabled by policy; skipping trigger %s", trigger)
		return Metrics{Trigger: trigger, Success: false, Error: string(coreerr.KindEmptyInput)},
			coreerr.New(coreerr.KindEmptyInput, "auto-compaction disabled", nil)
	}

	bo := backoff.NewConstantBackOff(c.retryPolicy.RetryBackoff)
	withCtx := backoff.WithContext(bo, ctx)

	var lastMetrics Metrics
	var lastErr *coreerr.Error
	attempt := 0

	op := func() error {
		lastMetrics, lastErr = c.Compact(ctx, trigger, minRetainedEntries)
		if lastErr == nil {
			return nil
		}
		if attempt >= c.retryPolicy.MaxRetries || !lastErr.Retryable() {
			return backoff.Permanent(lastErr)
		}
		attempt++
		logging.MemoryWarn("compaction attempt %d failed (%s), retrying", attempt, lastErr.Kind)
		return lastErr
	}

	_ = backoff.Retry(op, withCtx)
	return lastMetrics, lastErr
}

func (c *Compactor) emit(m Metrics) {
	if c.observer != nil {
		c.observer.Record(m)
	}
}

func sumTokens(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.EstimatedTokens
	}
	return total
}

func filterNonSummary(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsSummary() {
			out = append(out, e)
		}
	}
	return out
}
