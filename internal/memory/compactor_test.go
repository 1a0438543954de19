package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"codenerd/internal/budget"
	"codenerd/internal/coreerr"
)

func stubSummarizer(text string, tokens int) Summarizer {
	return summarizerFunc(func(_ context.Context, req SummaryRequest) (SummaryResponse, error) {
		return SummaryResponse{
			Text:                  text,
			SummaryTokens:         tokens,
			SectionsIncluded:      defaultRequiredSections,
			EntriesSummarized:     len(req.Entries),
			InputTokensCompressed: sumTokens(req.Entries),
			CompressionRatio:      float64(sumTokens(req.Entries)) / float64(tokens),
		}, nil
	})
}

type summarizerFunc func(context.Context, SummaryRequest) (SummaryResponse, error)

func (f summarizerFunc) Summarize(ctx context.Context, req SummaryRequest) (SummaryResponse, error) {
	return f(ctx, req)
}

// TestCompactionUnderBudget implements scenario S4 from the spec: budget
// max=200 target=100 min_retained=2, 5 entries of 50 tokens each
// (total 250), stub summarizer produces a 20-token summary. Expected:
// active_entries <= 3, active_token_count <= 120, compression_ratio > 0.
func TestCompactionUnderBudget(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	}

	b := budget.Budget{MaxTokens: 200, TargetTokens: 100, SystemReserve: 0, MinRetainedEntries: 2}
	observer := NewObserver(8)
	compactor := NewCompactor(store, stubSummarizer("summary", 20), budget.WordCountEstimator{}, b, observer, RetryPolicy{}, 0.1)

	m, err := compactor.Compact(context.Background(), TriggerManual, 2)
	require.Nil(t, err)
	require.True(t, m.Success)
	require.Greater(t, m.CompressionRatio, 0.0)

	active := store.ActiveEntries()
	require.LessOrEqual(t, len(active), 3)
	require.LessOrEqual(t, store.ActiveTokenCount(), 120)
}

func TestCompactEmptyStoreReturnsEmptyInput(t *testing.T) {
	store := NewStore()
	b := budget.Budget{MaxTokens: 200, TargetTokens: 100}
	compactor := NewCompactor(store, stubSummarizer("s", 10), budget.WordCountEstimator{}, b, NewObserver(4), RetryPolicy{}, 0.1)

	_, err := compactor.Compact(context.Background(), TriggerManual, 2)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindEmptyInput, err.Kind)
}

func TestCompactNeverReducesBelowMinRetained(t *testing.T) {
	store := NewStore()
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})

	b := budget.Budget{MaxTokens: 200, TargetTokens: 10}
	compactor := NewCompactor(store, stubSummarizer("s", 10), budget.WordCountEstimator{}, b, NewObserver(4), RetryPolicy{}, 0.1)

	// min_retained_entries = store size: compaction must skip (EmptyInput)
	// per the "store size <= n" boundary rule.
	_, err := compactor.Compact(context.Background(), TriggerManual, 2)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindEmptyInput, err.Kind)
}

func TestCompactIsIdempotentWhenAlreadyUnderTarget(t *testing.T) {
	store := NewStore()
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 5})
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 5})
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 5})

	b := budget.Budget{MaxTokens: 1000, TargetTokens: 1000}
	compactor := NewCompactor(store, stubSummarizer("s", 10), budget.WordCountEstimator{}, b, NewObserver(4), RetryPolicy{}, 0.1)

	m, err := compactor.Compact(context.Background(), TriggerManual, 0)
	require.Nil(t, err)
	require.Equal(t, m.EntriesBefore, m.EntriesAfter)
	require.Equal(t, m.TokensBefore, m.TokensAfter)
}

func TestCompactValidationFailurePropagates(t *testing.T) {
	store := NewStore()
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})

	b := budget.Budget{MaxTokens: 200, TargetTokens: 10}
	// Summarizer returns an empty summary, which fails validation.
	compactor := NewCompactor(store, stubSummarizer("", 0), budget.WordCountEstimator{}, b, NewObserver(4), RetryPolicy{}, 0.1)

	_, err := compactor.Compact(context.Background(), TriggerManual, 0)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindIntegrityViolation, err.Kind)
}

// failThenSucceedSummarizer fails with a transient error for the first
// failures calls, then succeeds.
func failThenSucceedSummarizer(failures int, text string, tokens int) Summarizer {
	calls := 0
	return summarizerFunc(func(ctx context.Context, req SummaryRequest) (SummaryResponse, error) {
		calls++
		if calls <= failures {
			return SummaryResponse{}, errors.New("transient summarizer error")
		}
		return SummaryResponse{
			Text:                  text,
			SummaryTokens:         tokens,
			SectionsIncluded:      defaultRequiredSections,
			EntriesSummarized:     len(req.Entries),
			InputTokensCompressed: sumTokens(req.Entries),
			CompressionRatio:      float64(sumTokens(req.Entries)) / float64(tokens),
		}, nil
	})
}

func TestAutoCompactSkipsWhenDisabled(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	}
	b := budget.Budget{MaxTokens: 200, TargetTokens: 100, MinRetainedEntries: 2}
	compactor := NewCompactor(store, stubSummarizer("summary", 20), budget.WordCountEstimator{}, b, NewObserver(8),
		RetryPolicy{MaxRetries: 3, RetryBackoff: time.Millisecond, AutoCompact: false}, 0.1)

	_, err := compactor.AutoCompact(context.Background(), TriggerBudget, 2)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindEmptyInput, err.Kind)
	require.Equal(t, 5, len(store.ActiveEntries()))
}

func TestAutoCompactRetriesTransientFailureThenSucceeds(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	}
	b := budget.Budget{MaxTokens: 200, TargetTokens: 100, MinRetainedEntries: 2}
	compactor := NewCompactor(store, failThenSucceedSummarizer(2, "summary", 20), budget.WordCountEstimator{}, b, NewObserver(8),
		RetryPolicy{MaxRetries: 3, RetryBackoff: time.Millisecond, AutoCompact: true}, 0.1)

	m, err := compactor.AutoCompact(context.Background(), TriggerBudget, 2)
	require.Nil(t, err)
	require.True(t, m.Success)
}

func TestAutoCompactStopsAfterMaxRetriesExhausted(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		store.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 50})
	}
	b := budget.Budget{MaxTokens: 200, TargetTokens: 100, MinRetainedEntries: 2}
	compactor := NewCompactor(store, failThenSucceedSummarizer(10, "summary", 20), budget.WordCountEstimator{}, b, NewObserver(8),
		RetryPolicy{MaxRetries: 2, RetryBackoff: time.Millisecond, AutoCompact: true}, 0.1)

	_, err := compactor.AutoCompact(context.Background(), TriggerBudget, 2)
	require.NotNil(t, err)
	require.Equal(t, coreerr.KindSummarizationFailed, err.Kind)
}
