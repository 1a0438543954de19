package perfguard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBudgetAllZeroNeverExceeds(t *testing.T) {
	budget := Budget{}
	require.False(t, budget.IsExceeded(999_999, 999_999, 999_999_999))
	_, exceeded := budget.ExceededLimit(999_999, 999_999, 999_999_999)
	require.False(t, exceeded)
}

func TestBudgetTimeoutExceeded(t *testing.T) {
	budget := Budget{TimeoutMs: 10_000}
	require.True(t, budget.IsExceeded(10_001, 0, 0))
	limit, ok := budget.ExceededLimit(10_001, 0, 0)
	require.True(t, ok)
	require.Equal(t, LimitTimeout, limit)
}

func TestBudgetResultCountExceeded(t *testing.T) {
	budget := Budget{MaxResults: 200}
	limit, ok := budget.ExceededLimit(0, 200, 0)
	require.True(t, ok)
	require.Equal(t, LimitResultCount, limit)
}

func TestBudgetOutputSizeExceeded(t *testing.T) {
	budget := Budget{MaxOutputBytes: 65_536}
	limit, ok := budget.ExceededLimit(0, 0, 65_536)
	require.True(t, ok)
	require.Equal(t, LimitOutputSize, limit)
}

func TestGuardTracksResultsAndBytes(t *testing.T) {
	g := NewGuard(Budget{MaxResults: 5})
	require.False(t, g.IsExceeded())
	g.AddResults(3, 100)
	require.False(t, g.IsExceeded())
	g.AddResults(3, 100)
	require.True(t, g.IsExceeded())
	require.Equal(t, 6, g.ResultCount())
	require.Equal(t, 200, g.OutputBytes())
}

func TestGuardDepthExceeded(t *testing.T) {
	g := NewGuard(Budget{MaxDepth: 3})
	g.SetDepth(2)
	require.False(t, g.IsExceeded())
	g.SetDepth(3)
	require.True(t, g.IsExceeded())
	limit, ok := g.ExceededLimit()
	require.True(t, ok)
	require.Equal(t, LimitDepth, limit)
}

func TestTruncateAppliesAndWarns(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	retained, result := Truncate(items, Budget{MaxResults: 10})
	require.Len(t, retained, 10)
	require.True(t, result.Truncated)
	require.Equal(t, 100, result.OriginalCount)
	require.Contains(t, result.Warning(), "10 of 100")
}

func TestTruncateUnlimitedNoOp(t *testing.T) {
	items := make([]int, 1000)
	retained, result := Truncate(items, Budget{})
	require.Len(t, retained, 1000)
	require.False(t, result.Truncated)
	require.Empty(t, result.Warning())
}

func TestRetryPolicyBackoffSequence(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, int64(0), p.BackoffMs(0))
	require.Equal(t, int64(500), p.BackoffMs(1))
	require.Equal(t, int64(1000), p.BackoffMs(2))
}

func TestRetryPolicyBackoffCapsAtMax(t *testing.T) {
	p := RetryPolicy{MaxRetries: 10, InitialBackoffMs: 1000, Multiplier: 3.0, MaxBackoffMs: 5000}
	require.Equal(t, int64(1000), p.BackoffMs(1))
	require.Equal(t, int64(3000), p.BackoffMs(2))
	require.Equal(t, int64(5000), p.BackoffMs(3))
	require.Equal(t, int64(5000), p.BackoffMs(4))
}

func TestRetryPolicyShouldRetry(t *testing.T) {
	p := DefaultRetryPolicy()
	require.True(t, p.ShouldRetry(0))
	require.True(t, p.ShouldRetry(1))
	require.False(t, p.ShouldRetry(2))
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialBackoffMs: 1, Multiplier: 1.0, MaxBackoffMs: 5}
	attempts := 0
	err := p.WithRetry(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestFallbackChainPrimarySucceeds(t *testing.T) {
	chain := NewChain("analysis").WithTier("ast_grep", 1.0).WithTier("regex", 0.7)
	resp := Execute(chain, func(tier string) (string, error) {
		if tier == "ast_grep" {
			return "ast result", nil
		}
		return "", errors.New("not called")
	})
	require.True(t, resp.IsFull())
	require.Equal(t, "ast_grep", resp.ServedBy)
	require.Empty(t, resp.Warnings)
}

func TestFallbackChainFallsToSecondTier(t *testing.T) {
	chain := NewChain("analysis").WithTier("ast_grep", 1.0).WithTier("regex", 0.7).WithTier("text", 0.3)
	resp := Execute(chain, func(tier string) (string, error) {
		switch tier {
		case "ast_grep":
			return "", errors.New("unavailable")
		case "regex":
			return "regex result", nil
		default:
			return "", errors.New("not reached")
		}
	})
	require.True(t, resp.IsDegraded())
	require.Equal(t, LevelPartial, resp.Level)
	require.Equal(t, "regex result", resp.Payload)
	require.Equal(t, 0.7, resp.Confidence)
	require.Len(t, resp.Warnings, 2)
}

func TestFallbackChainAllFail(t *testing.T) {
	chain := NewChain("tool").WithTier("a", 1.0).WithTier("b", 0.5)
	resp := Execute(chain, func(string) (string, error) { return "", errors.New("fail") })
	require.Equal(t, LevelUnavailable, resp.Level)
	require.Equal(t, 0.0, resp.Confidence)
	require.Len(t, resp.Warnings, 2)
}

func TestFallbackChainEmpty(t *testing.T) {
	chain := NewChain("empty")
	resp := Execute(chain, func(string) (string, error) { return "never", nil })
	require.Equal(t, LevelUnavailable, resp.Level)
}

func TestToolHealthDegradesAndRecovers(t *testing.T) {
	h := NewToolHealth("tool")
	h.RecordFailure("timeout")
	require.Equal(t, LevelPartial, h.Level)
	h.RecordFailure("timeout")
	require.Equal(t, LevelPartial, h.Level)
	h.RecordFailure("timeout")
	require.Equal(t, LevelUnavailable, h.Level)
	require.Equal(t, 3, h.ConsecutiveFailures)

	h.RecordSuccess()
	require.Equal(t, LevelUnavailable, h.Level)
	h.RecordSuccess()
	require.Equal(t, LevelUnavailable, h.Level)
	h.RecordSuccess()
	require.Equal(t, LevelFull, h.Level)
	require.Empty(t, h.LastError)
}

func TestToolHealthFailureRate(t *testing.T) {
	h := NewToolHealth("tool")
	h.RecordSuccess()
	h.RecordFailure("e")
	h.RecordSuccess()
	h.RecordFailure("e")
	require.Equal(t, int64(4), h.TotalCalls)
	require.InDelta(t, 0.5, h.FailureRate(), 0.0001)
}

func TestRegistryLastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.Get("toolA")
	reg.MarkUnavailable("toolA", "maintenance")

	got := reg.Get("toolA")
	require.Equal(t, LevelUnavailable, got.Level)

	reg.MarkAvailable("toolA")
	require.Equal(t, LevelFull, reg.Get("toolA").Level)
}

func TestRegistryUsableExcludesUnavailable(t *testing.T) {
	reg := NewRegistry()
	reg.Get("toolA")
	reg.Get("toolB")
	reg.MarkUnavailable("toolB", "down")

	usable := reg.Usable()
	require.Len(t, usable, 1)
	require.Equal(t, "toolA", usable[0].Name)
}

func TestRegistryRankedByHealth(t *testing.T) {
	reg := NewRegistry()
	a := reg.Get("toolA")
	a.RecordFailure("x")
	a.RecordFailure("x")
	reg.Get("toolB")

	ranked := reg.RankedByHealth()
	require.Len(t, ranked, 2)
	require.Equal(t, "toolB", ranked[0].Name)
}

func TestBackoffDurationMatchesMs(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, 500*time.Millisecond, p.BackoffDuration(1))
}
