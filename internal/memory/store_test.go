package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAssignsMonotonicSeq(t *testing.T) {
	s := NewStore()
	seq1 := s.Append(Entry{Kind: KindAgentTurn, Content: "a", EstimatedTokens: 10})
	seq2 := s.Append(Entry{Kind: KindAgentTurn, Content: "b", EstimatedTokens: 10})
	require.Equal(t, uint64(1), seq1)
	require.Equal(t, uint64(2), seq2)
}

func TestActiveEntriesFiltersCompacted(t *testing.T) {
	s := NewStore()
	s.Append(Entry{Kind: KindAgentTurn, Content: "a", EstimatedTokens: 10})
	s.Append(Entry{Kind: KindAgentTurn, Content: "b", EstimatedTokens: 10})
	s.CompactUpTo(1)

	active := s.ActiveEntries()
	require.Len(t, active, 1)
	require.Equal(t, uint64(2), active[0].Seq)
}

func TestActiveTokenCountSumsOnlyActive(t *testing.T) {
	s := NewStore()
	s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 10})
	s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 20})
	s.CompactUpTo(1)
	require.Equal(t, 20, s.ActiveTokenCount())
}

func TestCompactUpToNeverCompactsSummaryEntries(t *testing.T) {
	s := NewStore()
	s.Append(Entry{Kind: KindSummary, Content: "sum", EstimatedTokens: 5})
	s.Append(Entry{Kind: KindAgentTurn, Content: "b", EstimatedTokens: 10})
	s.CompactUpTo(2)

	active := s.ActiveEntries()
	require.Len(t, active, 1)
	require.Equal(t, KindSummary, active[0].Kind)
}

func TestInsertSummaryCompactsRangeThenAppendsSentinel(t *testing.T) {
	s := NewStore()
	s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 10})
	s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 10})
	s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 10})

	summarySeq := s.InsertSummary(Entry{Content: "summary", EstimatedTokens: 5}, 2)
	require.Equal(t, uint64(4), summarySeq)

	active := s.ActiveEntries()
	require.Len(t, active, 2) // entry 3 + summary
	seqs := []uint64{active[0].Seq, active[1].Seq}
	require.ElementsMatch(t, []uint64{3, 4}, seqs)
}

func TestLookupExactMatch(t *testing.T) {
	s := NewStore()
	s.Append(Entry{Kind: KindAgentTurn, Content: "a"})
	e, ok := s.Lookup(1)
	require.True(t, ok)
	require.Equal(t, "a", e.Content)

	_, ok = s.Lookup(99)
	require.False(t, ok)
}

func TestActiveEntriesSortedBySeqNoGaps(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 1})
	}
	s.CompactUpTo(2)

	active := s.ActiveEntries()
	for i := 1; i < len(active); i++ {
		require.Greater(t, active[i].Seq, active[i-1].Seq)
	}
}

func TestHasReachablePrefixTrueForEmptyStore(t *testing.T) {
	s := NewStore()
	require.True(t, s.HasReachablePrefix())
}

func TestHasReachablePrefixFalseWhenAllCompactedNonSummary(t *testing.T) {
	s := NewStore()
	s.Append(Entry{Kind: KindAgentTurn, EstimatedTokens: 1})
	s.CompactUpTo(1)
	require.False(t, s.HasReachablePrefix())
}
