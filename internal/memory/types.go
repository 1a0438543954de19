// Package memory implements the Memory Store (C4), Summarizer Contract
// (C5), and Memory Compactor + Observer (C6). Grounded on the teacher's
// internal/context package (Compressor/TokenBudget/RollingSummary: a
// mutex-guarded, append-then-compress pipeline driven by token budget
// thresholds) generalized from the teacher's fact-based context model to
// the spec's sequence-numbered entry log.
package memory

import "time"

// EntryKind is the closed set of Memory Entry kinds.
type EntryKind string

const (
	KindSystemPrompt EntryKind = "system_prompt"
	KindAgentTurn    EntryKind = "agent_turn"
	KindToolResult   EntryKind = "tool_result"
	KindSummary      EntryKind = "summary"
	KindErrorContext EntryKind = "error_context"
	KindWorkPacket   EntryKind = "work_packet"
)

// Entry is a single sequence-numbered Memory Entry (§3).
type Entry struct {
	Seq             uint64
	Kind            EntryKind
	Content         string
	EstimatedTokens int
	CreatedAt       time.Time
	Compacted       bool
	Source          string
}

// IsSummary reports whether this entry is a compaction sentinel. Summary
// entries are never themselves compacted.
func (e Entry) IsSummary() bool {
	return e.Kind == KindSummary
}
