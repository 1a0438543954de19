// Package debate implements the Debate State Machine (C11), Consensus
// Protocol & Guardrails (C12), and Debate Orchestrator (C13): a
// producer/critic loop over one task. Grounded on the teacher's
// internal/campaign PhaseStatus closed-enum-with-explicit-transitions
// idiom (internal/campaign/types.go, orchestrator_phases.go) and
// internal/shards/reviewer/verification.go's confidence-scored verdict
// pattern, adapted from campaign-phase/hypothesis-verdict tracking to a
// coder/reviewer debate state machine.
package debate

import "time"

// Phase is the closed set of Debate Phases (§3).
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseCoderTurn   Phase = "coder_turn"
	PhaseReviewerTurn Phase = "reviewer_turn"
	PhaseResolved    Phase = "resolved"
	PhaseDeadlocked  Phase = "deadlocked"
	PhaseEscalated   Phase = "escalated"
	PhaseAborted     Phase = "aborted"
)

// terminalPhases is the fixed terminal set.
var terminalPhases = map[Phase]bool{
	PhaseResolved:   true,
	PhaseDeadlocked: true,
	PhaseEscalated:  true,
	PhaseAborted:    true,
}

// IsTerminal reports whether a phase is terminal (no outgoing
// transitions).
func (p Phase) IsTerminal() bool {
	return terminalPhases[p]
}

// validTransitions is the fixed DAG from §4.11.
var validTransitions = map[Phase]map[Phase]bool{
	PhaseIdle:         {PhaseCoderTurn: true, PhaseAborted: true},
	PhaseCoderTurn:    {PhaseReviewerTurn: true, PhaseAborted: true},
	PhaseReviewerTurn: {PhaseCoderTurn: true, PhaseResolved: true, PhaseDeadlocked: true, PhaseEscalated: true, PhaseAborted: true},
}

// CoderOutput is the producer's submission for one round.
type CoderOutput struct {
	Summary     string
	FilesTouched []string
	DiffPreview string
}

// Verdict is the closed set of reviewer verdicts (§3 Consensus Check).
type Verdict string

const (
	VerdictApprove       Verdict = "approve"
	VerdictRequestChanges Verdict = "request_changes"
	VerdictAbstain       Verdict = "abstain"
)

// CritiqueSeverity is the closed severity set for Patch Critique items.
type CritiqueSeverity string

const (
	SeverityBlocking    CritiqueSeverity = "blocking"
	SeverityWarning     CritiqueSeverity = "warning"
	SeveritySuggestion  CritiqueSeverity = "suggestion"
)

// Issue is one reviewer-raised item, feeding both the Consensus Check's
// blocking_issues and the Patch Critique's items.
type Issue struct {
	Severity      CritiqueSeverity
	Category      string
	File          string
	LineRangeText string
	Description   string
	SuggestedFix  string
}

// ReviewerOutput is the critic's submission for one round.
type ReviewerOutput struct {
	Verdict        Verdict
	Confidence     float64
	Issues         []Issue
	ApproachAligned bool
}

// ConsensusCheck is §3's Consensus Check.
type ConsensusCheck struct {
	Verdict         Verdict
	Confidence      float64
	BlockingIssues  []Issue
	Suggestions     []Issue
	ApproachAligned bool
}

// ConsensusOutcome is the closed set from §4.12.
type ConsensusOutcome string

const (
	OutcomeReached    ConsensusOutcome = "reached"
	OutcomeProgressing ConsensusOutcome = "progressing"
	OutcomeDiverging  ConsensusOutcome = "diverging"
)

// PatchCritique is §3's Patch Critique, structured from a round's issues.
type PatchCritique struct {
	Round             int
	OverallAssessment string
	Items             []Issue
}

// BlockingCount returns the number of Blocking-severity items.
func (c PatchCritique) BlockingCount() int {
	n := 0
	for _, item := range c.Items {
		if item.Severity == SeverityBlocking {
			n++
		}
	}
	return n
}

// RoundRecord is §3's Round Record.
type RoundRecord struct {
	Round           int
	CoderOutput     CoderOutput
	ReviewerVerdict Verdict
	Approved        bool
	Issues          []Issue
	Duration        time.Duration
	StartedAt       time.Time
}

// Transition records one phase change with its reason, per §4.11.
type Transition struct {
	From      Phase
	To        Phase
	Reason    string
	Timestamp time.Time
}

// GuardrailOutcome is the closed set from §4.12.
type GuardrailOutcome struct {
	Kind              GuardrailKind
	RoundsExceeded    int
	TimeoutExceededMs int64
}

// GuardrailKind is the closed outcome-kind set.
type GuardrailKind string

const (
	GuardrailContinue            GuardrailKind = "continue"
	GuardrailMaxRoundsExceeded   GuardrailKind = "max_rounds_exceeded"
	GuardrailTimeoutExceeded     GuardrailKind = "timeout_exceeded"
	GuardrailRepeatedDisagreement GuardrailKind = "repeated_disagreement"
)

// Session is §3's Debate Session.
type Session struct {
	ID          string
	Phase       Phase
	CurrentRound int
	MaxRounds   int
	Rounds      []RoundRecord
	Transitions []Transition
	CreatedAt   time.Time
	IssueID     string
	Subject     string
}

// NewSession creates an Idle session for a subject with a round budget.
func NewSession(id, subject string, maxRounds int) *Session {
	return &Session{
		ID:        id,
		Phase:     PhaseIdle,
		MaxRounds: maxRounds,
		CreatedAt: time.Now(),
		Subject:   subject,
	}
}

// HasRoundsRemaining reports current_round < max_rounds.
func (s *Session) HasRoundsRemaining() bool {
	return s.CurrentRound < s.MaxRounds
}

// RecordRound appends a round record to history.
func (s *Session) RecordRound(rec RoundRecord) {
	s.Rounds = append(s.Rounds, rec)
}
