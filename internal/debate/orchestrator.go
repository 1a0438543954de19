package debate

import (
	"fmt"
	"sort"
	"time"

	"codenerd/internal/budget"
	"codenerd/internal/coreerr"
	"codenerd/internal/memory"
)

var roundEstimator = budget.WordCountEstimator{}

// StepOutcome is what submit_code/submit_review hand back to the
// coordinator describing what happened.
type StepOutcome string

const (
	OutcomeAwaitReviewer StepOutcome = "await_reviewer"
	OutcomeAwaitCoder    StepOutcome = "await_coder"
	OutcomeComplete      StepOutcome = "complete"
)

// StepResult bundles the outcome with the session's new phase and, on
// AwaitCoder, the repair instructions to feed the next work packet.
type StepResult struct {
	Outcome          StepOutcome
	Phase            Phase
	Critique         *PatchCritique
	RepairInstructions []string
}

// Orchestrator drives one debate session (C13).
type Orchestrator struct {
	Session    *Session
	Guardrails Guardrails
	MinConfidence float64

	roundStart time.Time
	lastCritique *PatchCritique
}

// NewOrchestrator wires a session with its guardrail policy.
func NewOrchestrator(session *Session, guardrails Guardrails) *Orchestrator {
	return &Orchestrator{Session: session, Guardrails: guardrails, MinConfidence: defaultMinConfidence}
}

// Start transitions Idle -> CoderTurn.
func (o *Orchestrator) Start() *coreerr.Error {
	o.roundStart = time.Now()
	return o.Session.Transition(PhaseCoderTurn, "debate started")
}

// SubmitCode transitions CoderTurn -> ReviewerTurn.
func (o *Orchestrator) SubmitCode(out CoderOutput) *coreerr.Error {
	return o.Session.Transition(PhaseReviewerTurn, "coder submitted output")
}

// SubmitReview implements the exact §4.13 four-step decision:
//  1. consensus Reached -> Resolved (Complete)
//  2. guardrails MaxRoundsExceeded -> Deadlocked (Complete)
//  3. Abstain with low confidence -> Escalated (Complete)
//  4. otherwise: record round, transition to CoderTurn, AwaitCoder
func (o *Orchestrator) SubmitReview(coder CoderOutput, reviewer ReviewerOutput) (StepResult, *coreerr.Error) {
	check := BuildConsensusCheck(reviewer)
	outcome := check.Evaluate(o.MinConfidence)

	critique := buildCritique(o.Session.CurrentRound, reviewer.Issues)
	o.lastCritique = &critique

	elapsed := time.Since(o.roundStart)
	guardrail := o.Guardrails.Evaluate(o.Session, elapsed)

	round := RoundRecord{
		Round:           o.Session.CurrentRound,
		CoderOutput:     coder,
		ReviewerVerdict: reviewer.Verdict,
		Approved:        outcome == OutcomeReached,
		Issues:          reviewer.Issues,
		Duration:        elapsed,
		StartedAt:       o.roundStart,
	}

	if outcome == OutcomeReached {
		o.Session.RecordRound(round)
		if err := o.Session.Transition(PhaseResolved, "consensus reached"); err != nil {
			return StepResult{}, err
		}
		return StepResult{Outcome: OutcomeComplete, Phase: PhaseResolved, Critique: &critique}, nil
	}

	if guardrail.Kind == GuardrailMaxRoundsExceeded {
		o.Session.RecordRound(round)
		if err := o.Session.Transition(PhaseDeadlocked, fmt.Sprintf("max rounds exceeded (%d)", guardrail.RoundsExceeded)); err != nil {
			return StepResult{}, err
		}
		return StepResult{Outcome: OutcomeComplete, Phase: PhaseDeadlocked, Critique: &critique}, nil
	}

	if outcome == OutcomeDiverging {
		o.Session.RecordRound(round)
		if err := o.Session.Transition(PhaseEscalated, "abstain with low confidence"); err != nil {
			return StepResult{}, err
		}
		return StepResult{Outcome: OutcomeComplete, Phase: PhaseEscalated, Critique: &critique}, nil
	}

	o.Session.RecordRound(round)
	o.roundStart = time.Now()
	if err := o.Session.Transition(PhaseCoderTurn, "progressing, requesting another round"); err != nil {
		return StepResult{}, err
	}

	instructions := repairInstructions(reviewer.Issues)
	return StepResult{
		Outcome:            OutcomeAwaitCoder,
		Phase:               PhaseCoderTurn,
		Critique:            &critique,
		RepairInstructions:  instructions,
	}, nil
}

// Abort transitions any non-terminal phase to Aborted.
func (o *Orchestrator) Abort(reason string) *coreerr.Error {
	return o.Session.Transition(PhaseAborted, reason)
}

// buildCritique structures a PatchCritique from a round's issues.
func buildCritique(round int, issues []Issue) PatchCritique {
	blocking := 0
	for _, item := range issues {
		if item.Severity == SeverityBlocking {
			blocking++
		}
	}
	assessment := "no blocking issues"
	if blocking > 0 {
		assessment = fmt.Sprintf("%d blocking issue(s) found", blocking)
	}
	return PatchCritique{Round: round, OverallAssessment: assessment, Items: issues}
}

// severityOrder ranks severities for repair-instruction ordering:
// blocking first, then warnings, then suggestions.
var severityOrder = map[CritiqueSeverity]int{
	SeverityBlocking:   0,
	SeverityWarning:    1,
	SeveritySuggestion: 2,
}

// repairInstructions orders issues blocking-first, then warnings, then
// suggestions, and renders each as a single instruction line.
func repairInstructions(issues []Issue) []string {
	ordered := make([]Issue, len(issues))
	copy(ordered, issues)
	sort.SliceStable(ordered, func(i, j int) bool {
		return severityOrder[ordered[i].Severity] < severityOrder[ordered[j].Severity]
	})

	out := make([]string, 0, len(ordered))
	for _, issue := range ordered {
		line := fmt.Sprintf("[%s] %s", issue.Severity, issue.Description)
		if issue.File != "" {
			line = fmt.Sprintf("[%s] %s: %s", issue.Severity, issue.File, issue.Description)
		}
		if issue.SuggestedFix != "" {
			line += fmt.Sprintf(" (suggested fix: %s)", issue.SuggestedFix)
		}
		out = append(out, line)
	}
	return out
}

// RecordToMemory is an opt-in bridge (grounded on original_source's
// debate/memory_bridge.rs) converting the most recently recorded round
// into a memory entry pair, so a long debate is itself subject to
// compaction.
func (o *Orchestrator) RecordToMemory(store *memory.Store) {
	if len(o.Session.Rounds) == 0 {
		return
	}
	round := o.Session.Rounds[len(o.Session.Rounds)-1]

	store.Append(memory.Entry{
		Kind:            memory.KindWorkPacket,
		Content:         round.CoderOutput.Summary,
		EstimatedTokens: estimateRoundTokens(round.CoderOutput.Summary),
		CreatedAt:       round.StartedAt,
		Source:          fmt.Sprintf("debate:%s:round:%d:coder", o.Session.ID, round.Round),
	})

	reviewSummary := fmt.Sprintf("verdict=%s approved=%v issues=%d", round.ReviewerVerdict, round.Approved, len(round.Issues))
	store.Append(memory.Entry{
		Kind:            memory.KindAgentTurn,
		Content:         reviewSummary,
		EstimatedTokens: estimateRoundTokens(reviewSummary),
		CreatedAt:       round.StartedAt.Add(round.Duration),
		Source:          fmt.Sprintf("debate:%s:round:%d:reviewer", o.Session.ID, round.Round),
	})
}

func estimateRoundTokens(text string) int {
	return roundEstimator.Estimate(text)
}
