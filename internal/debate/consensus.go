package debate

import "time"

// defaultMinConfidence is the §4.12 default threshold for an Approve
// verdict to count as Reached.
const defaultMinConfidence = 0.7

// lowConfidenceThreshold is the §4.12 threshold below which an Abstain
// verdict counts as Diverging.
const lowConfidenceThreshold = 0.4

// BuildConsensusCheck projects a ReviewerOutput into a ConsensusCheck,
// splitting issues into blocking vs. non-blocking (suggestions).
func BuildConsensusCheck(out ReviewerOutput) ConsensusCheck {
	var blocking, suggestions []Issue
	for _, issue := range out.Issues {
		if issue.Severity == SeverityBlocking {
			blocking = append(blocking, issue)
		} else {
			suggestions = append(suggestions, issue)
		}
	}
	return ConsensusCheck{
		Verdict:         out.Verdict,
		Confidence:      out.Confidence,
		BlockingIssues:  blocking,
		Suggestions:     suggestions,
		ApproachAligned: out.ApproachAligned,
	}
}

// Evaluate applies the single-reviewer decision rule from §4.12: Approve
// with confidence >= minConfidence (default 0.7) is Reached; any blocking
// issue or RequestChanges is Progressing; Abstain with confidence < 0.4
// is Diverging. Anything else (e.g. a high-confidence Abstain) defaults
// to Progressing — the debate continues rather than stalling silently.
func (c ConsensusCheck) Evaluate(minConfidence float64) ConsensusOutcome {
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}

	if len(c.BlockingIssues) > 0 || c.Verdict == VerdictRequestChanges {
		return OutcomeProgressing
	}
	if c.Verdict == VerdictApprove && c.Confidence >= minConfidence {
		return OutcomeReached
	}
	if c.Verdict == VerdictAbstain && c.Confidence < lowConfidenceThreshold {
		return OutcomeDiverging
	}
	return OutcomeProgressing
}

// Guardrails evaluates time- and count-based policies that can end a
// debate short of consensus (§4.12).
type Guardrails struct {
	MaxRounds     int
	TimeoutMillis int64
}

// Evaluate inspects the session and elapsed wall-clock time and returns
// the first guardrail outcome that fires, in priority order: max-rounds,
// then timeout, then continue. Max-rounds fires when current_round >=
// max_rounds and the phase is non-terminal.
func (g Guardrails) Evaluate(s *Session, elapsed time.Duration) GuardrailOutcome {
	if !s.Phase.IsTerminal() && g.MaxRounds > 0 && s.CurrentRound >= g.MaxRounds {
		return GuardrailOutcome{Kind: GuardrailMaxRoundsExceeded, RoundsExceeded: s.CurrentRound}
	}
	if g.TimeoutMillis > 0 && elapsed.Milliseconds() >= g.TimeoutMillis {
		return GuardrailOutcome{Kind: GuardrailTimeoutExceeded, TimeoutExceededMs: elapsed.Milliseconds()}
	}
	return GuardrailOutcome{Kind: GuardrailContinue}
}
