package debate

import (
	"fmt"
	"time"

	"codenerd/internal/coreerr"
)

// Transition validates and applies a phase change. Invalid transitions
// are rejected with a structured KindTransitionError and leave the
// session's phase unchanged. Transitioning into CoderTurn increments
// current_round, per §4.11.
func (s *Session) Transition(to Phase, reason string) *coreerr.Error {
	from := s.Phase

	if from.IsTerminal() {
		return coreerr.New(coreerr.KindTransitionError, "cannot transition out of a terminal phase", map[string]any{
			"from": from, "to": to, "reason": reason,
		})
	}

	allowed, ok := validTransitions[from]
	if !ok || !allowed[to] {
		return coreerr.New(coreerr.KindTransitionError, fmt.Sprintf("invalid transition %s -> %s", from, to), map[string]any{
			"from": from, "to": to, "reason": reason,
		})
	}

	s.Phase = to
	s.Transitions = append(s.Transitions, Transition{From: from, To: to, Reason: reason, Timestamp: time.Now()})

	if to == PhaseCoderTurn {
		s.CurrentRound++
	}

	return nil
}

// LastTransitionDestination returns the destination of the most recent
// recorded transition, or "" if none have occurred.
func (s *Session) LastTransitionDestination() Phase {
	if len(s.Transitions) == 0 {
		return ""
	}
	return s.Transitions[len(s.Transitions)-1].To
}
