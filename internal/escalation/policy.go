package escalation

import "fmt"

// totalFailureThreshold is the fixed total-iteration ceiling beyond which
// the policy escalates regardless of category, per §4.10.
const totalFailureThreshold = 12

// multiFileComplexityThreshold is the files-touched count beyond which a
// diff is considered complex enough to warrant escalation, per §4.10.
const multiFileComplexityThreshold = 8

// Decision is the outcome of evaluating the escalation policy against the
// current state after an iteration.
type Decision struct {
	ShouldEscalate bool
	ToTier         Tier
	Reason         string
}

// Evaluate applies the §4.10 escalation policy in priority order:
//  1. current tier's budget exhausted -> escalate with BudgetExhausted
//  2. a single error category repeats >= 2 times in a row -> escalate with
//     RepeatedErrorCategory
//  3. total iterations exceed the fixed threshold -> TotalFailuresExceeded
//  4. filesTouched exceeds the fixed threshold -> MultiFileComplexity
//
// If the current tier is already the top tier and none of the above
// clears the failure, the state is marked stuck instead of escalating
// further.
func Evaluate(s *State, filesTouched int) Decision {
	if s.RemainingBudget(s.CurrentTier) <= 0 {
		return escalateOrStick(s, ReasonBudgetExhausted)
	}

	if cat, count, ok := s.MostRepeatedCategory(); ok {
		d := escalateOrStick(s, fmt.Sprintf("%s{%s,%d}", ReasonRepeatedCategory, cat, count))
		if d.ShouldEscalate || s.Stuck {
			return d
		}
	}

	if s.TotalIterations > totalFailureThreshold {
		return escalateOrStick(s, ReasonTotalFailures)
	}

	if filesTouched > multiFileComplexityThreshold {
		return escalateOrStick(s, ReasonMultiFileComplexity)
	}

	return Decision{ShouldEscalate: false}
}

// escalateOrStick escalates to the next tier with reason, or — if the
// current tier is already the top tier — marks the state stuck instead.
func escalateOrStick(s *State, reason string) Decision {
	if s.CurrentTier.IsTopTier() {
		s.Stuck = true
		return Decision{ShouldEscalate: false, Reason: reason}
	}
	next, _ := s.CurrentTier.Next()
	return Decision{ShouldEscalate: true, ToTier: next, Reason: reason}
}
