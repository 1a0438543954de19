package escalation

import (
	"fmt"

	"codenerd/internal/classifier"
)

// TicketPriority is the closed priority set for a suggested human-facing
// ticket, grounded on original_source/coordination/src/escalation/
// auto_ticket.rs's TicketPriority (with to_beads_priority()).
type TicketPriority string

const (
	PriorityHigh   TicketPriority = "high"
	PriorityMedium TicketPriority = "medium"
	PriorityLow    TicketPriority = "low"
)

// ToBeadsPriority maps the priority to the 0-3 scale used by the issue
// tracker integration (higher number is more urgent), matching the
// original Rust crate's to_beads_priority mapping.
func (p TicketPriority) ToBeadsPriority() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// FailureSignature identifies a recurring failure pattern: a category
// repeating at a given tier some number of times.
type FailureSignature struct {
	Category        classifier.Category
	Tier            Tier
	RecurrenceCount int
}

// TicketSuggestion is a ready-to-file ticket describing a stuck or
// recurring failure, suggested for human triage rather than filed
// automatically.
type TicketSuggestion struct {
	Title         string
	Description   string
	Priority      TicketPriority
	Signature     FailureSignature
	SourceTaskID  string
}

// RecurrentFailureDetector walks an EscalationState's iteration history
// looking for categories that occur at least RecurrenceThreshold times
// since the most recent all-green iteration, grounded on the Rust
// RecurrentFailureDetector::detect.
type RecurrentFailureDetector struct {
	RecurrenceThreshold int
}

// NewRecurrentFailureDetector builds a detector with the given threshold.
func NewRecurrentFailureDetector(threshold int) RecurrentFailureDetector {
	return RecurrentFailureDetector{RecurrenceThreshold: threshold}
}

// Detect extracts failure signatures from the state's trailing iteration
// history (one per category whose trailing streak meets the threshold)
// and builds a ticket suggestion for each.
func (d RecurrentFailureDetector) Detect(s *State) []TicketSuggestion {
	signatures := d.extractSignatures(s)
	suggestions := make([]TicketSuggestion, 0, len(signatures))
	for _, sig := range signatures {
		suggestions = append(suggestions, d.buildSuggestion(s, sig))
	}
	return suggestions
}

// extractSignatures walks iteration_history backwards, maintaining a
// per-category streak counter reset whenever an all-green record is
// encountered, and emits a signature for every category whose trailing
// streak is >= the detector's threshold.
func (d RecurrentFailureDetector) extractSignatures(s *State) []FailureSignature {
	streaks := make(map[classifier.Category]int)
	tierOf := make(map[classifier.Category]Tier)

	for i := len(s.IterationHistory) - 1; i >= 0; i-- {
		rec := s.IterationHistory[i]
		if rec.AllGreen {
			break
		}
		for _, cat := range rec.ErrorCategories {
			if _, seen := tierOf[cat]; !seen {
				tierOf[cat] = rec.Tier
			}
			streaks[cat]++
		}
	}

	var out []FailureSignature
	for cat, count := range streaks {
		if count >= d.RecurrenceThreshold {
			out = append(out, FailureSignature{
				Category:        cat,
				Tier:            tierOf[cat],
				RecurrenceCount: count,
			})
		}
	}
	return out
}

// buildSuggestion assigns priority High if recurrence_count is at least
// twice the threshold, or the state is stuck, or the signature's tier is
// the top tier; otherwise Medium. Grounded on the Rust build_suggestion.
func (d RecurrentFailureDetector) buildSuggestion(s *State, sig FailureSignature) TicketSuggestion {
	priority := PriorityMedium
	if sig.RecurrenceCount >= d.RecurrenceThreshold*2 || s.Stuck || sig.Tier.IsTopTier() {
		priority = PriorityHigh
	}

	return TicketSuggestion{
		Title: fmt.Sprintf("Recurring %s failures on task %s", sig.Category, s.TaskID),
		Description: fmt.Sprintf(
			"Category %s has failed %d consecutive iterations at tier %s. Automated resolution has stalled; human review recommended.",
			sig.Category, sig.RecurrenceCount, sig.Tier,
		),
		Priority:     priority,
		Signature:    sig,
		SourceTaskID: s.TaskID,
	}
}
