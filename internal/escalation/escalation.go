// Package escalation implements the Swarm Tier & Budget (part of C9) and
// Escalation State (C9): per-task iteration tracking, sliding-window
// repeat detection, and tier escalation transitions. Grounded on
// original_source/coordination/src/escalation/state.rs for the state
// shape and original_source/coordination/src/escalation/auto_ticket.rs
// for the recurrent-failure-signature / ticket-suggestion supplement
// (§9 SUPPLEMENTED FEATURES).
package escalation

import (
	"time"

	"codenerd/internal/classifier"
)

// Tier is the ordered enum of swarm model tiers.
type Tier string

const (
	TierImplementer Tier = "implementer"
	TierIntegrator  Tier = "integrator"
	TierAdversary   Tier = "adversary"
	TierCloud       Tier = "cloud"
)

// tierOrder gives the fixed escalation order.
var tierOrder = []Tier{TierImplementer, TierIntegrator, TierAdversary, TierCloud}

// Next returns the next tier in escalation order, or ("", false) if t is
// already the top tier.
func (t Tier) Next() (Tier, bool) {
	for i, cur := range tierOrder {
		if cur == t && i+1 < len(tierOrder) {
			return tierOrder[i+1], true
		}
	}
	return "", false
}

// IsTopTier reports whether t is the highest tier.
func (t Tier) IsTopTier() bool {
	return t == tierOrder[len(tierOrder)-1]
}

// TierBudget is a tier's default budget (§4.9).
type TierBudget struct {
	MaxIterations    int
	MaxConsultations int
}

// Remaining returns max(0, limit - used).
func (b TierBudget) Remaining(used int) int {
	r := b.MaxIterations - used
	if r < 0 {
		return 0
	}
	return r
}

const slidingWindowSize = 6

// IterationRecord is a single iteration's outcome (§3).
type IterationRecord struct {
	Iteration       int
	Tier            Tier
	Timestamp       time.Time
	ErrorCategories []classifier.Category
	ErrorCount      int
	AllGreen        bool
	ProgressMade    bool
}

// EscalationTransition records one tier change (§3/§4.10).
type EscalationTransition struct {
	ToTier    Tier
	Reason    string
	Timestamp time.Time
}

// Reason strings for the escalation policy (§4.10).
const (
	ReasonBudgetExhausted    = "BudgetExhausted"
	ReasonRepeatedCategory   = "RepeatedErrorCategory"
	ReasonTotalFailures      = "TotalFailuresExceeded"
	ReasonMultiFileComplexity = "MultiFileComplexity"
)

// State is the per-task Escalation State (§3/§4.10).
type State struct {
	TaskID               string
	CurrentTier          Tier
	TotalIterations      int
	TierIterations        map[Tier]int
	TierConsultations     map[Tier]int
	TierBudgets           map[Tier]TierBudget
	IterationHistory      []IterationRecord
	EscalationHistory     []EscalationTransition
	RecentErrorCategories []classifier.Category // sliding window, size 6
	Resolved              bool
	Stuck                 bool
	LastActivity          time.Time
}

// New creates an Escalation State starting at the implementer tier with
// the given per-tier budgets.
func New(taskID string, budgets map[Tier]TierBudget) *State {
	return &State{
		TaskID:            taskID,
		CurrentTier:       TierImplementer,
		TierIterations:    make(map[Tier]int),
		TierConsultations: make(map[Tier]int),
		TierBudgets:       budgets,
		LastActivity:      time.Now(),
	}
}

// RecordIteration increments totals, computes progress_made, pushes onto
// the sliding window, and marks resolved when all_green.
func (s *State) RecordIteration(categories []classifier.Category, errorCount int, allGreen bool) IterationRecord {
	s.TotalIterations++
	s.TierIterations[s.CurrentTier]++
	s.LastActivity = time.Now()

	progress := s.computeProgress(errorCount, categories)

	rec := IterationRecord{
		Iteration:       s.TotalIterations,
		Tier:            s.CurrentTier,
		Timestamp:       s.LastActivity,
		ErrorCategories: categories,
		ErrorCount:      errorCount,
		AllGreen:        allGreen,
		ProgressMade:    progress,
	}
	s.IterationHistory = append(s.IterationHistory, rec)

	s.pushSlidingWindow(categories)

	if allGreen {
		s.Resolved = true
	}
	return rec
}

// computeProgress is true on the first iteration, or when either the
// error count strictly decreased or the category set changed relative to
// the previous iteration.
func (s *State) computeProgress(errorCount int, categories []classifier.Category) bool {
	if len(s.IterationHistory) == 0 {
		return true
	}
	prev := s.IterationHistory[len(s.IterationHistory)-1]
	if errorCount < prev.ErrorCount {
		return true
	}
	return !sameCategorySet(prev.ErrorCategories, categories)
}

func sameCategorySet(a, b []classifier.Category) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[classifier.Category]int, len(a))
	for _, c := range a {
		seen[c]++
	}
	for _, c := range b {
		seen[c]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

func (s *State) pushSlidingWindow(categories []classifier.Category) {
	s.RecentErrorCategories = append(s.RecentErrorCategories, categories...)
	if len(s.RecentErrorCategories) > slidingWindowSize {
		s.RecentErrorCategories = s.RecentErrorCategories[len(s.RecentErrorCategories)-slidingWindowSize:]
	}
}

// RecordEscalation pushes a transition and updates the current tier.
func (s *State) RecordEscalation(toTier Tier, reason string) {
	s.EscalationHistory = append(s.EscalationHistory, EscalationTransition{
		ToTier: toTier, Reason: reason, Timestamp: time.Now(),
	})
	s.CurrentTier = toTier
}

// ErrorCategoryRepeatCount counts consecutive trailing iterations (from
// iteration_history, most-recent first) whose error categories contain
// cat, stopping at the first all-green iteration or the first iteration
// that does not contain cat.
func (s *State) ErrorCategoryRepeatCount(cat classifier.Category) int {
	count := 0
	for i := len(s.IterationHistory) - 1; i >= 0; i-- {
		rec := s.IterationHistory[i]
		if rec.AllGreen {
			break
		}
		if !containsCategory(rec.ErrorCategories, cat) {
			break
		}
		count++
	}
	return count
}

func containsCategory(cats []classifier.Category, target classifier.Category) bool {
	for _, c := range cats {
		if c == target {
			return true
		}
	}
	return false
}

// MostRepeatedCategory returns the category with the highest trailing
// repeat count, provided that count is >= 2. If none qualifies, ok is
// false.
func (s *State) MostRepeatedCategory() (cat classifier.Category, count int, ok bool) {
	seen := make(map[classifier.Category]bool)
	best := 0
	var bestCat classifier.Category

	for _, rec := range s.IterationHistory {
		for _, c := range rec.ErrorCategories {
			if seen[c] {
				continue
			}
			seen[c] = true
			n := s.ErrorCategoryRepeatCount(c)
			if n > best {
				best = n
				bestCat = c
			}
		}
	}

	if best >= 2 {
		return bestCat, best, true
	}
	return "", 0, false
}

// RemainingBudget returns max(0, tier_budgets[tier].max_iterations -
// tier_iterations[tier]).
func (s *State) RemainingBudget(tier Tier) int {
	budget, ok := s.TierBudgets[tier]
	if !ok {
		return 0
	}
	return budget.Remaining(s.TierIterations[tier])
}

// RecordConsultation increments the consultation count for a tier.
func (s *State) RecordConsultation(tier Tier) {
	s.TierConsultations[tier]++
}
