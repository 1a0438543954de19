// Package budget implements the Token Estimator & Budget (C3): pluggable
// token estimation strategies and the budget-decision sum type that drives
// memory compaction. Grounded on the teacher's internal/context token
// counting (word/char heuristics feeding context-window budgeting) and
// original_source/coordination/src/memory/tokens.rs for the threshold
// policy (80% recommended, over-100% required).
package budget

// Estimator estimates the token count of a piece of text. The default
// strategy is word-count * 1.3; an alternative is chars/4.
type Estimator interface {
	Estimate(text string) int
}

// WordCountEstimator is the default estimator: word count * 1.3, rounded
// up.
type WordCountEstimator struct{}

func (WordCountEstimator) Estimate(text string) int {
	words := countWords(text)
	tokens := float64(words) * 1.3
	return ceilFloat(tokens)
}

// CharDivisionEstimator is the alternative estimator: len(text)/4, rounded
// up.
type CharDivisionEstimator struct{}

func (CharDivisionEstimator) Estimate(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

func ceilFloat(f float64) int {
	n := int(f)
	if float64(n) < f {
		n++
	}
	return n
}

// DecisionKind is the sum type's tag.
type DecisionKind string

const (
	DecisionWithinBudget           DecisionKind = "within_budget"
	DecisionCompactionRecommended  DecisionKind = "compaction_recommended"
	DecisionCompactionRequired     DecisionKind = "compaction_required"
)

// Decision is the Budget Decision sum type from §3. Only the fields
// relevant to Kind are populated.
type Decision struct {
	Kind    DecisionKind
	Current int
	ToFree  int // populated for CompactionRecommended
	Overage int // populated for CompactionRequired
}

// Budget mirrors §3's Token Budget type.
type Budget struct {
	MaxTokens          int
	TargetTokens       int
	MinRetainedEntries int
	SystemReserve      int
}

// Valid reports target < max && system_reserve < max.
func (b Budget) Valid() bool {
	return b.TargetTokens < b.MaxTokens && b.SystemReserve < b.MaxTokens
}

// Available returns max - system_reserve.
func (b Budget) Available() int {
	a := b.MaxTokens - b.SystemReserve
	if a < 0 {
		return 0
	}
	return a
}

// recommendedThreshold is 80% of available, per §3's threshold policy.
const recommendedThreshold = 0.80

// Evaluate returns the Budget Decision for a current token total:
// recommended at >= 80% of available, required when current > available.
func (b Budget) Evaluate(current int) Decision {
	available := b.Available()

	if current > available {
		return Decision{Kind: DecisionCompactionRequired, Current: current, Overage: current - available}
	}
	if float64(current) >= recommendedThreshold*float64(available) {
		toFree := current - b.TargetTokens
		if toFree < 0 {
			toFree = 0
		}
		return Decision{Kind: DecisionCompactionRecommended, Current: current, ToFree: toFree}
	}
	return Decision{Kind: DecisionWithinBudget, Current: current}
}

// EntriesToCompact returns the number of oldest entries (from entryTokens,
// ordered oldest-first) that, when removed, would reduce total to <=
// target, while leaving at least minRetained entries in the tail.
func EntriesToCompact(entryTokens []int, total int, target int, minRetained int) int {
	maxRemovable := len(entryTokens) - minRetained
	if maxRemovable <= 0 {
		return 0
	}

	remaining := total
	n := 0
	for n < maxRemovable && remaining > target {
		remaining -= entryTokens[n]
		n++
	}
	return n
}
