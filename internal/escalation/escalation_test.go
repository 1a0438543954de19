package escalation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codenerd/internal/classifier"
)

func defaultBudgets() map[Tier]TierBudget {
	return map[Tier]TierBudget{
		TierImplementer: {MaxIterations: 5, MaxConsultations: 2},
		TierIntegrator:  {MaxIterations: 4, MaxConsultations: 2},
		TierAdversary:   {MaxIterations: 3, MaxConsultations: 1},
		TierCloud:       {MaxIterations: 2, MaxConsultations: 1},
	}
}

// TestMostRepeatedCategoryScenarioS3 implements scenario S3: record
// iterations with error_categories=[Lifetime] three times. Expected:
// most_repeated_category == (Lifetime, 3); the escalation decision is to
// escalate with reason RepeatedErrorCategory{Lifetime, 3}.
func TestMostRepeatedCategoryScenarioS3(t *testing.T) {
	s := New("task-1", defaultBudgets())

	for i := 0; i < 3; i++ {
		s.RecordIteration([]classifier.Category{classifier.CategoryLifetime}, 1, false)
	}

	cat, count, ok := s.MostRepeatedCategory()
	require.True(t, ok)
	require.Equal(t, classifier.CategoryLifetime, cat)
	require.Equal(t, 3, count)

	decision := Evaluate(s, 1)
	require.True(t, decision.ShouldEscalate)
	require.Equal(t, TierIntegrator, decision.ToTier)
	require.Contains(t, decision.Reason, "RepeatedErrorCategory")
	require.Contains(t, decision.Reason, "lifetime")
	require.Contains(t, decision.Reason, "3")
}

func TestRepeatCountResetsOnAllGreen(t *testing.T) {
	s := New("task-2", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 1, false)
	s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 1, false)
	s.RecordIteration(nil, 0, true)
	s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 1, false)

	count := s.ErrorCategoryRepeatCount(classifier.CategorySyntax)
	require.Equal(t, 1, count)
}

func TestProgressMadeTrueOnFirstIteration(t *testing.T) {
	s := New("task-3", defaultBudgets())
	rec := s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 3, false)
	require.True(t, rec.ProgressMade)
}

func TestProgressMadeTrueWhenErrorCountDecreases(t *testing.T) {
	s := New("task-4", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 5, false)
	rec := s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 3, false)
	require.True(t, rec.ProgressMade)
}

func TestProgressMadeFalseWhenUnchanged(t *testing.T) {
	s := New("task-5", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 3, false)
	rec := s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 3, false)
	require.False(t, rec.ProgressMade)
}

func TestProgressMadeTrueWhenCategorySetChanges(t *testing.T) {
	s := New("task-6", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategorySyntax}, 3, false)
	rec := s.RecordIteration([]classifier.Category{classifier.CategoryAsync}, 3, false)
	require.True(t, rec.ProgressMade)
}

func TestSlidingWindowCapsAtSix(t *testing.T) {
	s := New("task-7", defaultBudgets())
	for i := 0; i < 4; i++ {
		s.RecordIteration([]classifier.Category{classifier.CategorySyntax, classifier.CategoryAsync}, 2, false)
	}
	require.Len(t, s.RecentErrorCategories, 6)
}

func TestBudgetExhaustedEscalates(t *testing.T) {
	budgets := map[Tier]TierBudget{
		TierImplementer: {MaxIterations: 1, MaxConsultations: 1},
		TierIntegrator:  {MaxIterations: 2, MaxConsultations: 1},
		TierAdversary:   {MaxIterations: 2, MaxConsultations: 1},
		TierCloud:       {MaxIterations: 2, MaxConsultations: 1},
	}
	s := New("task-8", budgets)
	s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 1, false)

	decision := Evaluate(s, 1)
	require.True(t, decision.ShouldEscalate)
	require.Equal(t, ReasonBudgetExhausted, decision.Reason)
	require.Equal(t, TierIntegrator, decision.ToTier)
}

func TestTopTierStuckInsteadOfEscalating(t *testing.T) {
	budgets := map[Tier]TierBudget{
		TierCloud: {MaxIterations: 1, MaxConsultations: 1},
	}
	s := New("task-9", budgets)
	s.CurrentTier = TierCloud
	s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 1, false)

	decision := Evaluate(s, 1)
	require.False(t, decision.ShouldEscalate)
	require.True(t, s.Stuck)
}

func TestMultiFileComplexityEscalates(t *testing.T) {
	s := New("task-10", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 1, false)

	decision := Evaluate(s, 9)
	require.True(t, decision.ShouldEscalate)
	require.Equal(t, ReasonMultiFileComplexity, decision.Reason)
}

func TestNoEscalationWhenHealthy(t *testing.T) {
	s := New("task-11", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 1, false)

	decision := Evaluate(s, 1)
	require.False(t, decision.ShouldEscalate)
}

func TestRecordEscalationUpdatesCurrentTier(t *testing.T) {
	s := New("task-12", defaultBudgets())
	s.RecordEscalation(TierAdversary, ReasonBudgetExhausted)

	require.Equal(t, TierAdversary, s.CurrentTier)
	require.Len(t, s.EscalationHistory, 1)
	require.Equal(t, ReasonBudgetExhausted, s.EscalationHistory[0].Reason)
}

func TestRecordIterationMarksResolvedOnAllGreen(t *testing.T) {
	s := New("task-13", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 2, false)
	s.RecordIteration(nil, 0, true)

	require.True(t, s.Resolved)
}

func TestRecurrentFailureDetectorDetectsStreak(t *testing.T) {
	s := New("task-14", defaultBudgets())
	for i := 0; i < 3; i++ {
		s.RecordIteration([]classifier.Category{classifier.CategoryLifetime}, 1, false)
	}

	detector := NewRecurrentFailureDetector(3)
	suggestions := detector.Detect(s)

	require.Len(t, suggestions, 1)
	require.Equal(t, classifier.CategoryLifetime, suggestions[0].Signature.Category)
	require.Equal(t, 3, suggestions[0].Signature.RecurrenceCount)
	require.Equal(t, PriorityHigh, suggestions[0].Priority)
}

func TestRecurrentFailureDetectorBelowThresholdYieldsNoSuggestion(t *testing.T) {
	s := New("task-15", defaultBudgets())
	s.RecordIteration([]classifier.Category{classifier.CategoryLifetime}, 1, false)

	detector := NewRecurrentFailureDetector(3)
	suggestions := detector.Detect(s)

	require.Empty(t, suggestions)
}

func TestRecurrentFailureDetectorMediumPriorityBelowDoubleThreshold(t *testing.T) {
	s := New("task-16", defaultBudgets())
	for i := 0; i < 3; i++ {
		s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 1, false)
	}

	detector := NewRecurrentFailureDetector(3)
	suggestions := detector.Detect(s)

	require.Len(t, suggestions, 1)
	require.Equal(t, PriorityMedium, suggestions[0].Priority)
}

func TestRecurrentFailureDetectorHighPriorityWhenStuck(t *testing.T) {
	s := New("task-17", defaultBudgets())
	s.Stuck = true
	for i := 0; i < 3; i++ {
		s.RecordIteration([]classifier.Category{classifier.CategoryTypeMismatch}, 1, false)
	}

	detector := NewRecurrentFailureDetector(3)
	suggestions := detector.Detect(s)

	require.Len(t, suggestions, 1)
	require.Equal(t, PriorityHigh, suggestions[0].Priority)
}

func TestToBeadsPriorityOrdering(t *testing.T) {
	require.Greater(t, PriorityHigh.ToBeadsPriority(), PriorityMedium.ToBeadsPriority())
	require.Greater(t, PriorityMedium.ToBeadsPriority(), PriorityLow.ToBeadsPriority())
}

func TestTierNextAndIsTopTier(t *testing.T) {
	n, ok := TierImplementer.Next()
	require.True(t, ok)
	require.Equal(t, TierIntegrator, n)

	_, ok = TierCloud.Next()
	require.False(t, ok)
	require.True(t, TierCloud.IsTopTier())
}

func TestNewTaskIDIsUnique(t *testing.T) {
	a := NewTaskID()
	b := NewTaskID()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
