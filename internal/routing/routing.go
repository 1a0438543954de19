// Package routing implements the Pre-Routing Classifier (C10): scoring a
// task's complexity and risk before it enters a tier, to pick an initial
// swarm tier recommendation. Grounded on the teacher's
// internal/shards/matching.go keyword/pattern scoring idiom (weighted
// hint tables, first-pass scoring then threshold-based classification),
// adapted from specialist matching to complexity/risk scoring.
package routing

import (
	"fmt"
	"sort"
	"strings"

	"codenerd/internal/classifier"
	"codenerd/internal/escalation"
)

// Complexity is the 1-5 numeric score computed by Score (§4.16).
type Complexity int

// TaskComplexity is the closed ordinal band from §3.
type TaskComplexity string

const (
	TaskSimple  TaskComplexity = "simple"
	TaskMedium  TaskComplexity = "medium"
	TaskComplex TaskComplexity = "complex"
	TaskUnknown TaskComplexity = "unknown"
)

// Band maps the numeric complexity score onto the closed TaskComplexity
// ordinal set.
func (c Complexity) Band() TaskComplexity {
	switch {
	case c <= 0:
		return TaskUnknown
	case c == 1:
		return TaskSimple
	case c <= 3:
		return TaskMedium
	default:
		return TaskComplex
	}
}

// RiskFactorKind is the closed set of detectable risk factors (§4.16).
type RiskFactorKind string

const (
	RiskBreakingAPI         RiskFactorKind = "breaking_api"
	RiskUnsafe              RiskFactorKind = "unsafe"
	RiskSecuritySensitive   RiskFactorKind = "security_sensitive"
	RiskDataLoss            RiskFactorKind = "data_loss"
	RiskConcurrencyHazard   RiskFactorKind = "concurrency_hazard"
	RiskExternalDependency  RiskFactorKind = "external_dependency"
	RiskLargeScope          RiskFactorKind = "large_scope"
	RiskRepeatedFailures    RiskFactorKind = "repeated_failures"
)

// RiskFactor is one detected risk with a 1-3 severity.
type RiskFactor struct {
	Kind     RiskFactorKind
	Severity int
	Evidence string
}

// RiskLevel is the closed ordinal set from §3.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskCritical: 3}

// AtLeast reports whether r is ordinally >= other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other]
}

// Tier is the routing recommendation's target (Worker does ordinary
// iteration; Council invokes the debate/escalation machinery up front).
type Tier string

const (
	TierWorker  Tier = "worker"
	TierCouncil Tier = "council"
)

// keywordRiskHints maps a lowercase keyword to the risk factor it signals
// and that factor's severity, grounded on the teacher's ContentHints
// scoring table shape.
var keywordRiskHints = []struct {
	keyword  string
	kind     RiskFactorKind
	severity int
}{
	{"breaking change", RiskBreakingAPI, 2},
	{"public api", RiskBreakingAPI, 2},
	{"unsafe.", RiskUnsafe, 3},
	{"unsafe ", RiskUnsafe, 3},
	{"auth", RiskSecuritySensitive, 2},
	{"crypto", RiskSecuritySensitive, 3},
	{"secret", RiskSecuritySensitive, 3},
	{"password", RiskSecuritySensitive, 3},
	{"token", RiskSecuritySensitive, 2},
	{"delete", RiskDataLoss, 2},
	{"drop table", RiskDataLoss, 3},
	{"migration", RiskDataLoss, 2},
	{"truncate", RiskDataLoss, 3},
	{"goroutine", RiskConcurrencyHazard, 2},
	{"mutex", RiskConcurrencyHazard, 2},
	{"race", RiskConcurrencyHazard, 3},
	{"deadlock", RiskConcurrencyHazard, 3},
	{"third-party", RiskExternalDependency, 1},
	{"external service", RiskExternalDependency, 2},
	{"vendor", RiskExternalDependency, 1},
}

// complexityKeywords contribute one point each toward the complexity
// score when present in the objective text (case-insensitive).
var complexityKeywords = []string{
	"architecture", "redesign", "migrate", "rewrite", "cross-cutting",
}

// Input bundles everything the classifier is given (§4.16).
type Input struct {
	ObjectiveText  string
	TouchedFiles   []string
	Constraints    []string
	IterationCount int
	FailureCategories []classifier.Category
}

// Recommendation is the classifier's output.
type Recommendation struct {
	Complexity Complexity
	Band       TaskComplexity
	RiskFactors []RiskFactor
	RiskLevel   RiskLevel
	Tier        Tier
	Rationale   string
}

// Score computes the full Pre-Routing recommendation for an input.
func Score(in Input) Recommendation {
	complexity := scoreComplexity(in)
	factors := detectRiskFactors(in)
	risk := aggregateRisk(factors)

	tier := TierWorker
	var reasons []string
	if risk.AtLeast(RiskHigh) {
		tier = TierCouncil
		reasons = append(reasons, fmt.Sprintf("risk=%s >= high", risk))
	}
	if complexity >= 4 {
		tier = TierCouncil
		reasons = append(reasons, fmt.Sprintf("complexity=%d >= 4", complexity))
	}
	if complexity >= 3 && risk.AtLeast(RiskMedium) {
		tier = TierCouncil
		reasons = append(reasons, fmt.Sprintf("complexity=%d >= 3 and risk=%s >= medium", complexity, risk))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("complexity=%d, risk=%s below council thresholds", complexity, risk))
	}

	return Recommendation{
		Complexity:  complexity,
		Band:        complexity.Band(),
		RiskFactors: factors,
		RiskLevel:   risk,
		Tier:        tier,
		Rationale:   strings.Join(reasons, "; "),
	}
}

// scoreComplexity computes the 1-5 score from file-count thresholds (3
// and 8), presence of lifetime/async/trait failures, iteration > 2, and
// keyword matches.
func scoreComplexity(in Input) Complexity {
	score := 1

	switch {
	case len(in.TouchedFiles) > 8:
		score += 2
	case len(in.TouchedFiles) > 3:
		score += 1
	}

	for _, cat := range in.FailureCategories {
		if cat == classifier.CategoryLifetime || cat == classifier.CategoryAsync || cat == classifier.CategoryTraitBound {
			score++
			break
		}
	}

	if in.IterationCount > 2 {
		score++
	}

	lower := strings.ToLower(in.ObjectiveText)
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			score++
			break
		}
	}

	if score > 5 {
		score = 5
	}
	return Complexity(score)
}

// detectRiskFactors scans the objective text and constraints for keyword
// hints, plus structural signals (large scope, repeated failures).
func detectRiskFactors(in Input) []RiskFactor {
	lower := strings.ToLower(in.ObjectiveText + " " + strings.Join(in.Constraints, " "))
	seen := make(map[RiskFactorKind]*RiskFactor)

	for _, hint := range keywordRiskHints {
		if !strings.Contains(lower, hint.keyword) {
			continue
		}
		if existing, ok := seen[hint.kind]; ok {
			if hint.severity > existing.Severity {
				existing.Severity = hint.severity
			}
			continue
		}
		seen[hint.kind] = &RiskFactor{Kind: hint.kind, Severity: hint.severity, Evidence: hint.keyword}
	}

	if len(in.TouchedFiles) > 8 {
		seen[RiskLargeScope] = &RiskFactor{Kind: RiskLargeScope, Severity: 2, Evidence: fmt.Sprintf("%d files touched", len(in.TouchedFiles))}
	}

	if repeatCount(in.FailureCategories) >= 2 {
		seen[RiskRepeatedFailures] = &RiskFactor{Kind: RiskRepeatedFailures, Severity: 2, Evidence: "repeated failure categories"}
	}

	out := make([]RiskFactor, 0, len(seen))
	for _, f := range seen {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func repeatCount(cats []classifier.Category) int {
	counts := make(map[classifier.Category]int)
	max := 0
	for _, c := range cats {
		counts[c]++
		if counts[c] > max {
			max = counts[c]
		}
	}
	return max
}

// aggregateRisk derives an ordinal RiskLevel from the detected factors,
// then applies the pinned High->Critical promotion rule: a data-loss or
// security-sensitive factor at severity >= 3, or two or more
// High-severity (severity==3, i.e. this package's "High" per-factor
// band) factors simultaneously.
func aggregateRisk(factors []RiskFactor) RiskLevel {
	if len(factors) == 0 {
		return RiskLow
	}

	maxSeverity := 0
	highSeverityCount := 0
	promotesToCritical := false
	for _, f := range factors {
		if f.Severity > maxSeverity {
			maxSeverity = f.Severity
		}
		if f.Severity >= 3 {
			highSeverityCount++
			if f.Kind == RiskDataLoss || f.Kind == RiskSecuritySensitive {
				promotesToCritical = true
			}
		}
	}

	base := RiskLow
	switch {
	case maxSeverity >= 3:
		base = RiskHigh
	case maxSeverity == 2:
		base = RiskMedium
	default:
		base = RiskLow
	}

	if base == RiskHigh && (promotesToCritical || highSeverityCount >= 2) {
		return RiskCritical
	}
	return base
}

// SwarmTier converts the recommendation's Tier into an escalation.Tier
// starting point for a new escalation.State: Council tasks start one
// rung higher (at the integrator tier) than Worker tasks (implementer).
func (r Recommendation) SwarmTier() escalation.Tier {
	if r.Tier == TierCouncil {
		return escalation.TierIntegrator
	}
	return escalation.TierImplementer
}
