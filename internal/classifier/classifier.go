// Package classifier implements the Error Classifier (C1): mapping a raw
// compiler/linter diagnostic into a closed-set ErrorCategory with a fixed
// complexity score and tier hint. Grounded on the teacher's
// internal/shards/matching.go technology-pattern matching idiom (ordered
// pattern tables, first-match-wins) applied to diagnostics instead of file
// paths, and on original_source/coordination/src/feedback/error_parser.rs
// for the precedence order and error-code table.
package classifier

import (
	"strconv"
	"strings"
)

// Category is the closed set of diagnostic categories from §3.
type Category string

const (
	CategoryTypeMismatch      Category = "type_mismatch"
	CategoryImportResolution  Category = "import_resolution"
	CategorySyntax            Category = "syntax"
	CategoryBorrowChecker     Category = "borrow_checker"
	CategoryTraitBound        Category = "trait_bound"
	CategoryLifetime          Category = "lifetime"
	CategoryAsync             Category = "async"
	CategoryMacro             Category = "macro"
	CategoryOther             Category = "other"
)

// TierHint names the tier a category is typically resolved at. It is advice
// consumed by the escalation/routing packages, not an authoritative
// decision.
type TierHint string

const (
	TierHintWorker  TierHint = "worker"
	TierHintCouncil TierHint = "council"
)

// categoryInfo bundles a category's fixed complexity score and tier hint.
type categoryInfo struct {
	complexity int
	tierHint   TierHint
}

var categoryTable = map[Category]categoryInfo{
	CategoryTypeMismatch:     {1, TierHintWorker},
	CategoryImportResolution: {1, TierHintWorker},
	CategorySyntax:           {1, TierHintWorker},
	CategoryBorrowChecker:    {2, TierHintWorker},
	CategoryTraitBound:       {2, TierHintWorker},
	CategoryLifetime:         {3, TierHintCouncil},
	CategoryAsync:            {3, TierHintCouncil},
	CategoryMacro:            {3, TierHintCouncil},
	CategoryOther:            {2, TierHintWorker},
}

// Complexity returns the category's fixed 1-3 complexity score.
func (c Category) Complexity() int {
	if info, ok := categoryTable[c]; ok {
		return info.complexity
	}
	return categoryTable[CategoryOther].complexity
}

// TierHint returns the category's recommended tier hint.
func (c Category) TierHint() TierHint {
	if info, ok := categoryTable[c]; ok {
		return info.tierHint
	}
	return categoryTable[CategoryOther].tierHint
}

// errorCodeTable maps known diagnostic codes straight to a category,
// bypassing keyword classification (§4.1 step 1).
var errorCodeTable = map[string]Category{
	"E0308": CategoryTypeMismatch,
	"E0382": CategoryBorrowChecker,
	"E0502": CategoryBorrowChecker,
	"E0499": CategoryBorrowChecker,
	"E0506": CategoryBorrowChecker,
	"E0106": CategoryLifetime,
	"E0621": CategoryLifetime,
	"E0623": CategoryLifetime,
	"E0599": CategoryTraitBound,
	"E0432": CategoryImportResolution,
	"E0433": CategoryImportResolution,
	"E0412": CategoryImportResolution,
}

// keywordPrecedence is the fixed classification order from §4.1 step 2:
// Lifetime -> Borrow -> Async -> Macro -> Trait -> Syntax -> Type ->
// Import -> Other. Syntax is checked before Type because the Type group's
// bare "expected" keyword also matches parser messages such as
// "unexpected token" or "expected one of". Ties within a diagnostic's text
// resolve to whichever category appears earlier in this slice.
var keywordPrecedence = []struct {
	category Category
	keywords []string
}{
	{CategoryLifetime, []string{"lifetime", "'a", "borrowed value does not live", "outlives"}},
	{CategoryBorrowChecker, []string{"borrow", "move occurred", "cannot move", "use after move", "already borrowed"}},
	{CategoryAsync, []string{"async", "await", "future", "tokio", "send bound", "not send"}},
	{CategoryMacro, []string{"macro", "proc-macro", "derive(", "macro_rules"}},
	{CategoryTraitBound, []string{"trait bound", "trait", "does not implement", "unsatisfied"}},
	{CategorySyntax, []string{"syntax error", "unexpected token", "expected one of"}},
	{CategoryTypeMismatch, []string{"type mismatch", "expected type", "mismatched types", "expected", "found"}},
	{CategoryImportResolution, []string{"unresolved import", "cannot find", "no module", "unused import", "import"}},
}

// Span marks a location within source text, used to populate labels.
type Span struct {
	File   string
	Line   int
	Column int
	Label  string
}

// RawDiagnostic is the unclassified input to Classify.
type RawDiagnostic struct {
	Message string
	Code    string
	Spans   []Span
	Suggest string
}

// ParsedError is the read-only, classified output of Classify (§3).
type ParsedError struct {
	Category     Category
	Code         string
	Message      string
	File         string
	Line         int
	Column       int
	SuggestedFix string
	Rendered     string
	Labels       []string
}

// Classify maps a single raw diagnostic to a ParsedError. It never fails:
// an unrecognized diagnostic is classified as Other.
func Classify(raw RawDiagnostic) ParsedError {
	category := classifyCategory(raw)

	pe := ParsedError{
		Category:     category,
		Code:         raw.Code,
		Message:      raw.Message,
		SuggestedFix: raw.Suggest,
		Rendered:     render(raw),
	}
	if len(raw.Spans) > 0 {
		pe.File = raw.Spans[0].File
		pe.Line = raw.Spans[0].Line
		pe.Column = raw.Spans[0].Column
		for _, s := range raw.Spans {
			if s.Label != "" {
				pe.Labels = append(pe.Labels, s.Label)
			}
		}
	}
	return pe
}

func classifyCategory(raw RawDiagnostic) Category {
	if raw.Code != "" {
		if cat, ok := errorCodeTable[strings.ToUpper(raw.Code)]; ok {
			return cat
		}
	}

	haystack := strings.ToLower(raw.Message)
	for _, s := range raw.Spans {
		haystack += " " + strings.ToLower(s.Label)
	}

	for _, group := range keywordPrecedence {
		for _, kw := range group.keywords {
			if strings.Contains(haystack, kw) {
				return group.category
			}
		}
	}
	return CategoryOther
}

func render(raw RawDiagnostic) string {
	var b strings.Builder
	if raw.Code != "" {
		b.WriteString("[")
		b.WriteString(raw.Code)
		b.WriteString("] ")
	}
	b.WriteString(raw.Message)
	for _, s := range raw.Spans {
		if s.File == "" {
			continue
		}
		b.WriteString(" (")
		b.WriteString(s.File)
		if s.Line > 0 {
			b.WriteString(":")
			b.WriteString(strconv.Itoa(s.Line))
		}
		b.WriteString(")")
	}
	return b.String()
}
