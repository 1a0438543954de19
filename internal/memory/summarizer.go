package memory

import (
	"context"
	"strings"

	"codenerd/internal/coreerr"
)

// defaultRequiredSections is the default required-sections set (§4.5).
var defaultRequiredSections = []string{"Key Decisions", "Current State", "Open Issues"}

// SummaryRequest is the input to a Summarizer call (§3).
type SummaryRequest struct {
	Entries          []Entry
	MaxOutputTokens  int
	RequiredSections []string
	SessionContext   string
}

// NewSummaryRequest builds a request with the default required sections
// if none are given.
func NewSummaryRequest(entries []Entry, maxOutputTokens int, sessionContext string) SummaryRequest {
	return SummaryRequest{
		Entries:          entries,
		MaxOutputTokens:  maxOutputTokens,
		RequiredSections: append([]string(nil), defaultRequiredSections...),
		SessionContext:   sessionContext,
	}
}

// SummaryResponse is the output of a Summarizer call (§3).
type SummaryResponse struct {
	Text                     string
	SummaryTokens            int
	SectionsIncluded         []string
	EntriesSummarized        int
	InputTokensCompressed    int
	CompressionRatio         float64
}

// Summarizer is the abstract summarization service (§4.5/§9 — a small,
// total contract with a deterministic mock for property tests).
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (SummaryResponse, error)
}

// Validate checks a SummaryResponse against the SummaryRequest it answers.
// Rejects: summary over budget, missing required sections, or empty
// summary; each failure maps to a distinct *coreerr.Error kind.
func Validate(req SummaryRequest, resp SummaryResponse) *coreerr.Error {
	if strings.TrimSpace(resp.Text) == "" {
		return coreerr.New(coreerr.KindIntegrityViolation, "summary is empty", nil)
	}
	if resp.SummaryTokens > req.MaxOutputTokens {
		return coreerr.New(coreerr.KindSummaryTooLarge, "summary exceeds max output tokens", map[string]any{
			"summary_tokens":    resp.SummaryTokens,
			"max_output_tokens": req.MaxOutputTokens,
		})
	}
	if missing := missingSections(req.RequiredSections, resp.SectionsIncluded); len(missing) > 0 {
		return coreerr.New(coreerr.KindIntegrityViolation, "summary missing required sections", map[string]any{
			"missing": missing,
		})
	}
	return nil
}

func missingSections(required, included []string) []string {
	have := make(map[string]bool, len(included))
	for _, s := range included {
		have[s] = true
	}
	var missing []string
	for _, r := range required {
		if !have[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// DeterministicMockSummarizer is the §9-mandated deterministic mock
// implementation, enabling property tests without an LLM. It renders a
// fixed-shape summary covering every required section from the entries'
// content, truncated to fit the requested budget.
type DeterministicMockSummarizer struct {
	Estimator interface{ Estimate(string) int }
}

func NewDeterministicMockSummarizer(estimator interface{ Estimate(string) int }) *DeterministicMockSummarizer {
	return &DeterministicMockSummarizer{Estimator: estimator}
}

func (m *DeterministicMockSummarizer) Summarize(_ context.Context, req SummaryRequest) (SummaryResponse, error) {
	sections := req.RequiredSections
	if len(sections) == 0 {
		sections = defaultRequiredSections
	}

	var b strings.Builder
	for _, section := range sections {
		b.WriteString(section)
		b.WriteString(": ")
		b.WriteString(summarizeEntriesForSection(req.Entries, section))
		b.WriteString("\n")
	}
	text := strings.TrimSpace(b.String())

	inputTokens := 0
	for _, e := range req.Entries {
		inputTokens += e.EstimatedTokens
	}

	summaryTokens := m.Estimator.Estimate(text)
	if req.MaxOutputTokens > 0 && summaryTokens > req.MaxOutputTokens {
		text = truncateToFit(text, req.MaxOutputTokens, m.Estimator)
		summaryTokens = m.Estimator.Estimate(text)
	}

	ratio := 0.0
	if summaryTokens > 0 {
		ratio = float64(inputTokens) / float64(summaryTokens)
	}

	return SummaryResponse{
		Text:                  text,
		SummaryTokens:         summaryTokens,
		SectionsIncluded:      sections,
		EntriesSummarized:     len(req.Entries),
		InputTokensCompressed: inputTokens,
		CompressionRatio:      ratio,
	}, nil
}

func summarizeEntriesForSection(entries []Entry, section string) string {
	if len(entries) == 0 {
		return "(none)"
	}
	var parts []string
	for i, e := range entries {
		if i >= 3 {
			break
		}
		content := e.Content
		if len(content) > 40 {
			content = content[:40]
		}
		parts = append(parts, content)
	}
	_ = section
	return strings.Join(parts, "; ")
}

// truncateToFit binary-searches the longest prefix of text whose
// estimated token count is <= maxTokens.
func truncateToFit(text string, maxTokens int, estimator interface{ Estimate(string) int }) string {
	if maxTokens <= 0 || estimator.Estimate(text) <= maxTokens {
		return text
	}

	runes := []rune(text)
	low, high := 0, len(runes)
	best := 0
	for low <= high {
		mid := (low + high) / 2
		if estimator.Estimate(string(runes[:mid])) <= maxTokens {
			best = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return strings.TrimSpace(string(runes[:best]))
}
