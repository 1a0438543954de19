package perfguard

import "fmt"

// Tier is one rung in a fallback chain: a named service with a
// confidence factor applied when it serves the response.
type Tier struct {
	Name       string
	Confidence float64
}

// Chain is an ordered set of tiers from highest to lowest fidelity for
// a single tool or operation.
type Chain struct {
	ToolName string
	Tiers    []Tier
}

// NewChain creates an empty chain for the named tool.
func NewChain(toolName string) Chain {
	return Chain{ToolName: toolName}
}

// WithTier appends a fallback tier and returns the chain for chaining.
func (c Chain) WithTier(name string, confidence float64) Chain {
	c.Tiers = append(c.Tiers, Tier{Name: name, Confidence: clampConfidence(confidence)})
	return c
}

// TierCount is the number of tiers in the chain.
func (c Chain) TierCount() int { return len(c.Tiers) }

// Execute tries each tier in order via tryFn until one succeeds. The
// first tier's success is full-confidence; a later tier's success is
// partial-confidence carrying warnings about the tiers that failed
// ahead of it. If every tier fails, the response is Unavailable.
func Execute[T any](c Chain, tryFn func(tierName string) (T, error)) DegradedResponse[T] {
	var warnings []string
	var zero T

	for idx, tier := range c.Tiers {
		result, err := tryFn(tier.Name)
		if err == nil {
			if idx == 0 {
				return Full(result, tier.Name)
			}
			warnings = append(warnings, fmt.Sprintf("%s: primary tier(s) failed, using fallback %q", c.ToolName, tier.Name))
			resp := Partial(result, tier.Name, tier.Confidence, "")
			resp.Warnings = warnings
			return resp
		}
		warnings = append(warnings, fmt.Sprintf("%s %q failed: %s", c.ToolName, tier.Name, err))
	}

	resp := Unavailable(zero, fmt.Sprintf("%s: all %d tiers exhausted", c.ToolName, len(c.Tiers)))
	resp.Warnings = warnings
	return resp
}
