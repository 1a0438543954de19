package perfguard

import "time"

// ToolHealth tracks a tool's degradation level over time from
// consecutive successes and failures, grounded on original_source's
// ToolHealth (resilience.rs).
type ToolHealth struct {
	Name                 string
	Level                DegradationLevel
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
	TotalCalls           int64
	TotalFailures        int64
	LastError            string
	LastChange           time.Time
}

// NewToolHealth starts a fresh, fully healthy tracker.
func NewToolHealth(name string) *ToolHealth {
	return &ToolHealth{Name: name, Level: LevelFull, LastChange: time.Now()}
}

// RecordSuccess records a successful call. After 3 consecutive
// successes from a degraded state, the tool recovers to Full.
func (h *ToolHealth) RecordSuccess() {
	h.TotalCalls++
	h.ConsecutiveSuccesses++
	h.ConsecutiveFailures = 0

	if h.Level != LevelFull && h.ConsecutiveSuccesses >= 3 {
		h.Level = LevelFull
		h.LastChange = time.Now()
		h.LastError = ""
	}
}

// RecordFailure records a failed call, degrading to Partial on the
// first consecutive failure and Unavailable on the third.
func (h *ToolHealth) RecordFailure(errMsg string) {
	h.TotalCalls++
	h.TotalFailures++
	h.ConsecutiveFailures++
	h.ConsecutiveSuccesses = 0
	h.LastError = errMsg

	newLevel := LevelFull
	switch {
	case h.ConsecutiveFailures >= 3:
		newLevel = LevelUnavailable
	case h.ConsecutiveFailures >= 1:
		newLevel = LevelPartial
	}

	if newLevel != h.Level {
		h.Level = newLevel
		h.LastChange = time.Now()
	}
}

// FailureRate is the fraction of all calls that failed.
func (h *ToolHealth) FailureRate() float64 {
	if h.TotalCalls == 0 {
		return 0
	}
	return float64(h.TotalFailures) / float64(h.TotalCalls)
}
