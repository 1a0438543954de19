package checkpoint

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"codenerd/internal/coreerr"
	"codenerd/internal/debate"
)

// Manager produces versioned checkpoints with a monotonic sequence and a
// bounded in-memory retained set (oldest evicted first), and restores
// them with integrity validation.
type Manager struct {
	mu         sync.Mutex
	maxRetained int
	seq        uint64
	retained   []Checkpoint
}

// NewManager creates a Manager retaining at most maxRetained checkpoints
// in memory (persistence is a separate concern, see store.go).
func NewManager(maxRetained int) *Manager {
	if maxRetained <= 0 {
		maxRetained = 10
	}
	return &Manager{maxRetained: maxRetained}
}

// Checkpoint produces a new versioned snapshot, assigns the next
// sequence number, retains it (evicting the oldest if over capacity),
// and returns it.
func (m *Manager) Checkpoint(session debate.Session, checks []debate.ConsensusCheck, critiques []debate.PatchCritique, elapsed time.Duration, reason string) Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	cp := Checkpoint{
		Version:   CurrentVersion,
		Session:   session,
		Checks:    checks,
		Critiques: critiques,
		ElapsedMs: elapsed.Milliseconds(),
		Reason:    reason,
		Sequence:  m.seq,
		CreatedAt: time.Now(),
	}

	m.retained = append(m.retained, cp)
	if len(m.retained) > m.maxRetained {
		m.retained = m.retained[len(m.retained)-m.maxRetained:]
	}

	return cp
}

// Retained returns the currently retained checkpoints, oldest first.
func (m *Manager) Retained() []Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Checkpoint, len(m.retained))
	copy(out, m.retained)
	return out
}

// Restore validates a decoded checkpoint's integrity per §4.14:
//  (a) the last transition's destination equals the session's phase
//  (b) current_round <= max_rounds + 1
//  (c) checks count does not exceed current_round + 1 (else Recoverable)
//  (d) no critique references a round exceeding current_round (else
//      Recoverable)
// A version greater than CurrentVersion is rejected outright with
// VersionMismatch (§6: "version > CURRENT_VERSION rejected with
// VersionMismatch"); any other Corrupted outcome surfaces
// IntegrityCheckFailed. The returned *coreerr.Error is nil for Valid and
// Recoverable results.
func Restore(cp Checkpoint) (RestoreResult, *coreerr.Error) {
	if cp.Version > CurrentVersion {
		msg := fmt.Sprintf("checkpoint version %d exceeds supported version %d", cp.Version, CurrentVersion)
		return RestoreResult{
			Checkpoint: cp,
			Status:     StatusCorrupted,
			Errors:     []string{msg},
		}, coreerr.New(coreerr.KindVersionMismatch, msg, map[string]any{"version": cp.Version})
	}

	var errs, warnings []string

	session := cp.Session
	if last := session.LastTransitionDestination(); last != "" && last != session.Phase {
		errs = append(errs, fmt.Sprintf("last transition destination %s does not match phase %s", last, session.Phase))
	}

	if session.CurrentRound > session.MaxRounds+1 {
		errs = append(errs, fmt.Sprintf("current_round %d exceeds max_rounds+1 (%d)", session.CurrentRound, session.MaxRounds+1))
	}

	if len(cp.Checks) > session.CurrentRound+1 {
		warnings = append(warnings, fmt.Sprintf("checks count %d exceeds current_round+1 (%d)", len(cp.Checks), session.CurrentRound+1))
	}

	for _, critique := range cp.Critiques {
		if critique.Round > session.CurrentRound {
			warnings = append(warnings, fmt.Sprintf("critique references round %d exceeding current_round %d", critique.Round, session.CurrentRound))
		}
	}

	if len(errs) > 0 {
		result := RestoreResult{Checkpoint: cp, Status: StatusCorrupted, Errors: errs, Warnings: warnings}
		return result, coreerr.New(coreerr.KindIntegrityCheckFailed, strings.Join(errs, "; "), nil)
	}
	if len(warnings) > 0 {
		return RestoreResult{Checkpoint: cp, Status: StatusRecoverable, Warnings: warnings}, nil
	}
	return RestoreResult{Checkpoint: cp, Status: StatusValid}, nil
}
