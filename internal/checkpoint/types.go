// Package checkpoint implements the Checkpoint Manager (C14): versioned,
// sequence-numbered snapshots of a debate session with bounded retention
// and integrity-checked restore. Grounded on the teacher's
// internal/northstar Store (mutex-guarded sql.DB wrapper, JSON-serialized
// struct fields, schema-on-open), adapted from the teacher's knowledge
// database to a single checkpoints table, backed by modernc.org/sqlite
// (a cgo-free driver, in place of the cgo driver the teacher's store
// uses).
package checkpoint

import (
	"time"

	"codenerd/internal/debate"
)

// CurrentVersion is the checkpoint format version this build writes and
// the ceiling restore() accepts.
const CurrentVersion = 1

// Checkpoint is §3's Debate Checkpoint.
type Checkpoint struct {
	Version    int
	Session    debate.Session
	Checks     []debate.ConsensusCheck
	Critiques  []debate.PatchCritique
	ElapsedMs  int64
	Reason     string
	Sequence   uint64
	CreatedAt  time.Time
}

// Status is the closed restore-outcome set from §4.14.
type Status string

const (
	StatusValid      Status = "valid"
	StatusRecoverable Status = "recoverable"
	StatusCorrupted  Status = "corrupted"
)

// RestoreResult bundles the decoded checkpoint with its integrity
// verdict. Only Valid and Recoverable permit resume.
type RestoreResult struct {
	Checkpoint Checkpoint
	Status     Status
	Warnings   []string
	Errors     []string
}

// CanResume reports whether the restore result permits resuming the
// debate.
func (r RestoreResult) CanResume() bool {
	return r.Status == StatusValid || r.Status == StatusRecoverable
}
