package escalation

import "github.com/google/uuid"

// NewTaskID generates a fresh task identifier for an Escalation State,
// used by callers that don't already have a task ID from an upstream
// system (e.g. the demo CLI).
func NewTaskID() string {
	return uuid.NewString()
}
