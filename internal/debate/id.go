package debate

import "github.com/google/uuid"

// NewSessionID generates a fresh debate session identifier for callers
// that don't already have one from an upstream system.
func NewSessionID() string {
	return uuid.NewString()
}
