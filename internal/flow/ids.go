package flow

import "github.com/google/uuid"

// NewID returns a unique identifier for flows, steps, reports and runs.
func NewID() string {
	return uuid.NewString()
}
