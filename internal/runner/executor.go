// Package runner drives one run of an ordered step sequence against a
// step executor session and classifies the result.
package runner

import (
	"context"
	"errors"

	"github.com/flowdeck/flowdeck/internal/flow"
)

// ErrTransport marks a failure to reach the step executor at all, as
// opposed to a step that executed and failed.
var ErrTransport = errors.New("executor transport failure")

// Executor opens step executor sessions. A session is stateful per
// browser session and must be released exactly once.
type Executor interface {
	Open(ctx context.Context) (Session, error)
}

// Session performs one browser action per Run call. A failed action is
// reported in the StepResult; a non-nil error means the executor could
// not be reached and the result carries no meaning.
type Session interface {
	Run(ctx context.Context, step flow.Step) (flow.StepResult, error)
	Close(ctx context.Context) error
}
