package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/flow"
)

// Policy selects what a run does after a step fails.
type Policy string

const (
	// ContinueOnFailure executes every configured step regardless of
	// individual failures, so the report reflects the full sequence.
	ContinueOnFailure Policy = "continue"
	// StopOnFailure aborts the remaining steps at the first failure.
	StopOnFailure Policy = "stop"
)

// Outcome is the structured result of one run. CompletedSteps counts the
// steps actually attempted and may be below TotalSteps under
// StopOnFailure.
type Outcome struct {
	Outcomes        []flow.RunStepOutcome
	TotalSteps      int
	SuccessfulSteps int
	CompletedSteps  int
}

// Orchestrator executes step sequences one step at a time over an
// executor session it owns for the duration of the run.
type Orchestrator struct {
	exec   Executor
	logger *zap.Logger
	now    func() time.Time
}

func New(exec Executor, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		exec:   exec,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes steps in order under the given policy. The returned
// Outcome is always populated; a non-nil error is either a validation
// failure (nothing executed) or a transport failure (Outcome holds what
// completed before the executor became unreachable). The session, once
// opened, is released on every exit path.
func (o *Orchestrator) Run(ctx context.Context, flowName string, steps []flow.Step, policy Policy) (Outcome, error) {
	out := Outcome{TotalSteps: len(steps)}

	if err := flow.ValidateSteps(steps); err != nil {
		return out, err
	}

	var session Session
	defer func() {
		if session == nil {
			return
		}
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			o.logger.Warn("failed to release executor session",
				zap.String("flow", flowName), zap.Error(err))
		}
	}()

	for _, step := range steps {
		if session == nil {
			var err error
			session, err = o.exec.Open(ctx)
			if err != nil {
				o.logger.Error("failed to open executor session",
					zap.String("flow", flowName), zap.Error(err))
				return out, fmt.Errorf("%w: open session: %v", ErrTransport, err)
			}
		}

		result, err := session.Run(ctx, step)
		if err != nil {
			o.logger.Error("executor unreachable mid-run",
				zap.String("flow", flowName),
				zap.String("step", step.Name),
				zap.Error(err))
			return out, fmt.Errorf("%w: step %q: %v", ErrTransport, step.Name, err)
		}

		out.Outcomes = append(out.Outcomes, flow.RunStepOutcome{
			Step:      step,
			Result:    result,
			Timestamp: o.now().UTC(),
		})
		out.CompletedSteps++
		if result.Success {
			out.SuccessfulSteps++
		} else if policy == StopOnFailure {
			o.logger.Info("stopping run at first failed step",
				zap.String("flow", flowName),
				zap.String("step", step.Name))
			break
		}
	}

	return out, nil
}
