package runner

import (
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/internal/flow"
)

// Verdict is the classification of one completed run.
type Verdict struct {
	Status   flow.FlowStatus
	Duration time.Duration
}

// Classify turns a run outcome into a single verdict. A run is a success
// iff every configured step was attempted and every attempted step
// succeeded; a partially-executed run is an error even if every attempted
// step passed.
func Classify(out Outcome) Verdict {
	status := flow.StatusError
	if out.CompletedSteps == out.TotalSteps && out.SuccessfulSteps == out.TotalSteps {
		status = flow.StatusSuccess
	}
	return Verdict{
		Status:   status,
		Duration: outcomeSpan(out.Outcomes),
	}
}

// outcomeSpan is the wall-clock delta between the first and last step
// outcome, zero when there are fewer than two.
func outcomeSpan(outcomes []flow.RunStepOutcome) time.Duration {
	if len(outcomes) < 2 {
		return 0
	}
	return outcomes[len(outcomes)-1].Timestamp.Sub(outcomes[0].Timestamp)
}

// FormatDuration renders a run duration: sub-second as milliseconds,
// sub-minute as whole seconds, otherwise minutes plus seconds.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// Report folds a run outcome and its verdict into a durable report. The
// id and timestamp are stamped by the report store on append.
func Report(flowName, trigger string, out Outcome, v Verdict) flow.TestReport {
	return flow.TestReport{
		TestName:       flowName,
		Status:         v.Status,
		Duration:       FormatDuration(v.Duration),
		TotalSteps:     out.TotalSteps,
		PassedSteps:    out.SuccessfulSteps,
		CompletedSteps: out.CompletedSteps,
		Trigger:        trigger,
		Results:        out.Outcomes,
	}
}
