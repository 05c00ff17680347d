package flow

import "time"

// StepType identifies the browser action a step performs.
type StepType string

const (
	StepNavigate StepType = "navigate"
	StepClick    StepType = "click"
	StepInput    StepType = "input"
	StepWait     StepType = "wait"
	StepVerify   StepType = "verify"
	StepRefresh  StepType = "refresh"
)

// Step is one atomic browser action with its configuration. Steps are
// immutable once they are part of a run.
type Step struct {
	ID     string         `json:"id"`
	Type   StepType       `json:"type"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// FlowStatus is the lifecycle status of a saved flow.
type FlowStatus string

const (
	StatusPending FlowStatus = "pending"
	StatusRunning FlowStatus = "running"
	StatusSuccess FlowStatus = "success"
	StatusError   FlowStatus = "error"
)

// TestFlow is a saved, reusable, named step sequence. Step order is
// execution order.
type TestFlow struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Steps     []Step     `json:"steps"`
	Status    FlowStatus `json:"status"`
	Browser   string     `json:"browser,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	Duration  string     `json:"duration,omitempty"`
}

// FlowUpdate is a partial update applied to a saved flow. Nil fields are
// left untouched.
type FlowUpdate struct {
	Name     *string     `json:"name,omitempty"`
	Steps    *[]Step     `json:"steps,omitempty"`
	Status   *FlowStatus `json:"status,omitempty"`
	Browser  *string     `json:"browser,omitempty"`
	LastRun  *time.Time  `json:"lastRun,omitempty"`
	Duration *string     `json:"duration,omitempty"`
}

// StepResult is the outcome the step executor reports for one step.
type StepResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RunStepOutcome records the result of one executed step within a run,
// in execution order.
type RunStepOutcome struct {
	Step      Step       `json:"step"`
	Result    StepResult `json:"result"`
	Timestamp time.Time  `json:"timestamp"`
}

// TestReport is the durable, immutable record of one completed run.
// Invariant: PassedSteps <= CompletedSteps <= TotalSteps.
type TestReport struct {
	ID             string           `json:"id"`
	TestName       string           `json:"testName"`
	Status         FlowStatus       `json:"status"`
	Duration       string           `json:"duration"`
	TotalSteps     int              `json:"totalSteps"`
	PassedSteps    int              `json:"passedSteps"`
	CompletedSteps int              `json:"completedSteps"`
	Trigger        string           `json:"trigger,omitempty"`
	Results        []RunStepOutcome `json:"results"`
	Timestamp      time.Time        `json:"timestamp"`
}

// RunningTestEntry is a liveness marker for a run believed to be in
// progress. It exists only between run start and run end or TTL expiry.
type RunningTestEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
}
