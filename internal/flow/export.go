package flow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ExportVersion is stamped into exported flow documents.
const ExportVersion = "1.0"

// FlowExport is the interchange document for a single saved flow.
type FlowExport struct {
	TestName   string    `json:"testName"`
	Steps      []Step    `json:"steps"`
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
}

// ReportExport is the interchange document for a single report.
type ReportExport struct {
	TestName       string           `json:"testName"`
	Status         FlowStatus       `json:"status"`
	Duration       string           `json:"duration"`
	Date           string           `json:"date"`
	Time           string           `json:"time"`
	PassedSteps    int              `json:"passedSteps"`
	TotalSteps     int              `json:"totalSteps"`
	CompletedSteps int              `json:"completedSteps"`
	Trigger        string           `json:"trigger,omitempty"`
	Results        []RunStepOutcome `json:"results"`
	ExportDate     time.Time        `json:"exportDate"`
}

var flowImportSchema = jsonschema.MustCompileString("flow-import.json", `{
	"type": "object",
	"required": ["testName", "steps"],
	"properties": {
		"testName": {"type": "string", "minLength": 1},
		"steps": {"type": "array"}
	}
}`)

// ExportFlow produces the interchange document for a saved flow.
func ExportFlow(f TestFlow, now time.Time) FlowExport {
	return FlowExport{
		TestName:   f.Name,
		Steps:      f.Steps,
		ExportDate: now.UTC(),
		Version:    ExportVersion,
	}
}

// ExportReport produces the interchange document for a report.
func ExportReport(r TestReport, now time.Time) ReportExport {
	return ReportExport{
		TestName:       r.TestName,
		Status:         r.Status,
		Duration:       r.Duration,
		Date:           r.Timestamp.Format("2006-01-02"),
		Time:           r.Timestamp.Format("15:04:05"),
		PassedSteps:    r.PassedSteps,
		TotalSteps:     r.TotalSteps,
		CompletedSteps: r.CompletedSteps,
		Trigger:        r.Trigger,
		Results:        r.Results,
		ExportDate:     now.UTC(),
	}
}

// ImportFlow parses and validates an exported flow document and rebuilds a
// TestFlow from it. Step ids are regenerated; step order, types and configs
// are preserved.
func ImportFlow(doc []byte, now time.Time) (TestFlow, error) {
	var raw any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return TestFlow{}, fmt.Errorf("%w: not a JSON document: %v", ErrValidation, err)
	}
	if err := flowImportSchema.Validate(raw); err != nil {
		return TestFlow{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var export FlowExport
	if err := json.Unmarshal(doc, &export); err != nil {
		return TestFlow{}, fmt.Errorf("%w: malformed flow document: %v", ErrValidation, err)
	}
	if err := ValidateSteps(export.Steps); err != nil {
		return TestFlow{}, err
	}

	f := TestFlow{
		ID:        NewID(),
		Name:      export.TestName,
		Steps:     make([]Step, len(export.Steps)),
		Status:    StatusPending,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	copy(f.Steps, export.Steps)
	for i := range f.Steps {
		f.Steps[i].ID = NewID()
	}
	return f, nil
}
