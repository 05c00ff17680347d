package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/runner"
)

type runResponse struct {
	Success         bool                  `json:"success"`
	Status          flow.FlowStatus       `json:"status"`
	Duration        string                `json:"duration"`
	Results         []flow.RunStepOutcome `json:"results"`
	TotalSteps      int                   `json:"totalSteps"`
	SuccessfulSteps int                   `json:"successfulSteps"`
	CompletedSteps  int                   `json:"completedSteps"`
	ReportID        string                `json:"reportId,omitempty"`
	Error           string                `json:"error,omitempty"`
}

func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TestName string      `json:"testName"`
		Steps    []flow.Step `json:"steps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(body.Steps) == 0 {
		writeError(w, http.StatusBadRequest, "steps must be a non-empty sequence")
		return
	}

	runID := flow.NewID()
	s.coord.RegisterRun(r.Context(), runID, body.TestName)
	defer s.coord.UnregisterRun(r.Context(), runID)

	s.runAndReport(w, r, body.TestName, body.Steps, runner.ContinueOnFailure, true)
}

func (s *Server) handleRunSingleStep(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Step *flow.Step `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if body.Step == nil {
		writeError(w, http.StatusBadRequest, "step required")
		return
	}

	name := body.Step.Name
	if name == "" {
		name = string(body.Step.Type)
	}
	s.runAndReport(w, r, name, []flow.Step{*body.Step}, runner.StopOnFailure, false)
}

// runAndReport drives one run end to end: execute, classify, persist the
// report, update the matching saved flow, answer the caller.
func (s *Server) runAndReport(w http.ResponseWriter, r *http.Request, name string, steps []flow.Step, policy runner.Policy, persist bool) {
	out, runErr := s.orch.Run(r.Context(), name, steps, policy)
	if runErr != nil && errors.Is(runErr, flow.ErrValidation) {
		writeError(w, http.StatusBadRequest, runErr.Error())
		return
	}

	verdict := runner.Classify(out)
	resp := runResponse{
		Success:         verdict.Status == flow.StatusSuccess,
		Status:          verdict.Status,
		Duration:        runner.FormatDuration(verdict.Duration),
		Results:         out.Outcomes,
		TotalSteps:      out.TotalSteps,
		SuccessfulSteps: out.SuccessfulSteps,
		CompletedSteps:  out.CompletedSteps,
	}
	if resp.Results == nil {
		resp.Results = []flow.RunStepOutcome{}
	}

	if persist {
		report := s.coord.AppendReport(r.Context(), runner.Report(name, "manual", out, verdict))
		resp.ReportID = report.ID
		s.updateFlowAfterRun(r, name, verdict)
	}

	if runErr != nil {
		s.logger.Error("run failed before completion", zap.String("flow", name), zap.Error(runErr))
		resp.Error = runErr.Error()
		writeStatusJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) updateFlowAfterRun(r *http.Request, name string, verdict runner.Verdict) {
	saved, ok := s.coord.FindFlowByName(name)
	if !ok {
		return
	}
	now := time.Now().UTC()
	duration := runner.FormatDuration(verdict.Duration)
	if _, err := s.coord.UpdateFlow(r.Context(), saved.ID, flow.FlowUpdate{
		Status:   &verdict.Status,
		LastRun:  &now,
		Duration: &duration,
	}); err != nil {
		s.logger.Warn("failed to update flow after run", zap.String("flow", name), zap.Error(err))
	}
}

func (s *Server) handleListFlows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"items": s.coord.ListFlows()})
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var f flow.TestFlow
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if f.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if err := flow.ValidateSteps(f.Steps); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, s.coord.AddFlow(r.Context(), f))
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	f, err := s.coord.GetFlow(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "flow not found")
		return
	}
	writeJSON(w, f)
}

func (s *Server) handleUpdateFlow(w http.ResponseWriter, r *http.Request) {
	var upd flow.FlowUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if upd.Steps != nil {
		if err := flow.ValidateSteps(*upd.Steps); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	f, err := s.coord.UpdateFlow(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, http.StatusNotFound, "flow not found")
		return
	}
	writeJSON(w, f)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	removed := s.coord.RemoveFlow(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, map[string]any{"removed": removed})
}

func (s *Server) handleExportFlow(w http.ResponseWriter, r *http.Request) {
	f, err := s.coord.GetFlow(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "flow not found")
		return
	}
	writeJSON(w, flow.ExportFlow(f, time.Now()))
}

func (s *Server) handleImportFlow(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(r.Body)
	if err != nil || len(doc) == 0 {
		writeError(w, http.StatusBadRequest, "document required")
		return
	}
	f, err := flow.ImportFlow(doc, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, s.coord.AddFlow(r.Context(), f))
}

func (s *Server) handleListReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"items": s.coord.ListReports()})
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.coord.GetReport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, flow.ExportReport(report, time.Now()))
}

func (s *Server) handleListRunning(w http.ResponseWriter, _ *http.Request) {
	live := s.coord.ListLiveRuns(time.Now())
	if live == nil {
		live = []flow.RunningTestEntry{}
	}
	writeJSON(w, map[string]any{"items": live})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.coord.LoadErr(); err != nil {
		writeStatusJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{
		"status":      "ok",
		"loading":     s.coord.Loading(),
		"lastUpdated": s.coord.LastUpdated(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeStatusJSON(w, http.StatusOK, v)
}

func writeStatusJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeStatusJSON(w, status, map[string]any{"success": false, "error": msg})
}
