package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/runner"
	"github.com/flowdeck/flowdeck/internal/state"
	"github.com/flowdeck/flowdeck/internal/storage"
)

type stubSession struct {
	failSteps map[string]bool
	closed    int
}

func (s *stubSession) Run(_ context.Context, step flow.Step) (flow.StepResult, error) {
	if s.failSteps[step.Name] {
		return flow.StepResult{Success: false, Message: "failed", Error: "selector not found"}, nil
	}
	return flow.StepResult{Success: true, Message: "ok"}, nil
}

func (s *stubSession) Close(context.Context) error {
	s.closed++
	return nil
}

type stubExecutor struct {
	openErr error
	session *stubSession
}

func (e *stubExecutor) Open(context.Context) (runner.Session, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.session, nil
}

func newTestServer(t *testing.T, exec runner.Executor) *Server {
	t.Helper()
	backend, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	coord := state.NewCoordinator(backend, zap.NewNop(), state.Options{})
	require.NoError(t, coord.Load(context.Background()))
	orch := runner.New(exec, zap.NewNop())
	return NewServer(config.Default(), coord, orch, zap.NewNop())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func stepList() []flow.Step {
	return []flow.Step{
		{Type: flow.StepNavigate, Name: "open", Config: map[string]any{"url": "https://example.com"}},
		{Type: flow.StepClick, Name: "press", Config: map[string]any{"selector": "#go"}},
	}
}

func TestRunTestRejectsEmptySteps(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{session: &stubSession{}})

	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/run-test", map[string]any{"testName": "demo"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRunTestHappyPath(t *testing.T) {
	session := &stubSession{}
	srv := newTestServer(t, &stubExecutor{session: session})

	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/run-test", map[string]any{
		"testName": "demo",
		"steps":    stepList(),
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, flow.StatusSuccess, resp.Status)
	assert.Equal(t, 2, resp.TotalSteps)
	assert.Equal(t, 2, resp.SuccessfulSteps)
	assert.Equal(t, 2, resp.CompletedSteps)
	assert.Len(t, resp.Results, 2)
	assert.NotEmpty(t, resp.ReportID)
	assert.Equal(t, 1, session.closed)

	reports := srv.coord.ListReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "demo", reports[0].TestName)

	// The run registry marker is gone once the run finished.
	running := doJSON(t, srv.Router(), http.MethodGet, "/api/running", nil)
	assert.Equal(t, http.StatusOK, running.Code)
	assert.Contains(t, running.Body.String(), `"items": []`)
}

func TestRunTestUpdatesSavedFlow(t *testing.T) {
	session := &stubSession{failSteps: map[string]bool{"press": true}}
	srv := newTestServer(t, &stubExecutor{session: session})

	saved := srv.coord.AddFlow(context.Background(), flow.TestFlow{Name: "demo", Steps: stepList()})

	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/run-test", map[string]any{
		"testName": "demo",
		"steps":    stepList(),
	})
	require.Equal(t, http.StatusOK, rr.Code)

	got, err := srv.coord.GetFlow(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.StatusError, got.Status)
	require.NotNil(t, got.LastRun)
}

func TestRunTestTransportFailure(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{openErr: errors.New("connection refused")})

	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/run-test", map[string]any{
		"testName": "demo",
		"steps":    stepList(),
	})
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, 0, resp.CompletedSteps)

	// Even an unreachable executor leaves a classified report behind.
	reports := srv.coord.ListReports()
	require.Len(t, reports, 1)
	assert.Equal(t, flow.StatusError, reports[0].Status)
}

func TestRunSingleStep(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{session: &stubSession{}})

	missing := doJSON(t, srv.Router(), http.MethodPost, "/api/run-single-step", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/run-single-step", map[string]any{
		"step": flow.Step{Type: flow.StepRefresh, Name: "reload"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalSteps)
	assert.Empty(t, resp.ReportID, "ad-hoc single steps are not persisted")
	assert.Empty(t, srv.coord.ListReports())
}

func TestFlowCRUDEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{session: &stubSession{}})
	router := srv.Router()

	created := doJSON(t, router, http.MethodPost, "/api/flows", flow.TestFlow{Name: "demo", Steps: stepList()})
	require.Equal(t, http.StatusOK, created.Code)
	var f flow.TestFlow
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &f))
	require.NotEmpty(t, f.ID)

	list := doJSON(t, router, http.MethodGet, "/api/flows", nil)
	assert.Contains(t, list.Body.String(), f.ID)

	patch := doJSON(t, router, http.MethodPatch, "/api/flows/"+f.ID, map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, patch.Code)
	assert.Contains(t, patch.Body.String(), "renamed")

	missing := doJSON(t, router, http.MethodPatch, "/api/flows/nope", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, missing.Code)

	deleted := doJSON(t, router, http.MethodDelete, "/api/flows/"+f.ID, nil)
	require.Equal(t, http.StatusOK, deleted.Code)
	assert.Contains(t, deleted.Body.String(), `"removed": true`)

	again := doJSON(t, router, http.MethodDelete, "/api/flows/"+f.ID, nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Contains(t, again.Body.String(), `"removed": false`)
}

func TestCreateFlowRejectsInvalidSteps(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{session: &stubSession{}})

	rr := doJSON(t, srv.Router(), http.MethodPost, "/api/flows", flow.TestFlow{Name: "demo"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportImportEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{session: &stubSession{}})
	router := srv.Router()

	created := doJSON(t, router, http.MethodPost, "/api/flows", flow.TestFlow{Name: "demo", Steps: stepList()})
	var f flow.TestFlow
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &f))

	exported := doJSON(t, router, http.MethodGet, "/api/flows/"+f.ID+"/export", nil)
	require.Equal(t, http.StatusOK, exported.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/flows/import", bytes.NewReader(exported.Body.Bytes()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var imported flow.TestFlow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &imported))
	assert.Equal(t, "demo", imported.Name)
	assert.NotEqual(t, f.ID, imported.ID)
	assert.Len(t, srv.coord.ListFlows(), 2)

	invalid := doJSON(t, router, http.MethodPost, "/api/flows/import", map[string]any{"steps": "nope"})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubExecutor{session: &stubSession{}})

	rr := doJSON(t, srv.Router(), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status": "ok"`)
}
