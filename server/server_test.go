package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/config"
	"github.com/c360studio/reqflow/metrics"
	"github.com/c360studio/reqflow/storage"
	"github.com/c360studio/reqflow/workflow"
)

type stubRunner struct {
	result *workflow.Result
	runID  string
	input  *agent.RequirementInput
}

func (s *stubRunner) ExecuteRun(ctx context.Context, runID string, input *agent.RequirementInput) (*workflow.Result, error) {
	s.runID = runID
	s.input = input
	return s.result, nil
}

func newTestServer(t *testing.T, runner *stubRunner) (*Server, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	srv, err := New(config.ServerConfig{Addr: ":0"}, Deps{
		Store:   store,
		Runner:  runner,
		Metrics: metrics.New(),
	})
	require.NoError(t, err)
	return srv, store
}

func submitBody() string {
	return `{
		"business_need": "We need a faster checkout to reduce cart abandonment.",
		"requirements": "Customers should complete a purchase in fewer than three steps.",
		"business_impact": "Projected 12% increase in completed orders.",
		"delivery_date": "02/28/2025",
		"campaign_date": "03/05/2025",
		"contributors": ["Ann", "Ben"]
	}`
}

func TestSubmitHappyPath(t *testing.T) {
	runner := &stubRunner{result: &workflow.Result{
		Success:    true,
		FinalStage: workflow.StageComplete,
		Links: workflow.Links{
			DocumentURL: "https://docs.example.com/doc-1",
			TicketURL:   "https://tracker.example.com/browse/REQ-1",
			DesignURL:   "https://wiki.example.com/pages/9001",
		},
	}}
	srv, store := newTestServer(t, runner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/requirements", strings.NewReader(submitBody()))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Result.Success)
	assert.Equal(t, resp.ID, runner.runID)
	assert.Equal(t, "02/28/2025", runner.input.DeliveryDate)

	// Terminal state and links were persisted.
	stored, err := store.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusCompleted, stored.Status)
	assert.Equal(t, "https://docs.example.com/doc-1", stored.Links.DocumentURL)
}

func TestSubmitInvalidInputStillReturnsResult(t *testing.T) {
	runner := &stubRunner{result: &workflow.Result{
		Success:    false,
		FinalStage: workflow.StageError,
		Validation: &agent.ValidationResult{
			IsValid:       false,
			MissingFields: []string{"contributors"},
			Feedback:      "Please name at least one contributor.",
		},
	}}
	srv, store := newTestServer(t, runner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/requirements", strings.NewReader(submitBody()))
	srv.Handler().ServeHTTP(rec, req)

	// Invalid input is a normal outcome with validation feedback in the body.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Result.Success)
	assert.Contains(t, resp.Result.Validation.MissingFields, "contributors")

	stored, err := store.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusFailed, stored.Status)
}

func TestSubmitRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{result: &workflow.Result{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/requirements", strings.NewReader("{not json"))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv, store := newTestServer(t, &stubRunner{result: &workflow.Result{}})

	req := storage.NewRequirement("Faster checkout", "Three-step purchase")
	require.NoError(t, store.Put(context.Background(), req))
	require.NoError(t, store.UpdateStep(context.Background(), req.ID,
		storage.StepValidation, storage.StatusCompleted, ""))

	rec := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodGet, "/api/requirements/"+req.ID+"/status", nil)
	srv.Handler().ServeHTTP(rec, httpReq)

	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, req.ID, status.ID)
	require.Len(t, status.Steps, 4)
	assert.Equal(t, storage.StatusCompleted, status.Steps[0].Status)
	assert.Equal(t, storage.StatusPending, status.Steps[1].Status)
}

func TestGetNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{result: &workflow.Result{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/requirements/requirement:missing", nil)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{result: &workflow.Result{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmissionTitleTruncatesOnRuneBoundary(t *testing.T) {
	long := submissionTitle(&agent.RequirementInput{BusinessNeed: strings.Repeat("ü", 200)})
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, strings.Repeat("ü", maxTitleLen)+"...", long)

	short := submissionTitle(&agent.RequirementInput{BusinessNeed: "Inventory sync"})
	assert.Equal(t, "Inventory sync", short)

	assert.Equal(t, "Untitled requirement", submissionTitle(&agent.RequirementInput{}))
}
