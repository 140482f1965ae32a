package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/storage"
	"github.com/c360studio/reqflow/workflow"
)

const (
	shutdownTimeout = 10 * time.Second
	maxBodySize     = 1 * 1024 * 1024 // 1MB
	maxTitleLen     = 80
)

// SubmitResponse wraps the workflow result with the tracking ID.
type SubmitResponse struct {
	ID     string           `json:"id"`
	Result *workflow.Result `json:"result"`
}

// StatusResponse is the step-level view used for UI polling.
type StatusResponse struct {
	ID     string         `json:"id"`
	Status storage.Status `json:"status"`
	Steps  []storage.Step `json:"steps"`
	Links  storage.Links  `json:"links"`
	Error  string         `json:"error,omitempty"`
}

// handleSubmit runs a submission through the pipeline synchronously and
// returns the projected result. Invalid input is a normal outcome, not an
// HTTP error: the caller receives the validation feedback in the body.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var input agent.RequirementInput
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := storage.NewRequirement(submissionTitle(&input), input.Requirements)
	req.BusinessImpact = input.BusinessImpact
	req.TargetDate = input.DeliveryDate
	req.Contributors = input.Contributors
	if err := s.store.Put(r.Context(), req); err != nil {
		s.logger.Error("failed to store requirement", "error", err)
		http.Error(w, "Failed to store requirement", http.StatusInternalServerError)
		return
	}
	if err := s.store.UpdateStatus(r.Context(), req.ID, storage.StatusProcessing, ""); err != nil {
		s.logger.Warn("failed to mark requirement processing", "id", req.ID, "error", err)
	}

	result, err := s.runner.ExecuteRun(r.Context(), req.ID, &input)
	if err != nil {
		s.logger.Error("workflow execution failed", "id", req.ID, "error", err)
		http.Error(w, "Workflow execution failed", http.StatusInternalServerError)
		return
	}

	s.recordOutcome(r, req.ID, &input, result)

	writeJSON(w, http.StatusOK, SubmitResponse{ID: req.ID, Result: result})
}

// recordOutcome persists the terminal state and fans out notifications.
// Failures here are logged, never surfaced to the submitter.
func (s *Server) recordOutcome(r *http.Request, id string, input *agent.RequirementInput, result *workflow.Result) {
	ctx := r.Context()

	status := storage.StatusCompleted
	if !result.Success {
		status = storage.StatusFailed
	}
	if err := s.store.UpdateStatus(ctx, id, status, result.Error); err != nil {
		s.logger.Warn("failed to update requirement status", "id", id, "error", err)
	}

	links := storage.Links{
		DocumentURL: result.Links.DocumentURL,
		TicketURL:   result.Links.TicketURL,
		DesignURL:   result.Links.DesignURL,
	}
	if links != (storage.Links{}) {
		if err := s.store.AddLink(ctx, id, links); err != nil {
			s.logger.Warn("failed to record links", "id", id, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordExecution(string(result.FinalStage), result.Success)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyResult(ctx, input, result); err != nil {
			s.logger.Warn("failed to publish notification", "id", id, "error", err)
		}
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list requirements", "error", err)
		http.Error(w, "Failed to list requirements", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	req, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		ID:     req.ID,
		Status: req.Status,
		Steps:  req.Steps,
		Links:  req.Links,
		Error:  req.Error,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*storage.Requirement, bool) {
	id := r.PathValue("id")
	req, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Requirement not found", http.StatusNotFound)
			return nil, false
		}
		s.logger.Error("failed to load requirement", "id", id, "error", err)
		http.Error(w, "Failed to load requirement", http.StatusInternalServerError)
		return nil, false
	}
	return req, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submissionTitle derives a tracking title from the business need.
func submissionTitle(input *agent.RequirementInput) string {
	title := input.BusinessNeed
	if title == "" {
		title = "Untitled requirement"
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = string([]rune(title)[:maxTitleLen]) + "..."
	}
	return title
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write response", "error", err)
	}
}
