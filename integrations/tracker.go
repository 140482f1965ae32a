package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/c360studio/reqflow/config"
)

// TicketRequest describes one tracker ticket to create.
type TicketRequest struct {
	Project     string
	Summary     string
	Description string
	Labels      []string
	DueDate     string
	Priority    string
}

// Tracker creates tickets in a Jira-compatible issue tracker.
type Tracker struct {
	baseURL    string
	project    string
	email      string
	apiToken   string
	enabled    bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTracker builds an issue tracker client. Credentials are read from
// TRACKER_EMAIL and TRACKER_API_TOKEN.
func NewTracker(cfg config.TrackerConfig, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		project:    cfg.Project,
		email:      os.Getenv("TRACKER_EMAIL"),
		apiToken:   os.Getenv("TRACKER_API_TOKEN"),
		enabled:    cfg.Enabled,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// IsConfigured reports whether the client can make API calls.
func (t *Tracker) IsConfigured() bool {
	return t.enabled && t.baseURL != "" && t.apiToken != ""
}

// DefaultProject returns the configured project key.
func (t *Tracker) DefaultProject() string { return t.project }

// CreateTicket creates a tracker ticket. An empty Project falls back to the
// configured default project.
func (t *Tracker) CreateTicket(ctx context.Context, ticket TicketRequest) (*ArtifactResult, error) {
	if !t.IsConfigured() {
		return notConfigured("issue tracker"), nil
	}
	project := ticket.Project
	if project == "" {
		project = t.project
	}
	if project == "" {
		return nil, fmt.Errorf("tracker project is required")
	}
	if ticket.Summary == "" {
		return nil, fmt.Errorf("ticket summary is required")
	}

	type nameField struct {
		Name string `json:"name"`
	}
	payload := struct {
		Fields struct {
			Project struct {
				Key string `json:"key"`
			} `json:"project"`
			Summary     string     `json:"summary"`
			Description string     `json:"description"`
			IssueType   nameField  `json:"issuetype"`
			Labels      []string   `json:"labels,omitempty"`
			DueDate     string     `json:"duedate,omitempty"`
			Priority    *nameField `json:"priority,omitempty"`
		} `json:"fields"`
	}{}
	payload.Fields.Project.Key = project
	payload.Fields.Summary = ticket.Summary
	payload.Fields.Description = ticket.Description
	payload.Fields.IssueType = nameField{Name: "Story"}
	payload.Fields.Labels = ticket.Labels
	payload.Fields.DueDate = ticket.DueDate
	if ticket.Priority != "" {
		payload.Fields.Priority = &nameField{Name: ticket.Priority}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ticket request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/rest/api/2/issue", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(t.email, t.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		t.logger.Warn("ticket creation rejected",
			"status", resp.StatusCode,
			"project", project)
		return nil, fmt.Errorf("tracker returned HTTP %d: %s",
			resp.StatusCode, snippet(body))
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse tracker response: %w", err)
	}
	if created.Key == "" {
		return nil, fmt.Errorf("tracker response missing issue key")
	}

	t.logger.Info("ticket created", "key", created.Key, "project", project)
	return &ArtifactResult{
		Success: true,
		ID:      created.Key,
		URL:     fmt.Sprintf("%s/browse/%s", t.baseURL, created.Key),
	}, nil
}
