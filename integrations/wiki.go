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

// Wiki creates design pages in a Confluence-compatible wiki.
type Wiki struct {
	baseURL    string
	spaceKey   string
	apiToken   string
	enabled    bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWiki builds a wiki client. The API token is read from WIKI_API_TOKEN.
func NewWiki(cfg config.WikiConfig, logger *slog.Logger) *Wiki {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wiki{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		spaceKey:   cfg.SpaceKey,
		apiToken:   os.Getenv("WIKI_API_TOKEN"),
		enabled:    cfg.Enabled,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// IsConfigured reports whether the client can make API calls.
func (w *Wiki) IsConfigured() bool {
	return w.enabled && w.baseURL != "" && w.apiToken != ""
}

// DefaultSpace returns the configured space key.
func (w *Wiki) DefaultSpace() string { return w.spaceKey }

// CreatePage creates a wiki page in the given space. An empty space falls
// back to the configured default.
func (w *Wiki) CreatePage(ctx context.Context, space, title, content string) (*ArtifactResult, error) {
	if !w.IsConfigured() {
		return notConfigured("wiki"), nil
	}
	if space == "" {
		space = w.spaceKey
	}
	if space == "" {
		return nil, fmt.Errorf("wiki space is required")
	}
	if title == "" {
		return nil, fmt.Errorf("wiki page title is required")
	}

	payload := struct {
		Type  string `json:"type"`
		Title string `json:"title"`
		Space struct {
			Key string `json:"key"`
		} `json:"space"`
		Body struct {
			Storage struct {
				Value          string `json:"value"`
				Representation string `json:"representation"`
			} `json:"storage"`
		} `json:"body"`
	}{
		Type:  "page",
		Title: title,
	}
	payload.Space.Key = space
	payload.Body.Storage.Value = content
	payload.Body.Storage.Representation = "wiki"

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal page request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.baseURL+"/rest/api/content", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		w.logger.Warn("wiki page creation rejected",
			"status", resp.StatusCode,
			"space", space)
		return nil, fmt.Errorf("wiki returned HTTP %d: %s",
			resp.StatusCode, snippet(body))
	}

	var created struct {
		ID    string `json:"id"`
		Links struct {
			Base  string `json:"base"`
			WebUI string `json:"webui"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse wiki response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("wiki response missing page id")
	}

	url := created.Links.Base + created.Links.WebUI
	if url == "" {
		url = fmt.Sprintf("%s/pages/%s", w.baseURL, created.ID)
	}

	w.logger.Info("wiki page created", "id", created.ID, "space", space)
	return &ArtifactResult{Success: true, ID: created.ID, URL: url}, nil
}
