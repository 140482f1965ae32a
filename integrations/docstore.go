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

// DocStore creates requirement documents in the shared document service.
type DocStore struct {
	baseURL    string
	folderID   string
	apiKey     string
	enabled    bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDocStore builds a document store client. The API key is read from
// DOCSTORE_API_KEY.
func NewDocStore(cfg config.DocsConfig, logger *slog.Logger) *DocStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocStore{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		folderID:   cfg.FolderID,
		apiKey:     os.Getenv("DOCSTORE_API_KEY"),
		enabled:    cfg.Enabled,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// IsConfigured reports whether the client can make API calls.
func (d *DocStore) IsConfigured() bool {
	return d.enabled && d.baseURL != "" && d.apiKey != ""
}

// CreateDocument creates a document with the given title and markdown body.
func (d *DocStore) CreateDocument(ctx context.Context, title, content string) (*ArtifactResult, error) {
	if !d.IsConfigured() {
		return notConfigured("document store"), nil
	}
	if title == "" {
		return nil, fmt.Errorf("document title is required")
	}

	payload := struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		FolderID string `json:"folder_id,omitempty"`
	}{
		Title:    title,
		Body:     content,
		FolderID: d.folderID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal document request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/v1/documents", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		d.logger.Warn("document creation rejected",
			"status", resp.StatusCode,
			"title", title)
		return nil, fmt.Errorf("document store returned HTTP %d: %s",
			resp.StatusCode, snippet(body))
	}

	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse document response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("document store response missing document id")
	}

	url := created.URL
	if url == "" {
		url = fmt.Sprintf("%s/documents/%s", d.baseURL, created.ID)
	}

	d.logger.Info("document created", "id", created.ID, "title", title)
	return &ArtifactResult{Success: true, ID: created.ID, URL: url}, nil
}
