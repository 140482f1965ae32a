// Package integrations provides thin HTTP clients for the external artifact
// services: the shared document store, the issue tracker, and the wiki.
// Credentials come from the environment; endpoints from configuration.
// An unconfigured client reports a non-success result instead of failing
// the pipeline.
package integrations

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize bounds integration API response reads.
const maxResponseSize = 1 * 1024 * 1024 // 1MB

// ArtifactResult is the uniform outcome of one artifact creation.
type ArtifactResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure builds a non-success result carrying the error text.
func Failure(err error) *ArtifactResult {
	return &ArtifactResult{Success: false, Error: err.Error()}
}

// notConfigured is the shared result for clients missing credentials or
// endpoints.
func notConfigured(what string) *ArtifactResult {
	return &ArtifactResult{
		Success: false,
		Error:   fmt.Sprintf("%s integration is not configured", what),
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// readBody reads a bounded response body.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// snippet truncates an error body for log and result messages.
func snippet(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
