package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/model"
	"github.com/c360studio/reqflow/workflow/prompts"
)

// DocumentAgent drafts the shared document and tracker ticket content from
// a formatted PRD. It only produces text; the integrations layer creates
// the actual artifacts.
type DocumentAgent struct {
	client      llm.Completer
	logger      *slog.Logger
	temperature float64
}

// NewDocumentAgent creates a DocumentAgent.
func NewDocumentAgent(client llm.Completer, logger *slog.Logger) *DocumentAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentAgent{
		client:      client,
		logger:      logger,
		temperature: defaultTemperature,
	}
}

// CreateDocuments drafts the document and ticket content for a PRD.
func (a *DocumentAgent) CreateDocuments(ctx context.Context, prd *FormattedPRD) (*DocumentContent, error) {
	if prd == nil {
		return nil, fmt.Errorf("formatted PRD is required")
	}

	payload := struct {
		FormattedPRD *FormattedPRD `json:"formatted_prd"`
	}{prd}

	var content DocumentContent
	if err := completeJSON(ctx, a.client, model.RoleDocumentWriter, prompts.Document, payload, a.temperature, &content); err != nil {
		return nil, fmt.Errorf("draft documents: %w", err)
	}

	if content.DocumentTitle == "" || content.DocumentBody == "" {
		return nil, fmt.Errorf("drafted document is incomplete")
	}
	if content.TicketSummary == "" {
		return nil, fmt.Errorf("drafted ticket summary is empty")
	}

	a.logger.Debug("Documents drafted",
		"document_title", content.DocumentTitle,
		"ticket_labels", len(content.TicketLabels))
	return &content, nil
}
