package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/model"
	"github.com/c360studio/reqflow/workflow/prompts"
)

// DesignAgent drafts the technical design page from a formatted PRD and the
// drafted documents.
type DesignAgent struct {
	client      llm.Completer
	logger      *slog.Logger
	temperature float64
}

// NewDesignAgent creates a DesignAgent.
func NewDesignAgent(client llm.Completer, logger *slog.Logger) *DesignAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesignAgent{
		client:      client,
		logger:      logger,
		temperature: defaultTemperature,
	}
}

// BuildDesign drafts the design content for a PRD.
func (a *DesignAgent) BuildDesign(ctx context.Context, prd *FormattedPRD, docs *DocumentContent) (*DesignContent, error) {
	if prd == nil {
		return nil, fmt.Errorf("formatted PRD is required")
	}

	payload := struct {
		FormattedPRD    *FormattedPRD    `json:"formatted_prd"`
		DocumentResults *DocumentContent `json:"document_results,omitempty"`
	}{prd, docs}

	var content DesignContent
	if err := completeJSON(ctx, a.client, model.RoleDesignWriter, prompts.Design, payload, a.temperature, &content); err != nil {
		return nil, fmt.Errorf("draft design: %w", err)
	}

	if content.Overview == "" {
		return nil, fmt.Errorf("drafted design has no overview")
	}

	a.logger.Debug("Design drafted",
		"mappings", len(content.MappingTables),
		"queries", len(content.Queries))
	return &content, nil
}

// RenderMarkdown renders the design content as a markdown page body for the
// wiki integration.
func (d *DesignContent) RenderMarkdown() string {
	var b strings.Builder

	b.WriteString("## Overview\n\n")
	b.WriteString(d.Overview)
	b.WriteString("\n")

	if len(d.MappingTables) > 0 {
		b.WriteString("\n## Data Mapping\n\n")
		b.WriteString("| Attribute | Type | Source | Destination |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, row := range d.MappingTables {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				row.Attribute, row.Type, row.Source, row.Destination)
		}
	}

	if len(d.Queries) > 0 {
		b.WriteString("\n## Queries\n")
		for _, q := range d.Queries {
			b.WriteString("\n```sql\n")
			b.WriteString(q)
			b.WriteString("\n```\n")
		}
	}

	if len(d.Dependencies) > 0 {
		b.WriteString("\n## Dependencies\n\n")
		for _, dep := range d.Dependencies {
			fmt.Fprintf(&b, "- %s\n", dep)
		}
	}

	if len(d.Security) > 0 {
		b.WriteString("\n## Security and Compliance\n\n")
		for _, s := range d.Security {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	return b.String()
}
