package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/model"
	"github.com/c360studio/reqflow/workflow/prompts"
)

// FormattingAgent restructures a validated submission into the PRD template.
type FormattingAgent struct {
	client      llm.Completer
	logger      *slog.Logger
	temperature float64
}

// NewFormattingAgent creates a FormattingAgent.
func NewFormattingAgent(client llm.Completer, logger *slog.Logger) *FormattingAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormattingAgent{
		client:      client,
		logger:      logger,
		temperature: defaultTemperature,
	}
}

// Format produces a structured PRD from the submission and its validation
// outcome. Formatting an unvalidated or invalid submission is a programming
// error upstream and is rejected.
func (a *FormattingAgent) Format(ctx context.Context, input *RequirementInput, validation *ValidationResult) (*FormattedPRD, error) {
	if input == nil {
		return nil, fmt.Errorf("input is required")
	}
	if validation == nil || !validation.IsValid {
		return nil, fmt.Errorf("cannot format an unvalidated submission")
	}

	payload := struct {
		RawInput   *RequirementInput `json:"raw_input"`
		Validation *ValidationResult `json:"validation_results"`
	}{input, validation}

	var prd FormattedPRD
	if err := completeJSON(ctx, a.client, model.RoleFormatter, prompts.Formatting, payload, a.temperature, &prd); err != nil {
		return nil, fmt.Errorf("format PRD: %w", err)
	}

	if prd.BusinessNeed == "" || len(prd.Requirements) == 0 {
		return nil, fmt.Errorf("formatted PRD is incomplete")
	}

	a.logger.Debug("PRD formatted", "requirements", len(prd.Requirements))
	return &prd, nil
}
