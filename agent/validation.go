package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/model"
	"github.com/c360studio/reqflow/workflow/prompts"
)

// Minimum content lengths for the structural pre-checks. Submissions below
// these bounds are rejected without consulting the model.
const (
	minBusinessNeedLen   = 30
	minRequirementsLen   = 40
	minBusinessImpactLen = 25
)

// datePattern accepts M/D/YYYY and MM/DD/YYYY.
var datePattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

// fieldExamples shows submitters what good input looks like per field.
var fieldExamples = map[string]string{
	"business_need":   "We need to track foreign bank account indicators for tax filing customers to enable personalized expert matching.",
	"requirements":    "Should trigger when a customer who auths in takes no action like uploading a document or an expert chat for over 5 days.",
	"business_impact": "CS cannot launch the expert match campaign without this data; it drives both segmentation and personalization.",
	"delivery_date":   "02/28/2025",
	"campaign_date":   "03/05/2025",
	"contributors":    "Sarah Johnson, Data Analytics Team",
}

// ValidationAgent judges whether a submission is complete and clear enough
// to format. Structural checks run locally; the model is only consulted for
// clarity judgment on structurally sound input.
type ValidationAgent struct {
	client      llm.Completer
	logger      *slog.Logger
	temperature float64
}

// NewValidationAgent creates a ValidationAgent.
func NewValidationAgent(client llm.Completer, logger *slog.Logger) *ValidationAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationAgent{
		client:      client,
		logger:      logger,
		temperature: defaultTemperature,
	}
}

// Validate checks a submission. A model failure never surfaces as an error:
// it is mapped to a well-formed invalid result so the caller always gets a
// usable validation shape.
func (a *ValidationAgent) Validate(ctx context.Context, input *RequirementInput) (*ValidationResult, error) {
	if input == nil {
		return nil, fmt.Errorf("input is required")
	}

	if result := precheck(input); result != nil {
		a.logger.Debug("Validation short-circuited by pre-checks",
			"missing_fields", result.MissingFields)
		return result, nil
	}

	var result ValidationResult
	err := completeJSON(ctx, a.client, model.RoleValidator, prompts.Validation, input, a.temperature, &result)
	if err != nil {
		a.logger.Warn("Validation model unavailable, returning invalid result", "error", err)
		return &ValidationResult{
			IsValid:  false,
			Feedback: "Validation could not be completed. Please try submitting again.",
		}, nil
	}

	return &result, nil
}

// precheck applies the structural rules. Returns nil when the submission
// passes and the model should judge clarity.
func precheck(input *RequirementInput) *ValidationResult {
	var missing []string
	examples := make(map[string]string)

	check := func(field, value string, minLen int) {
		if len(strings.TrimSpace(value)) < minLen {
			missing = append(missing, field)
			examples[field] = fieldExamples[field]
		}
	}

	check("business_need", input.BusinessNeed, minBusinessNeedLen)
	check("requirements", input.Requirements, minRequirementsLen)
	check("business_impact", input.BusinessImpact, minBusinessImpactLen)

	checkDate := func(field, value string) {
		if !datePattern.MatchString(strings.TrimSpace(value)) {
			missing = append(missing, field)
			examples[field] = fieldExamples[field]
		}
	}
	checkDate("delivery_date", input.DeliveryDate)
	checkDate("campaign_date", input.CampaignDate)

	hasContributor := false
	for _, c := range input.Contributors {
		if strings.TrimSpace(c) != "" {
			hasContributor = true
			break
		}
	}
	if !hasContributor {
		missing = append(missing, "contributors")
		examples["contributors"] = fieldExamples["contributors"]
	}

	if len(missing) == 0 {
		return nil
	}

	return &ValidationResult{
		IsValid:       false,
		MissingFields: missing,
		Feedback: fmt.Sprintf(
			"Your submission is missing or too brief in the following fields: %s. See the examples for what a complete entry looks like.",
			strings.Join(missing, ", ")),
		Examples: examples,
	}
}
