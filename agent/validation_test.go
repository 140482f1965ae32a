package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/llm/testutil"
)

// completeInput returns a submission that passes all structural pre-checks.
func completeInput() *agent.RequirementInput {
	return &agent.RequirementInput{
		BusinessNeed:   "We need to track foreign bank account indicators for tax filing customers to enable expert matching.",
		Requirements:   "Trigger when a customer auths in but takes no action like uploading a document or an expert chat for over 5 days.",
		BusinessImpact: "CS cannot launch the expert match campaign without this data for segmentation.",
		DeliveryDate:   "02/28/2025",
		CampaignDate:   "03/05/2025",
		Contributors:   []string{"Sarah Johnson", "Data Analytics Team"},
	}
}

func TestValidatePrecheckShortCircuits(t *testing.T) {
	mock := &testutil.MockLLMClient{}
	validator := agent.NewValidationAgent(mock, nil)

	input := completeInput()
	input.BusinessImpact = "Important" // below minimum length
	input.Contributors = nil

	result, err := validator.Validate(context.Background(), input)
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.MissingFields, "business_impact")
	assert.Contains(t, result.MissingFields, "contributors")
	assert.NotEmpty(t, result.Feedback)
	assert.NotEmpty(t, result.Examples["business_impact"])

	// Structural failures must never reach the model.
	assert.Equal(t, 0, mock.GetCallCount())
}

func TestValidateDateFormats(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		valid bool
	}{
		{"zero-padded", "02/28/2025", true},
		{"single digits", "2/8/2025", true},
		{"prose", "Soon", false},
		{"iso format", "2025-02-28", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockLLMClient{
				Responses: []*llm.Response{
					{Content: `{"is_valid": true, "feedback": "Complete."}`},
				},
			}
			validator := agent.NewValidationAgent(mock, nil)

			input := completeInput()
			input.DeliveryDate = tt.date

			result, err := validator.Validate(context.Background(), input)
			require.NoError(t, err)

			if tt.valid {
				assert.True(t, result.IsValid)
			} else {
				assert.False(t, result.IsValid)
				assert.Contains(t, result.MissingFields, "delivery_date")
				assert.Equal(t, 0, mock.GetCallCount())
			}
		})
	}
}

func TestValidateLLMJudgment(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "```json\n" + `{
				"is_valid": false,
				"unclear_fields": ["requirements"],
				"feedback": "The requirements do not say who the audience is.",
				"examples": {"requirements": "State who, what, where, when, why."}
			}` + "\n```"},
		},
	}
	validator := agent.NewValidationAgent(mock, nil)

	result, err := validator.Validate(context.Background(), completeInput())
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"requirements"}, result.UnclearFields)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestValidateCollaboratorFailureMapped(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Err: errors.New("connection refused"),
	}
	validator := agent.NewValidationAgent(mock, nil)

	result, err := validator.Validate(context.Background(), completeInput())

	// A model failure is mapped into a well-formed invalid result,
	// never surfaced as a raw error.
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Feedback)
}

func TestValidateUnparsableResponseMapped(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "I think this looks fine overall."},
		},
	}
	validator := agent.NewValidationAgent(mock, nil)

	result, err := validator.Validate(context.Background(), completeInput())
	require.NoError(t, err)
	assert.False(t, result.IsValid)
}

func TestValidateNilInput(t *testing.T) {
	validator := agent.NewValidationAgent(&testutil.MockLLMClient{}, nil)

	_, err := validator.Validate(context.Background(), nil)
	require.Error(t, err)
}
