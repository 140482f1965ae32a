package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/llm/testutil"
)

const formattedPRDJSON = `{
	"business_need": "Track foreign bank account indicators for expert matching.",
	"requirements": [
		{
			"name": "Post-engagement inactivity trigger",
			"description": "Trigger when an authenticated customer takes no action for 5 days.",
			"who_what_where_when_why": "Tax filing customers; inactivity signal; product platform; within 5 days of auth; to drive expert matching."
		}
	],
	"business_impact": "Enables the expert match campaign segmentation.",
	"timeline": {"delivery_date": "02/28/2025", "campaign_date": "03/05/2025"},
	"contributors": ["Sarah Johnson"],
	"definitions": [{"attribute": "Has Foreign Bank Accounts", "definition": "Accounts of type Foreign"}],
	"mapping_tables": [{"attribute": "has_fba", "type": "boolean", "source": "accounts", "destination": "profile"}]
}`

func validOutcome() *agent.ValidationResult {
	return &agent.ValidationResult{IsValid: true, Feedback: "Complete."}
}

func TestFormatProducesPRD(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{{Content: formattedPRDJSON}},
	}
	formatter := agent.NewFormattingAgent(mock, nil)

	prd, err := formatter.Format(context.Background(), completeInput(), validOutcome())
	require.NoError(t, err)

	assert.Equal(t, "Track foreign bank account indicators for expert matching.", prd.BusinessNeed)
	require.Len(t, prd.Requirements, 1)
	assert.Equal(t, "Post-engagement inactivity trigger", prd.Requirements[0].Name)
	assert.Equal(t, "02/28/2025", prd.Timeline.DeliveryDate)
	assert.Len(t, prd.MappingTables, 1)
}

func TestFormatRejectsInvalidValidation(t *testing.T) {
	mock := &testutil.MockLLMClient{}
	formatter := agent.NewFormattingAgent(mock, nil)

	_, err := formatter.Format(context.Background(), completeInput(), &agent.ValidationResult{IsValid: false})
	require.Error(t, err)

	_, err = formatter.Format(context.Background(), completeInput(), nil)
	require.Error(t, err)

	assert.Equal(t, 0, mock.GetCallCount())
}

func TestFormatIncompletePRD(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: `{"business_need": "", "requirements": []}`},
		},
	}
	formatter := agent.NewFormattingAgent(mock, nil)

	_, err := formatter.Format(context.Background(), completeInput(), validOutcome())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestFormatUnparsableResponse(t *testing.T) {
	mock := &testutil.MockLLMClient{
		Responses: []*llm.Response{
			{Content: "Here is your PRD in prose form."},
		},
	}
	formatter := agent.NewFormattingAgent(mock, nil)

	_, err := formatter.Format(context.Background(), completeInput(), validOutcome())
	require.Error(t, err)
}
