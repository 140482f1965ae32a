package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/c360studio/reqflow/llm"
	"github.com/c360studio/reqflow/model"
)

// defaultTemperature keeps agent output near-deterministic.
const defaultTemperature = 0.2

// completeJSON sends a system prompt plus a JSON-encoded payload to the
// model and unmarshals the extracted JSON response into out.
func completeJSON(ctx context.Context, client llm.Completer, role model.Role, system string, payload any, temperature float64, out any) error {
	input, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal agent input: %w", err)
	}

	resp, err := client.Complete(ctx, llm.Request{
		Role: role,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: string(input)},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return fmt.Errorf("llm completion: %w", err)
	}

	raw := llm.ExtractJSON(resp.Content)
	if raw == "" {
		return fmt.Errorf("no JSON found in %s response", role)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parse %s response: %w", role, err)
	}
	return nil
}

// SetTemperature overrides the default sampling temperature.
func (a *ValidationAgent) SetTemperature(t float64) { a.temperature = t }

// SetTemperature overrides the default sampling temperature.
func (a *FormattingAgent) SetTemperature(t float64) { a.temperature = t }

// SetTemperature overrides the default sampling temperature.
func (a *DocumentAgent) SetTemperature(t float64) { a.temperature = t }

// SetTemperature overrides the default sampling temperature.
func (a *DesignAgent) SetTemperature(t float64) { a.temperature = t }
