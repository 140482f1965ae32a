package storage

import (
	"strings"
	"testing"
)

func TestEntityIDRoundTrip(t *testing.T) {
	id := NewEntityID(EntityTypeRequirement)

	if id.Type != EntityTypeRequirement {
		t.Errorf("type = %q", id.Type)
	}
	if id.ID == "" {
		t.Fatal("expected generated UUID")
	}

	parsed, err := ParseEntityID(id.String())
	if err != nil {
		t.Fatalf("ParseEntityID: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip mismatch: %v != %v", parsed, id)
	}
}

func TestParseEntityIDErrors(t *testing.T) {
	tests := []string{
		"",
		"no-separator",
		"task:abc", // unknown type
	}

	for _, s := range tests {
		if _, err := ParseEntityID(s); err == nil {
			t.Errorf("ParseEntityID(%q) should fail", s)
		}
	}
}

func TestNewRequirement(t *testing.T) {
	r := NewRequirement("Checkout redesign", "Customers need a faster checkout")

	if !strings.HasPrefix(r.ID, "requirement:") {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Status != StatusPending {
		t.Errorf("status = %q", r.Status)
	}
	if len(r.Steps) != 4 {
		t.Fatalf("expected 4 pipeline steps, got %d", len(r.Steps))
	}
	for i, name := range PipelineSteps() {
		if r.Steps[i].Name != name {
			t.Errorf("step %d = %q, want %q", i, r.Steps[i].Name, name)
		}
		if r.Steps[i].Status != StatusPending {
			t.Errorf("step %q status = %q", name, r.Steps[i].Status)
		}
	}
}

func TestApplyStepTimestamps(t *testing.T) {
	r := NewRequirement("t", "d")

	applyStep(r, StepValidation, StatusProcessing, "")
	step := r.StepByName(StepValidation)
	if step.StartedAt == nil {
		t.Fatal("processing should set StartedAt")
	}
	if step.CompletedAt != nil {
		t.Error("processing should not set CompletedAt")
	}

	applyStep(r, StepValidation, StatusCompleted, "")
	if step.CompletedAt == nil {
		t.Error("completion should set CompletedAt")
	}

	// Failing a step that never started still gets both timestamps.
	applyStep(r, StepFormatting, StatusFailed, "llm unreachable")
	failed := r.StepByName(StepFormatting)
	if failed.StartedAt == nil || failed.CompletedAt == nil {
		t.Error("failed step should carry timestamps")
	}
	if failed.Error != "llm unreachable" {
		t.Errorf("error = %q", failed.Error)
	}

	// Unknown steps are appended rather than dropped.
	applyStep(r, "extra", StatusCompleted, "")
	if r.StepByName("extra") == nil {
		t.Error("unknown step should be appended")
	}
}
