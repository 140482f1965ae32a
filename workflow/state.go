// Package workflow implements the orchestration core: a small state machine
// that drives a requirement submission through validation, formatting,
// document creation, and design drafting, then projects the accumulated
// state into a compact result.
package workflow

import (
	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/integrations"
)

// Stage identifies one step of the pipeline.
type Stage string

const (
	StageValidation       Stage = "validation"
	StageFormatting       Stage = "formatting"
	StageDocumentCreation Stage = "document_creation"
	StageDesignDocument   Stage = "design_document"
	StageComplete         Stage = "complete"
	StageError            Stage = "error"
)

// Terminal reports whether the stage has no outgoing transitions.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// TraceEntry is one append-only audit record. Entries are appended in
// stage-execution order and never reordered.
type TraceEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DocumentResults records the per-artifact outcomes of the document
// creation stage. Each artifact fails independently.
type DocumentResults struct {
	Document *integrations.ArtifactResult `json:"document,omitempty"`
	Ticket   *integrations.ArtifactResult `json:"ticket,omitempty"`
}

// State is the accumulating record threaded through one execution. It is
// owned by the engine for the duration of that execution and never shared
// across executions.
type State struct {
	Input      *agent.RequirementInput
	Validation *agent.ValidationResult
	PRD        *agent.FormattedPRD
	Drafts     *agent.DocumentContent
	Documents  *DocumentResults
	Design     *integrations.ArtifactResult

	Trace   []TraceEntry
	Current Stage
	Err     string
}

// NewState builds a fresh execution state starting at the validation stage.
func NewState(input *agent.RequirementInput) *State {
	return &State{
		Input:   input,
		Current: StageValidation,
	}
}

func (s *State) appendTrace(role, content string) {
	s.Trace = append(s.Trace, TraceEntry{Role: role, Content: content})
}

// routeAfterValidation selects the edge out of the validation stage. A set
// terminal error always wins over the validation outcome.
func routeAfterValidation(s *State) Stage {
	if s.Err != "" {
		return StageError
	}
	if s.Validation == nil || !s.Validation.IsValid {
		return StageError
	}
	return StageFormatting
}
