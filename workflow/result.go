package workflow

import "github.com/c360studio/reqflow/agent"

// Links holds the URLs of the created artifacts. Missing artifacts project
// to empty strings.
type Links struct {
	DocumentURL string `json:"document_url"`
	TicketURL   string `json:"ticket_url"`
	DesignURL   string `json:"design_url"`
}

// Result is the read-only projection of a finished execution returned to
// the caller.
type Result struct {
	Success    bool                    `json:"success"`
	FinalStage Stage                   `json:"final_stage"`
	Validation *agent.ValidationResult `json:"validation_result,omitempty"`
	Links      Links                   `json:"links"`
	Trace      []TraceEntry            `json:"trace"`
	Error      string                  `json:"error,omitempty"`
}

// Project maps a terminal state to its result. It is a pure function:
// projecting the same state twice yields identical output.
func Project(state *State) *Result {
	result := &Result{
		Success:    state.Current == StageComplete,
		FinalStage: state.Current,
		Validation: state.Validation,
		Trace:      state.Trace,
		Error:      state.Err,
	}
	if state.Documents != nil {
		if d := state.Documents.Document; d != nil && d.Success {
			result.Links.DocumentURL = d.URL
		}
		if t := state.Documents.Ticket; t != nil && t.Success {
			result.Links.TicketURL = t.URL
		}
	}
	if state.Design != nil && state.Design.Success {
		result.Links.DesignURL = state.Design.URL
	}
	return result
}
