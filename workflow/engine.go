package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/reqflow/agent"
	"github.com/c360studio/reqflow/integrations"
)

// DefaultStageTimeout bounds each stage's external calls.
const DefaultStageTimeout = 3 * time.Minute

// Validator produces a validation verdict for a submission.
type Validator interface {
	Validate(ctx context.Context, input *agent.RequirementInput) (*agent.ValidationResult, error)
}

// Formatter turns a validated submission into a structured PRD.
type Formatter interface {
	Format(ctx context.Context, input *agent.RequirementInput, validation *agent.ValidationResult) (*agent.FormattedPRD, error)
}

// DocumentDrafter drafts document and ticket content from a PRD.
type DocumentDrafter interface {
	CreateDocuments(ctx context.Context, prd *agent.FormattedPRD) (*agent.DocumentContent, error)
}

// DesignDrafter drafts a technical design from a PRD and its documents.
type DesignDrafter interface {
	BuildDesign(ctx context.Context, prd *agent.FormattedPRD, docs *agent.DocumentContent) (*agent.DesignContent, error)
}

// DocumentCreator creates a document in the document store.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, title, content string) (*integrations.ArtifactResult, error)
}

// TicketCreator creates a ticket in the issue tracker.
type TicketCreator interface {
	CreateTicket(ctx context.Context, ticket integrations.TicketRequest) (*integrations.ArtifactResult, error)
}

// PageCreator creates a page in the wiki.
type PageCreator interface {
	CreatePage(ctx context.Context, space, title, content string) (*integrations.ArtifactResult, error)
}

// StatusSink receives stage-level status transitions. It is write-only:
// the engine never reads it back, and sink failures never affect routing.
type StatusSink interface {
	StageStarted(ctx context.Context, id, stage string)
	StageCompleted(ctx context.Context, id, stage string)
	StageFailed(ctx context.Context, id, stage, errMsg string)
}

// Options configures an Engine.
type Options struct {
	Validator Validator
	Formatter Formatter
	Drafter   DocumentDrafter
	Designer  DesignDrafter

	Docs    DocumentCreator
	Tracker TicketCreator
	Wiki    PageCreator

	// Sink is optional; nil disables status reporting.
	Sink StatusSink

	// StageTimeout bounds each stage's external calls. Zero means
	// DefaultStageTimeout.
	StageTimeout time.Duration

	Logger *slog.Logger
}

// Engine owns the stage graph and drives one execution at a time per call.
// A single Engine is safe for concurrent Execute calls: each execution owns
// an independent State.
type Engine struct {
	validator Validator
	formatter Formatter
	drafter   DocumentDrafter
	designer  DesignDrafter

	docs    DocumentCreator
	tracker TicketCreator
	wiki    PageCreator

	sink         StatusSink
	stageTimeout time.Duration
	logger       *slog.Logger
}

// New builds an Engine from its collaborators.
func New(opts Options) (*Engine, error) {
	if opts.Validator == nil || opts.Formatter == nil || opts.Drafter == nil || opts.Designer == nil {
		return nil, fmt.Errorf("all four agents are required")
	}
	if opts.Docs == nil || opts.Tracker == nil || opts.Wiki == nil {
		return nil, fmt.Errorf("document store, tracker, and wiki clients are required")
	}
	timeout := opts.StageTimeout
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		validator:    opts.Validator,
		formatter:    opts.Formatter,
		drafter:      opts.Drafter,
		designer:     opts.Designer,
		docs:         opts.Docs,
		tracker:      opts.Tracker,
		wiki:         opts.Wiki,
		sink:         opts.Sink,
		stageTimeout: timeout,
		logger:       logger,
	}, nil
}

// transitions is the unconditional edge table. The validation edge is
// decided by routeAfterValidation instead.
var transitions = map[Stage]Stage{
	StageFormatting:       StageDocumentCreation,
	StageDocumentCreation: StageDesignDocument,
	StageDesignDocument:   StageComplete,
}

// Execute runs one submission through the pipeline and projects the result.
// It always reaches a terminal stage; stage panics and errors are recorded
// into the state, never propagated.
func (e *Engine) Execute(ctx context.Context, input *agent.RequirementInput) (*Result, error) {
	return e.ExecuteRun(ctx, uuid.NewString(), input)
}

// ExecuteRun is Execute with a caller-chosen run ID, used when the
// submission is already tracked in the store under that ID.
func (e *Engine) ExecuteRun(ctx context.Context, runID string, input *agent.RequirementInput) (*Result, error) {
	if input == nil {
		return nil, fmt.Errorf("requirement input is required")
	}

	state := NewState(input)
	e.logger.Info("workflow started", "run_id", runID)

	for {
		stage := state.Current
		e.invoke(ctx, runID, state)
		if stage.Terminal() {
			break
		}
		state.Current = e.next(stage, state)
	}

	result := Project(state)
	e.logger.Info("workflow finished",
		"run_id", runID,
		"final_stage", result.FinalStage,
		"success", result.Success)
	return result, nil
}

// next selects the stage after the one just executed. A set terminal error
// forces the error stage from anywhere.
func (e *Engine) next(stage Stage, state *State) Stage {
	if stage == StageValidation {
		return routeAfterValidation(state)
	}
	if state.Err != "" {
		return StageError
	}
	if n, ok := transitions[stage]; ok {
		return n
	}
	state.Err = fmt.Sprintf("no transition defined from stage %s", stage)
	return StageError
}

// invoke runs one stage function, catching panics at the invocation
// boundary so every execution terminates. Every invocation leaves exactly
// one trace entry, including the panic path.
func (e *Engine) invoke(ctx context.Context, runID string, state *State) {
	stage := state.Current
	traceLen := len(state.Trace)

	defer func() {
		if r := recover(); r != nil {
			state.Err = fmt.Sprintf("stage %s panicked: %v", stage, r)
			if len(state.Trace) == traceLen {
				state.appendTrace(stageRole(stage),
					fmt.Sprintf("Error in %s stage: %v", stage, r))
			}
			e.logger.Error("stage panic recovered",
				"run_id", runID, "stage", stage, "panic", r)
			e.reportFailed(ctx, runID, stage, state.Err)
		}
	}()

	switch stage {
	case StageValidation:
		e.runStage(ctx, runID, state, e.runValidation)
	case StageFormatting:
		e.runStage(ctx, runID, state, e.runFormatting)
	case StageDocumentCreation:
		e.runStage(ctx, runID, state, e.runDocumentCreation)
	case StageDesignDocument:
		e.runStage(ctx, runID, state, e.runDesignDocument)
	case StageComplete:
		state.appendTrace("workflow", "Requirement processing completed successfully.")
	case StageError:
		msg := state.Err
		if msg == "" && state.Validation != nil && !state.Validation.IsValid {
			msg = "validation failed: " + state.Validation.Feedback
		}
		state.appendTrace("workflow", "Requirement processing stopped: "+msg)
	default:
		state.Err = fmt.Sprintf("unknown stage %s", stage)
	}
}

// stageRole is the trace role that speaks for a stage when the stage
// function itself did not get far enough to record anything.
func stageRole(stage Stage) string {
	switch stage {
	case StageValidation:
		return "requirement-validator"
	case StageFormatting:
		return "prd-formatter"
	case StageDocumentCreation:
		return "document-writer"
	case StageDesignDocument:
		return "design-writer"
	}
	return "workflow"
}

// runStage applies the per-stage timeout and status reporting around one
// stage function. A returned error is recorded as the terminal error.
func (e *Engine) runStage(ctx context.Context, runID string, state *State, fn func(context.Context, *State) error) {
	stage := state.Current
	e.reportStarted(ctx, runID, stage)

	stageCtx, cancel := context.WithTimeout(ctx, e.stageTimeout)
	defer cancel()

	if err := fn(stageCtx, state); err != nil {
		state.Err = fmt.Sprintf("stage %s failed: %v", stage, err)
		state.appendTrace(stageRole(stage), fmt.Sprintf("Error in %s stage: %v", stage, err))
		e.logger.Warn("stage failed", "run_id", runID, "stage", stage, "error", err)
		e.reportFailed(ctx, runID, stage, err.Error())
		return
	}
	e.reportCompleted(ctx, runID, stage)
}

func (e *Engine) runValidation(ctx context.Context, state *State) error {
	result, err := e.validator.Validate(ctx, state.Input)
	if err != nil || result == nil {
		// The validation boundary must always yield a well-formed shape.
		result = &agent.ValidationResult{
			IsValid:  false,
			Feedback: "Validation could not be completed. Please try submitting again.",
		}
	}
	state.Validation = result
	if result.IsValid {
		state.appendTrace("requirement-validator", "Submission is valid and ready for formatting.")
	} else {
		state.appendTrace("requirement-validator", "Submission is incomplete: "+result.Feedback)
	}
	return nil
}

func (e *Engine) runFormatting(ctx context.Context, state *State) error {
	// Defensive re-check of the router's precondition.
	if state.Validation == nil || !state.Validation.IsValid {
		return fmt.Errorf("formatting invoked without a valid submission")
	}
	prd, err := e.formatter.Format(ctx, state.Input, state.Validation)
	if err != nil {
		return err
	}
	state.PRD = prd
	state.appendTrace("prd-formatter",
		fmt.Sprintf("Formatted PRD with %d requirement entries.", len(prd.Requirements)))
	return nil
}

func (e *Engine) runDocumentCreation(ctx context.Context, state *State) error {
	if state.PRD == nil {
		return fmt.Errorf("document creation invoked without a formatted PRD")
	}

	content, err := e.drafter.CreateDocuments(ctx, state.PRD)
	if err != nil {
		return err
	}
	state.Drafts = content

	// Document store and tracker are independent: one failing never blocks
	// or cancels the other.
	results := &DocumentResults{}
	var g errgroup.Group
	g.Go(func() error {
		res, err := e.docs.CreateDocument(ctx, content.DocumentTitle, content.DocumentBody)
		if err != nil {
			res = integrations.Failure(err)
		}
		results.Document = res
		return nil
	})
	g.Go(func() error {
		res, err := e.tracker.CreateTicket(ctx, integrations.TicketRequest{
			Summary:     content.TicketSummary,
			Description: content.TicketDescription,
			Labels:      content.TicketLabels,
			DueDate:     state.PRD.Timeline.DeliveryDate,
		})
		if err != nil {
			res = integrations.Failure(err)
		}
		results.Ticket = res
		return nil
	})
	g.Wait()

	state.Documents = results
	state.appendTrace("document-writer", documentTraceSummary(results))
	return nil
}

func documentTraceSummary(results *DocumentResults) string {
	part := func(name string, res *integrations.ArtifactResult) string {
		if res == nil {
			return name + " skipped"
		}
		if res.Success {
			return name + " created: " + res.URL
		}
		return name + " failed: " + res.Error
	}
	return strings.Join([]string{
		part("document", results.Document),
		part("ticket", results.Ticket),
	}, "; ")
}

func (e *Engine) runDesignDocument(ctx context.Context, state *State) error {
	if state.PRD == nil || state.Documents == nil {
		return fmt.Errorf("design stage invoked without upstream results")
	}

	design, err := e.designer.BuildDesign(ctx, state.PRD, state.Drafts)
	// Design drafting and page creation failures are captured per-artifact,
	// not escalated.
	if err != nil {
		state.Design = integrations.Failure(err)
		state.appendTrace("design-writer", "Design document failed: "+err.Error())
		return nil
	}

	title := "Design: " + designTitle(state.PRD)
	res, err := e.wiki.CreatePage(ctx, "", title, design.RenderMarkdown())
	if err != nil {
		res = integrations.Failure(err)
	}
	state.Design = res

	if res.Success {
		state.appendTrace("design-writer", "Design document created: "+res.URL)
	} else {
		state.appendTrace("design-writer", "Design document failed: "+res.Error)
	}
	return nil
}

func designTitle(prd *agent.FormattedPRD) string {
	if len(prd.Requirements) > 0 && prd.Requirements[0].Name != "" {
		return prd.Requirements[0].Name
	}
	return truncate(prd.BusinessNeed, 60)
}

// truncate shortens s to at most max runes without splitting a
// multi-byte character.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func (e *Engine) reportStarted(ctx context.Context, runID string, stage Stage) {
	if e.sink != nil {
		e.sink.StageStarted(ctx, runID, string(stage))
	}
}

func (e *Engine) reportCompleted(ctx context.Context, runID string, stage Stage) {
	if e.sink != nil {
		e.sink.StageCompleted(ctx, runID, string(stage))
	}
}

func (e *Engine) reportFailed(ctx context.Context, runID string, stage Stage, msg string) {
	if e.sink != nil {
		e.sink.StageFailed(ctx, runID, string(stage), msg)
	}
}
