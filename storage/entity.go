// Package storage provides requirement tracking storage for reqflow using
// NATS KV, with an in-process implementation for tests and NATS-less runs.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type of entity stored in KV.
type EntityType string

const (
	EntityTypeRequirement EntityType = "requirement"
)

// BucketRequirements is the KV bucket holding requirement records.
const BucketRequirements = "REQFLOW_REQUIREMENTS"

// EntityID represents a typed entity identifier.
type EntityID struct {
	Type EntityType
	ID   string
}

// String returns the string representation of the entity ID.
func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.ID)
}

// ParseEntityID parses an entity ID string into its components.
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return EntityID{}, fmt.Errorf("invalid entity ID format: %s", s)
	}
	entityType := EntityType(parts[0])
	switch entityType {
	case EntityTypeRequirement:
		return EntityID{Type: entityType, ID: parts[1]}, nil
	default:
		return EntityID{}, fmt.Errorf("unknown entity type: %s", parts[0])
	}
}

// NewEntityID generates a new unique entity ID for the given type.
func NewEntityID(t EntityType) EntityID {
	return EntityID{
		Type: t,
		ID:   uuid.New().String(),
	}
}

// Status represents the processing status of a requirement or a step.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Step names tracked for each requirement, in pipeline order.
const (
	StepValidation       = "validation"
	StepFormatting       = "formatting"
	StepDocumentCreation = "document_creation"
	StepDesignDocument   = "design_document"
)

// PipelineSteps returns the tracked step names in execution order.
func PipelineSteps() []string {
	return []string{
		StepValidation,
		StepFormatting,
		StepDocumentCreation,
		StepDesignDocument,
	}
}

// Step records the progress of one pipeline step.
type Step struct {
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Links holds the artifact URLs created for a requirement.
type Links struct {
	DocumentURL string `json:"document_url,omitempty"`
	TicketURL   string `json:"ticket_url,omitempty"`
	DesignURL   string `json:"design_url,omitempty"`
}

// Requirement is a tracked requirement submission and its pipeline progress.
type Requirement struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	BusinessImpact string    `json:"business_impact,omitempty"`
	TargetDate     string    `json:"target_date,omitempty"`
	Contributors   []string  `json:"contributors,omitempty"`
	Status         Status    `json:"status"`
	Steps          []Step    `json:"steps"`
	Links          Links     `json:"links"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewRequirement constructs a pending requirement with all pipeline steps
// initialized.
func NewRequirement(title, description string) *Requirement {
	now := time.Now()
	names := PipelineSteps()
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name, Status: StatusPending}
	}
	return &Requirement{
		ID:          NewEntityID(EntityTypeRequirement).String(),
		Title:       title,
		Description: description,
		Status:      StatusPending,
		Steps:       steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StepByName returns a pointer to the named step, or nil.
func (r *Requirement) StepByName(name string) *Step {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}
