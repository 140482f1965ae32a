package storage

import (
	"context"
	"time"
)

// Store provides requirement tracking operations. The NATS KV implementation
// is used in production; MemoryStore backs tests and NATS-less runs.
type Store interface {
	// Put stores a requirement, assigning an ID if it has none.
	Put(ctx context.Context, r *Requirement) error

	// Get retrieves a requirement by ID string. Returns ErrNotFound if
	// the requirement does not exist.
	Get(ctx context.Context, id string) (*Requirement, error)

	// List returns all stored requirements.
	List(ctx context.Context) ([]*Requirement, error)

	// UpdateStatus sets the overall status of a requirement.
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error

	// UpdateStep sets the status of one pipeline step.
	UpdateStep(ctx context.Context, id, step string, status Status, errMsg string) error

	// AddLink records an artifact URL on a requirement.
	AddLink(ctx context.Context, id string, links Links) error
}

// applyStep mutates a requirement's step record. Shared between backends.
func applyStep(r *Requirement, step string, status Status, errMsg string) {
	s := r.StepByName(step)
	if s == nil {
		r.Steps = append(r.Steps, Step{Name: step})
		s = &r.Steps[len(r.Steps)-1]
	}

	now := time.Now()
	switch status {
	case StatusProcessing:
		if s.StartedAt == nil {
			s.StartedAt = &now
		}
	case StatusCompleted, StatusFailed:
		if s.StartedAt == nil {
			s.StartedAt = &now
		}
		s.CompletedAt = &now
	}
	s.Status = status
	s.Error = errMsg
	r.UpdatedAt = now
}

// mergeLinks overlays non-empty link fields onto a requirement.
func mergeLinks(r *Requirement, links Links) {
	if links.DocumentURL != "" {
		r.Links.DocumentURL = links.DocumentURL
	}
	if links.TicketURL != "" {
		r.Links.TicketURL = links.TicketURL
	}
	if links.DesignURL != "" {
		r.Links.DesignURL = links.DesignURL
	}
	r.UpdatedAt = time.Now()
}
