package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and NATS-less runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Requirement
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*Requirement),
	}
}

// Put stores a requirement, assigning an ID if it has none.
func (s *MemoryStore) Put(_ context.Context, r *Requirement) error {
	if r.ID == "" {
		r.ID = NewEntityID(EntityTypeRequirement).String()
	}
	if _, err := ParseEntityID(r.ID); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r.ID] = clone(r)
	return nil
}

// Get retrieves a requirement by ID string.
func (s *MemoryStore) Get(_ context.Context, id string) (*Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

// List returns all stored requirements, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]*Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requirements := make([]*Requirement, 0, len(s.data))
	for _, r := range s.data {
		requirements = append(requirements, clone(r))
	}
	sort.Slice(requirements, func(i, j int) bool {
		return requirements[i].CreatedAt.Before(requirements[j].CreatedAt)
	})
	return requirements, nil
}

// UpdateStatus sets the overall status of a requirement.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status Status, errMsg string) error {
	return s.update(id, func(r *Requirement) {
		r.Status = status
		r.Error = errMsg
		r.UpdatedAt = time.Now()
	})
}

// UpdateStep sets the status of one pipeline step.
func (s *MemoryStore) UpdateStep(_ context.Context, id, step string, status Status, errMsg string) error {
	return s.update(id, func(r *Requirement) {
		applyStep(r, step, status, errMsg)
	})
}

// AddLink records an artifact URL on a requirement.
func (s *MemoryStore) AddLink(_ context.Context, id string, links Links) error {
	return s.update(id, func(r *Requirement) {
		mergeLinks(r, links)
	})
}

func (s *MemoryStore) update(id string, mutate func(*Requirement)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.data[id]
	if !ok {
		return ErrNotFound
	}
	mutate(r)
	return nil
}

// clone deep-copies a requirement so callers can't mutate stored state.
func clone(r *Requirement) *Requirement {
	data, _ := json.Marshal(r)
	var out Requirement
	_ = json.Unmarshal(data, &out)
	return &out
}
