package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// KVStore is a Store backed by a NATS JetStream key-value bucket.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore creates a KVStore with the given JetStream context,
// creating the requirements bucket if it doesn't exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	kv, err := getOrCreateBucket(ctx, js, BucketRequirements)
	if err != nil {
		return nil, fmt.Errorf("create requirements bucket: %w", err)
	}
	return &KVStore{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Reqflow requirement tracking",
		History:     5, // Keep last 5 revisions
	})
}

// Put stores a requirement, assigning an ID if it has none.
func (s *KVStore) Put(ctx context.Context, r *Requirement) error {
	if r.ID == "" {
		r.ID = NewEntityID(EntityTypeRequirement).String()
	}
	id, err := ParseEntityID(r.ID)
	if err != nil {
		return fmt.Errorf("parse requirement ID: %w", err)
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal requirement: %w", err)
	}

	if _, err := s.kv.Put(ctx, id.ID, data); err != nil {
		return fmt.Errorf("store requirement: %w", err)
	}
	return nil
}

// Get retrieves a requirement by ID string.
func (s *KVStore) Get(ctx context.Context, idStr string) (*Requirement, error) {
	id, err := ParseEntityID(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse requirement ID: %w", err)
	}

	entry, err := s.kv.Get(ctx, id.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get requirement: %w", err)
	}

	var r Requirement
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return nil, fmt.Errorf("unmarshal requirement: %w", err)
	}
	return &r, nil
}

// List returns all stored requirements.
func (s *KVStore) List(ctx context.Context) ([]*Requirement, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list requirement keys: %w", err)
	}

	requirements := make([]*Requirement, 0, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if isNotFound(err) {
				continue // Deleted between Keys and Get
			}
			return nil, fmt.Errorf("get requirement %s: %w", key, err)
		}

		var r Requirement
		if err := json.Unmarshal(entry.Value(), &r); err != nil {
			return nil, fmt.Errorf("unmarshal requirement %s: %w", key, err)
		}
		requirements = append(requirements, &r)
	}
	return requirements, nil
}

// UpdateStatus sets the overall status of a requirement.
func (s *KVStore) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	return s.update(ctx, id, func(r *Requirement) {
		r.Status = status
		r.Error = errMsg
		r.UpdatedAt = time.Now()
	})
}

// UpdateStep sets the status of one pipeline step.
func (s *KVStore) UpdateStep(ctx context.Context, id, step string, status Status, errMsg string) error {
	return s.update(ctx, id, func(r *Requirement) {
		applyStep(r, step, status, errMsg)
	})
}

// AddLink records an artifact URL on a requirement.
func (s *KVStore) AddLink(ctx context.Context, id string, links Links) error {
	return s.update(ctx, id, func(r *Requirement) {
		mergeLinks(r, links)
	})
}

// update applies a mutation with read-modify-write semantics.
func (s *KVStore) update(ctx context.Context, idStr string, mutate func(*Requirement)) error {
	r, err := s.Get(ctx, idStr)
	if err != nil {
		return err
	}

	mutate(r)

	id, err := ParseEntityID(r.ID)
	if err != nil {
		return fmt.Errorf("parse requirement ID: %w", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal requirement: %w", err)
	}

	if _, err := s.kv.Put(ctx, id.ID, data); err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound)
}
