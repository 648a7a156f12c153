// Package memory provides an in-process CheckpointStore backed by a
// guarded map. It is the default choice for tests and for short-lived
// runs that don't need to survive a process restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/portgraph/engine/store"
)

// MemoryCheckpointStore is an in-memory store.CheckpointStore.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
}

// NewMemoryCheckpointStore returns an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]*store.Checkpoint)}
}

// Save stores a copy of cp, replacing any existing entry with the same ID.
func (s *MemoryCheckpointStore) Save(_ context.Context, cp *store.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("memory: checkpoint ID must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cp
	if cp.State != nil {
		clone.State = cp.State.Clone()
	}
	s.checkpoints[cp.ID] = &clone
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("memory: checkpoint %q not found", checkpointID)
	}
	clone := *cp
	if cp.State != nil {
		clone.State = cp.State.Clone()
	}
	return &clone, nil
}

// List returns every checkpoint saved for rootNodeID, oldest first.
func (s *MemoryCheckpointStore) List(_ context.Context, rootNodeID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*store.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.RootNodeID == rootNodeID {
			clone := *cp
			if cp.State != nil {
				clone.State = cp.State.Clone()
			}
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.Before(out[j].SavedAt) })
	return out, nil
}

// Delete removes a single checkpoint. Deleting a missing ID is a no-op.
func (s *MemoryCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, checkpointID)
	return nil
}

// Clear removes every checkpoint saved for rootNodeID.
func (s *MemoryCheckpointStore) Clear(_ context.Context, rootNodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cp := range s.checkpoints {
		if cp.RootNodeID == rootNodeID {
			delete(s.checkpoints, id)
		}
	}
	return nil
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)
