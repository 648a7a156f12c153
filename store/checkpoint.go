package store

import (
	"context"
	"time"

	"github.com/portgraph/engine/graph"
)

// Checkpoint wraps a persisted graph.ExecutionCheckpoint with the
// identifiers a backend needs to address, list, and expire it. The
// Executor itself has no notion of storage; this is the boundary
// where a run's scheduler snapshot becomes something a store can keep.
type Checkpoint struct {
	ID         string                    `json:"id"`
	RootNodeID string                    `json:"root_node_id"`
	SavedAt    time.Time                 `json:"saved_at"`
	State      *graph.ExecutionCheckpoint `json:"state"`
}

// CheckpointStore persists and retrieves Checkpoints. Implementations
// live in subpackages (memory, file, sqlite, redis, postgres) so the
// store package itself stays dependency-free.
type CheckpointStore interface {
	// Save stores cp, replacing any existing checkpoint with the same ID.
	Save(ctx context.Context, cp *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns every checkpoint saved for rootNodeID, oldest first.
	List(ctx context.Context, rootNodeID string) ([]*Checkpoint, error)

	// Delete removes a single checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes every checkpoint saved for rootNodeID.
	Clear(ctx context.Context, rootNodeID string) error
}

// Loader adapts a CheckpointStore into a graph.CheckpointLoader, so an
// Executor can resume a run directly against any backend without the
// graph package importing store (which would cycle back here).
type Loader struct {
	Store CheckpointStore
}

// Load satisfies graph.CheckpointLoader by unwrapping the stored State.
func (l Loader) Load(ctx context.Context, checkpointID string) (*graph.ExecutionCheckpoint, error) {
	cp, err := l.Store.Load(ctx, checkpointID)
	if err != nil {
		return nil, err
	}
	return cp.State, nil
}

var _ graph.CheckpointLoader = Loader{}
