// Package file provides a CheckpointStore backed by one JSON file per
// checkpoint in a directory, for single-process deployments that need
// durability across restarts without a database.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/portgraph/engine/store"
)

// FileCheckpointStore persists each checkpoint as "<path>/<ID>.json".
type FileCheckpointStore struct {
	path string
}

// NewFileCheckpointStore returns a store rooted at path, creating the
// directory (and its parents) if it doesn't already exist.
func NewFileCheckpointStore(path string) (store.CheckpointStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("file: unable to create checkpoint directory %q: %w", path, err)
	}
	return &FileCheckpointStore{path: path}, nil
}

func (s *FileCheckpointStore) filename(checkpointID string) string {
	return filepath.Join(s.path, checkpointID+".json")
}

// Save writes cp as a 0600-permissioned JSON file, replacing any
// existing file for the same ID.
func (s *FileCheckpointStore) Save(_ context.Context, cp *store.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("file: checkpoint ID must not be empty")
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("file: failed to marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(s.filename(cp.ID), data, 0o600); err != nil {
		return fmt.Errorf("file: failed to write checkpoint: %w", err)
	}
	return nil
}

// Load reads and decodes the checkpoint file for checkpointID.
func (s *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(s.filename(checkpointID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file: checkpoint %q not found", checkpointID)
		}
		return nil, fmt.Errorf("file: failed to read checkpoint: %w", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("file: failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// List scans the directory and returns every checkpoint whose
// RootNodeID matches, oldest first.
func (s *FileCheckpointStore) List(ctx context.Context, rootNodeID string) ([]*store.Checkpoint, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("file: failed to read checkpoint directory: %w", err)
	}

	var out []*store.Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		cp, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		if cp.RootNodeID == rootNodeID {
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.Before(out[j].SavedAt) })
	return out, nil
}

// Delete removes the checkpoint file. Deleting a missing ID is a no-op.
func (s *FileCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	if err := os.Remove(s.filename(checkpointID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file: failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes every checkpoint file whose RootNodeID matches.
func (s *FileCheckpointStore) Clear(ctx context.Context, rootNodeID string) error {
	matches, err := s.List(ctx, rootNodeID)
	if err != nil {
		return err
	}
	for _, cp := range matches {
		if err := s.Delete(ctx, cp.ID); err != nil {
			return err
		}
	}
	return nil
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)
