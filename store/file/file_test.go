package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/portgraph/engine/graph"
	"github.com/portgraph/engine/store"
)

func sampleCheckpoint(id, rootNodeID string, at time.Time) *store.Checkpoint {
	return &store.Checkpoint{
		ID:         id,
		RootNodeID: rootNodeID,
		SavedAt:    at,
		State: &graph.ExecutionCheckpoint{
			RootNodeID: rootNodeID,
			Ready:      []string{"A"},
			Completed:  []string{},
		},
	}
}

func TestFileCheckpointStore_New(t *testing.T) {
	t.Parallel()

	t.Run("creates directory if missing", func(t *testing.T) {
		t.Parallel()
		tempDir := t.TempDir()
		checkpointPath := filepath.Join(tempDir, "checkpoints")

		s, err := NewFileCheckpointStore(checkpointPath)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if s == nil {
			t.Fatal("Store should not be nil")
		}
		if _, err := os.Stat(checkpointPath); os.IsNotExist(err) {
			t.Error("Directory should have been created")
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		t.Parallel()
		tempDir := t.TempDir()

		if err := os.MkdirAll(tempDir, 0o755); err != nil {
			t.Fatalf("Failed to create test directory: %v", err)
		}

		s, err := NewFileCheckpointStore(tempDir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		if s == nil {
			t.Fatal("Store should not be nil")
		}
	})
}

func TestFileCheckpointStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()

	t.Run("save creates file", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		cp := sampleCheckpoint("user-session-123", "LoginFlow", now)
		if err := fs.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		filename := filepath.Join(fs.(*FileCheckpointStore).path, cp.ID+".json")
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Error("Checkpoint file should exist")
		}
	})

	t.Run("load returns saved checkpoint", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		cp := sampleCheckpoint("user-session-123", "LoginFlow", now)
		cp.State.Completed = []string{"A"}
		if err := fs.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		loaded, err := fs.Load(ctx, cp.ID)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if loaded.ID != cp.ID {
			t.Errorf("Expected ID %s, got %s", cp.ID, loaded.ID)
		}
		if loaded.RootNodeID != cp.RootNodeID {
			t.Errorf("Expected RootNodeID %s, got %s", cp.RootNodeID, loaded.RootNodeID)
		}
		if len(loaded.State.Completed) != 1 || loaded.State.Completed[0] != "A" {
			t.Errorf("State not preserved: %v", loaded.State.Completed)
		}
	})

	t.Run("save node state map", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		cp := sampleCheckpoint("order-flow-456", "PaymentFlow", now)
		cp.State.NodeState = map[string]map[string]any{
			"Processor": {
				"order_id":     789,
				"items":        []string{"widget", "gadget"},
				"total_amount": 99.99,
			},
		}

		if err := fs.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save checkpoint with node state: %v", err)
		}

		loaded, err := fs.Load(ctx, cp.ID)
		if err != nil {
			t.Fatalf("Failed to load checkpoint with node state: %v", err)
		}

		state, ok := loaded.State.NodeState["Processor"]
		if !ok {
			t.Fatal("Processor node state missing")
		}
		if state["order_id"] != float64(789) { // JSON numbers decode as float64
			t.Errorf("Expected order_id 789, got %v", state["order_id"])
		}
	})

	t.Run("load missing checkpoint", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := fs.Load(ctx, "does-not-exist"); err == nil {
			t.Error("Should return error for missing checkpoint")
		}
	})
}

func TestFileCheckpointStore_List(t *testing.T) {
	t.Parallel()

	t.Run("filters by root node ID", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		ctx := context.Background()
		root := "WebSession"
		base := time.Now()

		if err := fs.Save(ctx, sampleCheckpoint("page-visit-1", root, base)); err != nil {
			t.Fatalf("Failed to save page-visit-1: %v", err)
		}
		if err := fs.Save(ctx, sampleCheckpoint("page-visit-2", root, base.Add(time.Second))); err != nil {
			t.Fatalf("Failed to save page-visit-2: %v", err)
		}

		results, err := fs.List(ctx, root)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 checkpoints for root, got %d", len(results))
		}
		if results[0].SavedAt.After(results[1].SavedAt) {
			t.Error("Results should be sorted oldest first")
		}
	})

	t.Run("empty result for unknown root", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		results, err := fs.List(context.Background(), "unknown-root")
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected 0 checkpoints, got %d", len(results))
		}
	})
}

func TestFileCheckpointStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes existing checkpoint", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		ctx := context.Background()
		storePath := fs.(*FileCheckpointStore).path

		cp := sampleCheckpoint("temp-checkpoint", "Temp", time.Now())
		if err := fs.Save(ctx, cp); err != nil {
			t.Fatalf("Failed to save checkpoint: %v", err)
		}

		filename := filepath.Join(storePath, cp.ID+".json")
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Fatal("Checkpoint file should exist")
		}

		if err := fs.Delete(ctx, cp.ID); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if _, err := os.Stat(filename); !os.IsNotExist(err) {
			t.Error("Checkpoint file should be deleted")
		}
		if _, err := fs.Load(ctx, cp.ID); err == nil {
			t.Error("Should not be able to load deleted checkpoint")
		}
	})

	t.Run("deleting non-existing is no-op", func(t *testing.T) {
		t.Parallel()

		fs, err := NewFileCheckpointStore(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if err := fs.Delete(context.Background(), "never-existed"); err != nil {
			t.Errorf("Delete should not error for non-existing checkpoint: %v", err)
		}
	})
}

func TestFileCheckpointStore_Clear(t *testing.T) {
	t.Parallel()

	fs, err := NewFileCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ctx := context.Background()
	rootA := "RootAlpha"
	rootB := "RootBeta"
	now := time.Now()

	for _, id := range []string{"alpha-1", "alpha-2"} {
		if err := fs.Save(ctx, sampleCheckpoint(id, rootA, now)); err != nil {
			t.Fatalf("Failed to save %s: %v", id, err)
		}
	}
	if err := fs.Save(ctx, sampleCheckpoint("beta-1", rootB, now)); err != nil {
		t.Fatalf("Failed to save beta-1: %v", err)
	}

	alphaList, _ := fs.List(ctx, rootA)
	if len(alphaList) != 2 {
		t.Fatalf("Expected 2 alpha checkpoints, got %d", len(alphaList))
	}

	if err := fs.Clear(ctx, rootA); err != nil {
		t.Fatalf("Failed to clear root: %v", err)
	}

	alphaList, _ = fs.List(ctx, rootA)
	if len(alphaList) != 0 {
		t.Errorf("Expected 0 alpha checkpoints after clear, got %d", len(alphaList))
	}

	betaList, _ := fs.List(ctx, rootB)
	if len(betaList) != 1 {
		t.Errorf("Expected 1 beta checkpoint, got %d", len(betaList))
	}
}

func TestFileCheckpointStore_Permissions(t *testing.T) {
	t.Parallel()

	if os.Getenv("CI") != "" {
		t.Skip("Skipping permission test in CI")
	}

	fs, err := NewFileCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ctx := context.Background()
	storePath := fs.(*FileCheckpointStore).path

	cp := sampleCheckpoint("secret-checkpoint", "Auth", time.Now())
	if err := fs.Save(ctx, cp); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	filename := filepath.Join(storePath, cp.ID+".json")
	fileInfo, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	if os.Getenv("GOOS") != "windows" {
		perm := fileInfo.Mode().Perm()
		if perm != 0o600 && perm != 0o644 {
			t.Logf("File permissions: %o (expected 0600 or 0644 due to umask)", perm)
		}
	}
}

func TestFileCheckpointStore_Concurrent(t *testing.T) {
	t.Parallel()

	fs, err := NewFileCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ctx := context.Background()
	numWorkers := 5
	checkpointsPerWorker := 3

	done := make(chan bool, numWorkers)
	errs := make(chan error, numWorkers)

	for i := range numWorkers {
		go func(workerID int) {
			defer func() { done <- true }()

			for j := range checkpointsPerWorker {
				id := fmt.Sprintf("worker-%d-checkpoint-%d", workerID, j)
				cp := sampleCheckpoint(id, fmt.Sprintf("Worker-%d", workerID), time.Now())

				if err := fs.Save(ctx, cp); err != nil {
					errs <- fmt.Errorf("worker %d save failed: %v", workerID, err)
					return
				}
				loaded, err := fs.Load(ctx, cp.ID)
				if err != nil {
					errs <- fmt.Errorf("worker %d load failed: %v", workerID, err)
					return
				}
				if loaded.ID != cp.ID {
					errs <- fmt.Errorf("worker %d ID mismatch", workerID)
					return
				}
			}
		}(i)
	}

	for range numWorkers {
		select {
		case <-done:
		case err := <-errs:
			t.Errorf("Worker error: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("Test timed out")
		}
	}

	expectedTotal := numWorkers * checkpointsPerWorker
	files, err := os.ReadDir(fs.(*FileCheckpointStore).path)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}

	jsonCount := 0
	for _, f := range files {
		if !f.IsDir() && filepath.Ext(f.Name()) == ".json" {
			jsonCount++
		}
	}
	if jsonCount != expectedTotal {
		t.Errorf("Expected %d checkpoint files, got %d", expectedTotal, jsonCount)
	}
}
