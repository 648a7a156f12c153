// Package store defines the CheckpointStore contract used to persist
// graph.ExecutionCheckpoint snapshots across process restarts, and
// provides a Loader adapter so an Executor can resume directly from
// any backend.
//
// # Backends
//
// Five backends implement CheckpointStore:
//
//   - memory: an in-process map, the default for tests and short runs.
//   - file: one JSON file per checkpoint, for single-machine durability
//     without a database.
//   - sqlite: a local SQLite database, for queryable local storage.
//   - postgres: PostgreSQL, for production deployments shared across
//     processes.
//   - redis: Redis, for distributed deployments that want expiring,
//     shared checkpoint storage.
//
// # Usage
//
//	s := memory.NewMemoryCheckpointStore()
//	cp, err := ex.CookFlow(ctx, root, "Loop", nil)
//	if err != nil {
//	    if ce := new(graph.ComputeFailureError); errors.As(err, &ce) {
//	        _ = s.Save(ctx, &store.Checkpoint{
//	            ID:         runID,
//	            RootNodeID: "Loop",
//	            SavedAt:    time.Now(),
//	            State:      cp,
//	        })
//	    }
//	}
//
//	// later, resume the same run:
//	final, err := ex.ResumeFromStore(ctx, root, store.Loader{Store: s}, runID)
package store
