// Package sqlite provides a CheckpointStore backed by a local SQLite
// database, for single-machine deployments that want durable,
// queryable checkpoint storage without running a database server.
//
// # Usage
//
//	s, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{
//		Path:      "./checkpoints.db",
//		TableName: "checkpoints", // optional, defaults to "checkpoints"
//	})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Save(ctx, &store.Checkpoint{
//		ID:         runID,
//		RootNodeID: "Loop",
//		SavedAt:    time.Now(),
//		State:      cp,
//	})
//
// InitSchema runs automatically from NewSqliteCheckpointStore; call it
// again only if you opened the database through some other path.
package sqlite
