// Package redis provides a CheckpointStore backed by Redis, for
// distributed deployments that want low-latency, optionally expiring,
// shared checkpoint storage across processes.
//
// # Key layout
//
// Checkpoints are stored under "{prefix}checkpoint:{id}" with their
// ID added to a "{prefix}root:{rootNodeID}:checkpoints" set so List and
// Clear can address every checkpoint saved for a given root node.
//
// # Usage
//
//	s := redis.NewRedisCheckpointStore(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "portgraph:", // optional, this is the default
//		TTL:    24 * time.Hour, // optional; 0 means no expiration
//	})
//
//	err := s.Save(ctx, &store.Checkpoint{
//		ID:         runID,
//		RootNodeID: "Loop",
//		SavedAt:    time.Now(),
//		State:      cp,
//	})
package redis
