// Package redis provides a CheckpointStore backed by Redis, suited to
// distributed deployments where checkpoints need a shared, expiring
// backing store instead of a single process's memory or disk.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/portgraph/engine/store"
)

// RedisCheckpointStore implements store.CheckpointStore using Redis.
type RedisCheckpointStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures the Redis connection and key layout.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "portgraph:"
	TTL      time.Duration // Expiration for checkpoints, default 0 (no expiration)
}

// NewRedisCheckpointStore creates a new Redis checkpoint store.
func NewRedisCheckpointStore(opts RedisOptions) *RedisCheckpointStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "portgraph:"
	}

	return &RedisCheckpointStore{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *RedisCheckpointStore) checkpointKey(id string) string {
	return fmt.Sprintf("%scheckpoint:%s", s.prefix, id)
}

func (s *RedisCheckpointStore) rootKey(rootNodeID string) string {
	return fmt.Sprintf("%sroot:%s:checkpoints", s.prefix, rootNodeID)
}

// Save stores a checkpoint and indexes it under its RootNodeID.
func (s *RedisCheckpointStore) Save(ctx context.Context, cp *store.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("redis: checkpoint ID must not be empty")
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal checkpoint: %w", err)
	}

	key := s.checkpointKey(cp.ID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.ttl)

	if cp.RootNodeID != "" {
		rootKey := s.rootKey(cp.RootNodeID)
		pipe.SAdd(ctx, rootKey, cp.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, rootKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *RedisCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.checkpointKey(checkpointID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, fmt.Errorf("redis: checkpoint %q not found", checkpointID)
		}
		return nil, fmt.Errorf("redis: failed to load checkpoint: %w", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// List returns every checkpoint saved for rootNodeID, oldest first.
func (s *RedisCheckpointStore) List(ctx context.Context, rootNodeID string) ([]*store.Checkpoint, error) {
	ids, err := s.client.SMembers(ctx, s.rootKey(rootNodeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to list checkpoints for %q: %w", rootNodeID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.checkpointKey(id)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to fetch checkpoints: %w", err)
	}

	var out []*store.Checkpoint
	for _, result := range results {
		if result == nil {
			continue
		}
		strData, ok := result.(string)
		if !ok {
			continue
		}
		var cp store.Checkpoint
		if err := json.Unmarshal([]byte(strData), &cp); err != nil {
			continue
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.Before(out[j].SavedAt) })
	return out, nil
}

// Delete removes a checkpoint and its root-index entry.
func (s *RedisCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	cp, err := s.Load(ctx, checkpointID)
	if err != nil {
		return nil
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.checkpointKey(checkpointID))
	if cp.RootNodeID != "" {
		pipe.SRem(ctx, s.rootKey(cp.RootNodeID), checkpointID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes every checkpoint saved for rootNodeID.
func (s *RedisCheckpointStore) Clear(ctx context.Context, rootNodeID string) error {
	rootKey := s.rootKey(rootNodeID)
	ids, err := s.client.SMembers(ctx, rootKey).Result()
	if err != nil {
		return fmt.Errorf("redis: failed to read checkpoints for clearing: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.checkpointKey(id))
	}
	pipe.Del(ctx, rootKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to clear checkpoints: %w", err)
	}
	return nil
}

var _ store.CheckpointStore = (*RedisCheckpointStore)(nil)
