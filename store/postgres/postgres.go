// Package postgres provides a CheckpointStore backed by PostgreSQL,
// for production deployments that need concurrent, queryable
// checkpoint storage shared across multiple processes.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portgraph/engine/graph"
	"github.com/portgraph/engine/store"
)

// DBPool is the subset of pgxpool.Pool this package depends on, so
// tests can substitute a mock pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCheckpointStore implements store.CheckpointStore using PostgreSQL.
type PostgresCheckpointStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configures the Postgres connection.
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "checkpoints"
}

// NewPostgresCheckpointStore creates a new Postgres checkpoint store.
func NewPostgresCheckpointStore(ctx context.Context, opts PostgresOptions) (*PostgresCheckpointStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}

	return &PostgresCheckpointStore{pool: pool, tableName: tableName}, nil
}

// NewPostgresCheckpointStoreWithPool creates a store over an existing
// pool, useful for testing against a mock.
func NewPostgresCheckpointStoreWithPool(pool DBPool, tableName string) *PostgresCheckpointStore {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &PostgresCheckpointStore{pool: pool, tableName: tableName}
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *PostgresCheckpointStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			root_node_id TEXT NOT NULL,
			state JSONB NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_root_node_id ON %s (root_node_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresCheckpointStore) Close() {
	s.pool.Close()
}

// Save stores a checkpoint, upserting on ID.
func (s *PostgresCheckpointStore) Save(ctx context.Context, cp *store.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("postgres: checkpoint ID must not be empty")
	}
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, root_node_id, state, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			root_node_id = EXCLUDED.root_node_id,
			state = EXCLUDED.state,
			saved_at = EXCLUDED.saved_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query, cp.ID, cp.RootNodeID, stateJSON, cp.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *PostgresCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	query := fmt.Sprintf(`SELECT id, root_node_id, state, saved_at FROM %s WHERE id = $1`, s.tableName)

	var cp store.Checkpoint
	var stateJSON []byte

	err := s.pool.QueryRow(ctx, query, checkpointID).Scan(&cp.ID, &cp.RootNodeID, &stateJSON, &cp.SavedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state graph.ExecutionCheckpoint
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	cp.State = &state
	return &cp, nil
}

// List returns every checkpoint saved for rootNodeID, oldest first.
func (s *PostgresCheckpointStore) List(ctx context.Context, rootNodeID string) ([]*store.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, root_node_id, state, saved_at
		FROM %s
		WHERE root_node_id = $1
		ORDER BY saved_at ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, rootNodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*store.Checkpoint
	for rows.Next() {
		var cp store.Checkpoint
		var stateJSON []byte
		if err := rows.Scan(&cp.ID, &cp.RootNodeID, &stateJSON, &cp.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		var state graph.ExecutionCheckpoint
		if err := json.Unmarshal(stateJSON, &state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		cp.State = &state
		out = append(out, &cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoint rows: %w", err)
	}
	return out, nil
}

// Delete removes a checkpoint.
func (s *PostgresCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, checkpointID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes every checkpoint saved for rootNodeID.
func (s *PostgresCheckpointStore) Clear(ctx context.Context, rootNodeID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE root_node_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, rootNodeID); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

var _ store.CheckpointStore = (*PostgresCheckpointStore)(nil)
