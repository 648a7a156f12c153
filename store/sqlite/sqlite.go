// Package sqlite provides a CheckpointStore backed by a local SQLite
// database, for single-machine deployments that want durable,
// queryable checkpoint storage without running a database server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/portgraph/engine/graph"
	"github.com/portgraph/engine/store"
)

// SqliteCheckpointStore implements store.CheckpointStore using SQLite.
type SqliteCheckpointStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configures the SQLite connection.
type SqliteOptions struct {
	Path      string
	TableName string // Default "checkpoints"
}

// NewSqliteCheckpointStore creates a new SQLite checkpoint store.
func NewSqliteCheckpointStore(opts SqliteOptions) (*SqliteCheckpointStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}

	s := &SqliteCheckpointStore{db: db, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist.
func (s *SqliteCheckpointStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			root_node_id TEXT NOT NULL,
			state TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_root_node_id ON %s (root_node_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteCheckpointStore) Close() error {
	return s.db.Close()
}

// Save stores a checkpoint, upserting on ID.
func (s *SqliteCheckpointStore) Save(ctx context.Context, cp *store.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("sqlite: checkpoint ID must not be empty")
	}
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, root_node_id, state, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_node_id = excluded.root_node_id,
			state = excluded.state,
			saved_at = excluded.saved_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query, cp.ID, cp.RootNodeID, string(stateJSON), cp.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *SqliteCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	query := fmt.Sprintf(`SELECT id, root_node_id, state, saved_at FROM %s WHERE id = ?`, s.tableName)

	var cp store.Checkpoint
	var stateJSON string
	err := s.db.QueryRowContext(ctx, query, checkpointID).Scan(&cp.ID, &cp.RootNodeID, &stateJSON, &cp.SavedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state graph.ExecutionCheckpoint
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	cp.State = &state
	return &cp, nil
}

// List returns every checkpoint saved for rootNodeID, oldest first.
func (s *SqliteCheckpointStore) List(ctx context.Context, rootNodeID string) ([]*store.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, root_node_id, state, saved_at
		FROM %s
		WHERE root_node_id = ?
		ORDER BY saved_at ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, rootNodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*store.Checkpoint
	for rows.Next() {
		var cp store.Checkpoint
		var stateJSON string
		if err := rows.Scan(&cp.ID, &cp.RootNodeID, &stateJSON, &cp.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		var state graph.ExecutionCheckpoint
		if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
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
func (s *SqliteCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, checkpointID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes every checkpoint saved for rootNodeID.
func (s *SqliteCheckpointStore) Clear(ctx context.Context, rootNodeID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE root_node_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, rootNodeID); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

var _ store.CheckpointStore = (*SqliteCheckpointStore)(nil)
