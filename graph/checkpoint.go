package graph

// ExecutionCheckpoint is the serialisable snapshot of mid-run Executor
// state. It is emitted after every completed
// batch and after any compute failure, and is consumed externally: the
// Executor itself never reads one except via an explicit Resume call.
type ExecutionCheckpoint struct {
	RootNodeID string `json:"root_node_id"`
	SubgraphID string `json:"subgraph_id"`

	// Ready is the live contents of the ready stack at emission time,
	// possibly empty.
	Ready []string `json:"ready"`
	// Deferred is the LIFO loop-reentry stack, serialised bottom-to-top
	// so that push/pop semantics are preserved after restore.
	Deferred []string `json:"deferred"`
	// Pending maps a waiting node id to the ids of the dependencies it
	// still waits on.
	Pending map[string][]string `json:"pending"`
	// Completed lists node ids in commit order.
	Completed []string `json:"completed"`

	// NodeState holds, for every completed node, every currently-pending
	// node, and (on a failure checkpoint) every node in the batch that
	// was executing when the failure occurred, the result of that
	// node's SerializeState(). Including the failing batch's live state
	// is what lets Resume re-run it with the inputs that were actually
	// in flight rather than each node's last-completed snapshot.
	NodeState map[string]map[string]any `json:"node_state"`

	FailedNodeID string `json:"failed_node_id,omitempty"`
	FailedError  string `json:"failed_error,omitempty"`

	// Timestamp is a monotonically-increasing sequence number within a
	// single run, not a wall-clock value, so runs stay reproducible
	// under resume without depending on real time.
	Timestamp int64 `json:"timestamp"`
}

// Failed reports whether this checkpoint records a compute failure.
func (c *ExecutionCheckpoint) Failed() bool {
	return c.FailedNodeID != ""
}

// Clone returns a deep-enough copy of c so that callers (a
// CheckpointStore round-trip, or any caller holding onto a checkpoint
// across a later mutating call) never alias the slices/maps of a
// checkpoint still referenced elsewhere.
func (c *ExecutionCheckpoint) Clone() *ExecutionCheckpoint {
	out := &ExecutionCheckpoint{
		RootNodeID:   c.RootNodeID,
		SubgraphID:   c.SubgraphID,
		Ready:        append([]string(nil), c.Ready...),
		Deferred:     append([]string(nil), c.Deferred...),
		Completed:    append([]string(nil), c.Completed...),
		FailedNodeID: c.FailedNodeID,
		FailedError:  c.FailedError,
		Timestamp:    c.Timestamp,
	}
	out.Pending = make(map[string][]string, len(c.Pending))
	for k, v := range c.Pending {
		out.Pending[k] = append([]string(nil), v...)
	}
	out.NodeState = make(map[string]map[string]any, len(c.NodeState))
	for k, v := range c.NodeState {
		cp := make(map[string]any, len(v))
		for kk, vv := range v {
			cp[kk] = vv
		}
		out.NodeState[k] = cp
	}
	return out
}
