package graph

import "time"

// TraceHooks is the four-point observation interface the Executor
// invokes on every run. Each field is independently optional; a nil
// field is a no-op.
type TraceHooks struct {
	// Before is awaited before a node's compute call. It may block
	// until an external resume signal, implementing step mode.
	Before func(nodeID, nodeName string)
	// After fires once compute resolves or throws.
	After func(nodeID, nodeName string, duration time.Duration, err error)
	// EdgeData fires for every data edge that actually carries a value
	// during the current batch.
	EdgeData func(fromNode, fromPort, toNode, toPort string)
	// Checkpoint fires after every checkpoint is built.
	Checkpoint func(cp *ExecutionCheckpoint)
}

func (h TraceHooks) fireBefore(nodeID, nodeName string) {
	if h.Before != nil {
		h.Before(nodeID, nodeName)
	}
}

func (h TraceHooks) fireAfter(nodeID, nodeName string, d time.Duration, err error) {
	if h.After != nil {
		h.After(nodeID, nodeName, d, err)
	}
}

func (h TraceHooks) fireEdgeData(fromNode, fromPort, toNode, toPort string) {
	if h.EdgeData != nil {
		h.EdgeData(fromNode, fromPort, toNode, toPort)
	}
}

func (h TraceHooks) fireCheckpoint(cp *ExecutionCheckpoint) {
	if h.Checkpoint != nil {
		h.Checkpoint(cp)
	}
}

// MultiHook fans every event on a single TraceHooks out to several
// registered TraceHooks, in registration order. Purely additive over
// the four-hook contract, for callers that want more than one listener
// registered at once (e.g. a UI stream and a test assertion).
func MultiHook(hooks ...TraceHooks) TraceHooks {
	return TraceHooks{
		Before: func(nodeID, nodeName string) {
			for _, h := range hooks {
				h.fireBefore(nodeID, nodeName)
			}
		},
		After: func(nodeID, nodeName string, d time.Duration, err error) {
			for _, h := range hooks {
				h.fireAfter(nodeID, nodeName, d, err)
			}
		},
		EdgeData: func(fromNode, fromPort, toNode, toPort string) {
			for _, h := range hooks {
				h.fireEdgeData(fromNode, fromPort, toNode, toPort)
			}
		},
		Checkpoint: func(cp *ExecutionCheckpoint) {
			for _, h := range hooks {
				h.fireCheckpoint(cp)
			}
		},
	}
}
