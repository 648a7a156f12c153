package graph

import (
	"errors"
	"fmt"
)

// GraphShapeKind distinguishes the three ways GraphArena can reject a
// construction request.
type GraphShapeKind int

const (
	// DuplicateID means insert_node was called with an id already present.
	DuplicateID GraphShapeKind = iota
	// NotFound means the referenced node id does not exist in the arena.
	NotFound
	// EdgeRejected means InsertEdge violated an edge invariant: a
	// second incoming data edge on one input port, or mismatched
	// endpoint port functions.
	EdgeRejected
)

func (k GraphShapeKind) String() string {
	switch k {
	case DuplicateID:
		return "DuplicateID"
	case NotFound:
		return "NotFound"
	case EdgeRejected:
		return "EdgeRejected"
	default:
		return "Unknown"
	}
}

// GraphShapeError is raised synchronously by GraphArena mutation
// operations. It is never recovered internally.
type GraphShapeError struct {
	Kind   GraphShapeKind
	Detail string
}

func (e *GraphShapeError) Error() string {
	return fmt.Sprintf("graph shape: %s: %s", e.Kind, e.Detail)
}

func newShapeError(kind GraphShapeKind, detail string) error {
	return &GraphShapeError{Kind: kind, Detail: detail}
}

// IsGraphShape reports whether err is a GraphShapeError of the given kind.
func IsGraphShape(err error, kind GraphShapeKind) bool {
	var shapeErr *GraphShapeError
	if errors.As(err, &shapeErr) {
		return shapeErr.Kind == kind
	}
	return false
}

// UnsatisfiedDependencyError is raised at the terminal condition of a
// cook_flow run if the pending map is non-empty: both ready and deferred
// are drained but some node still waits on a dependency that will never
// resolve. It indicates a wiring bug (cyclic data edges, a control output
// that never fires) and is fatal to the run.
type UnsatisfiedDependencyError struct {
	// Pending lists the node ids still waiting, each with the ids they
	// are still blocked on.
	Pending map[string][]string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("unsatisfied dependency: %d node(s) never became ready", len(e.Pending))
}

// ComputeFailureError wraps an error returned by a node's compute call.
// The Executor captures it, emits an error checkpoint, and re-raises it
// wrapped like this; the caller may start a new run from the checkpoint.
type ComputeFailureError struct {
	NodeID string
	Err    error
}

func (e *ComputeFailureError) Error() string {
	return fmt.Sprintf("compute failure in node %q: %v", e.NodeID, e.Err)
}

func (e *ComputeFailureError) Unwrap() error { return e.Err }

// MaxRunStepsExceededError is raised when a run exceeds its configured
// scheduling-step ceiling instead of hanging on a malformed graph whose
// deferred stack never drains.
type MaxRunStepsExceededError struct {
	Steps int
}

func (e *MaxRunStepsExceededError) Error() string {
	return fmt.Sprintf("run exceeded %d scheduling steps without terminating", e.Steps)
}
