package graph

// SubgraphNode is a Node that owns a nested GraphArena and exposes
// tunneling ports that forward values between the outer and inner
// scopes. It is inserted into its parent arena like any other node,
// and it self-registers into its own inner arena so that edges inside
// the inner arena can address its own ports as either a source
// (tunnel-in forwarding to children) or a destination (tunnel-out
// receiving from children). See buildMembership in executor.go, which
// is what makes the Executor's generic edge fan-out transparently
// cross the tunnel boundary in either direction without any
// subgraph-specific propagation code.
type SubgraphNode struct {
	BaseNode
	Inner *GraphArena
}

// NewSubgraphNode constructs a SubgraphNode named name, owning a fresh
// inner arena of the same name. parentSubgraphID is empty for a
// root-level subgraph.
func NewSubgraphNode(id, name, parentSubgraphID string) *SubgraphNode {
	n := &SubgraphNode{
		BaseNode: NewBaseNode(id, name, "subgraph", parentSubgraphID, true),
	}
	n.Inner = NewGraphArena(name)
	// Self-registration: InsertNode cannot fail here (id is fresh in a
	// brand-new arena), the error is structurally unreachable.
	_ = n.Inner.InsertNode(n)
	return n
}

// AddTunnelInput declares an IN_OUT port that relays an outer-scope
// value into the subgraph (outer -> tunnel-in). It appears in both
// InputPorts (for the outer incoming edge) and OutputPorts (for the
// inner arena's tunnel-in -> child edges): at most one incoming edge
// from the outer scope, any number of outgoing edges to inner
// children.
func (n *SubgraphNode) AddTunnelInput(name string, fn Function, vt ValueType) *Port {
	return n.AddInput(name, InOut, fn, vt)
}

// AddTunnelOutput declares an IN_OUT port that relays an inner child's
// output back to the outer scope (inner child -> tunnel-out, then
// tunnel-out -> outer consumers).
func (n *SubgraphNode) AddTunnelOutput(name string, fn Function, vt ValueType) *Port {
	return n.AddOutput(name, InOut, fn, vt)
}

// Compute is intentionally a near no-op: the tunneling rules are
// carried out generically by the Executor's edge fan-out (see
// writePortAndFanOut in executor.go) whenever a written port belongs to
// a node that is a member of more than one arena. A SubgraphNode's own
// compute call exists only to satisfy the Node contract and to let a
// subgraph participate in control scheduling like any other
// flow-control node: it simply re-activates whatever control inputs it
// received as control outputs of the same name, one hop, so a
// tunnel_exec control edge wired straight through keeps flowing without
// bespoke subgraph logic in the scheduler itself.
func (n *SubgraphNode) Compute(ctx ComputeContext) (ExecutionResult, error) {
	ctrlOut := make(map[string]any, len(ctx.ControlInputs))
	for name, v := range ctx.ControlInputs {
		if v != nil {
			ctrlOut[name] = v
		}
	}
	return ExecutionResult{
		Command:        Continue,
		DataOutputs:    map[string]any{},
		ControlOutputs: ctrlOut,
	}, nil
}

var _ Node = (*SubgraphNode)(nil)
