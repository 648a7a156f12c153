package graph

import "context"

// Command is the disposition an ExecutionResult reports back to the
// Executor's scheduler.
type Command int

const (
	// Continue means the node ran to completion and will not run again
	// this run unless re-introduced by an incoming control edge.
	Continue Command = iota
	// Wait parks the node without scheduling a retry; external input is
	// required before the run can advance. Reserved: an Executor that
	// never needs it may treat Wait as Continue.
	Wait
	// LoopAgain signals "I intend to iterate again; push me onto
	// deferred." Only flow-control nodes return this.
	LoopAgain
	// Completed signals a loop's normal exit.
	Completed
)

func (c Command) String() string {
	switch c {
	case Continue:
		return "CONTINUE"
	case Wait:
		return "WAIT"
	case LoopAgain:
		return "LOOP_AGAIN"
	case Completed:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// ExecutionResult is what a compute call produces. DataOutputs and
// ControlOutputs are keyed by output port name; a control output's
// value is a truthy activation signal. The side-channel
// identity fields are carried for trace correlation only, they carry
// no semantic weight for the Executor.
type ExecutionResult struct {
	Command        Command
	DataOutputs    map[string]any
	ControlOutputs map[string]any

	// Side-channel identity, not interpreted by the scheduler.
	SubgraphID string
	NodeID     string
	NodePath   string
	RunID      string
}

// ComputeContext is passed to a node's compute call. It carries the
// addressing and input snapshot the node needs; DataInputs and
// ControlInputs are read-only copies taken by the Executor immediately
// before compute is invoked.
type ComputeContext struct {
	Ctx           context.Context
	SubgraphID    string
	NodeID        string
	NodePath      string
	DataInputs    map[string]any
	ControlInputs map[string]any
}

// Node is the capability interface every node kind implements. Nodes
// are heterogeneous by compute body; this is a trait-object style
// dispatch (rather than a closed tagged variant) because Registry is an
// open, caller-populated factory: extensions register their own Node
// implementations at runtime.
//
// compute must not mutate the GraphArena nor read nodes other than
// through its own ports (enforced by convention: a Node implementation
// is never handed a *GraphArena). Side effects other than writing to
// its own output ports are the node's own responsibility.
type Node interface {
	// ID is the node's stable identity within its owning GraphArena.
	ID() string
	// Name is the node's display name, used by the path grammar.
	// Distinct from ID: two nodes may share a display name, only ID
	// need be unique within an arena.
	Name() string
	// Type is the registry type tag this node was constructed from.
	Type() string
	// ParentSubgraphID is the id of the Subgraph node that owns this
	// node's GraphArena, or ("", false) for a node in the root arena.
	ParentSubgraphID() (string, bool)

	// InputPorts returns this node's input (and in-out) ports keyed by
	// name. The returned map is owned by the node; callers must not
	// retain it across node mutation.
	InputPorts() map[string]*Port
	// OutputPorts returns this node's output (and in-out) ports keyed
	// by name.
	OutputPorts() map[string]*Port

	// IsFlowControl reports whether this node may emit control outputs
	// or return a non-Continue command. Data nodes always return
	// Continue and never drive control edges.
	IsFlowControl() bool

	// Compute runs the node's logic for one activation. It must be
	// reentrant across distinct runs.
	Compute(ComputeContext) (ExecutionResult, error)

	// SerializeState captures all port values plus any node-private
	// transient fields, keyed "in:<port>" / "out:<port>" /
	// "private:<field>". Used only for checkpoint/resume.
	SerializeState() map[string]any
	// DeserializeState restores state captured by SerializeState.
	DeserializeState(map[string]any) error
}

// BaseNode provides the bookkeeping every concrete Node kind needs
// (identity, port bags, flow-control flag) so individual node kinds
// only have to implement Compute and any private-state fields of their
// own. Embed it and override SerializeState/DeserializeState when the
// node carries private transient fields; prefer explicit flags over
// sentinel values there so restore is unambiguous.
type BaseNode struct {
	id               string
	name             string
	typeTag          string
	parentSubgraphID string
	hasParent        bool
	flowControl      bool

	inputs  map[string]*Port
	outputs map[string]*Port
}

// NewBaseNode constructs a BaseNode. parentSubgraphID is empty for a
// root-arena node. name defaults to id when empty.
func NewBaseNode(id, name, typeTag, parentSubgraphID string, flowControl bool) BaseNode {
	if name == "" {
		name = id
	}
	return BaseNode{
		id:               id,
		name:             name,
		typeTag:          typeTag,
		parentSubgraphID: parentSubgraphID,
		hasParent:        parentSubgraphID != "",
		flowControl:      flowControl,
		inputs:           make(map[string]*Port),
		outputs:          make(map[string]*Port),
	}
}

func (b *BaseNode) ID() string   { return b.id }
func (b *BaseNode) Name() string { return b.name }
func (b *BaseNode) Type() string { return b.typeTag }

func (b *BaseNode) ParentSubgraphID() (string, bool) {
	return b.parentSubgraphID, b.hasParent
}

func (b *BaseNode) IsFlowControl() bool { return b.flowControl }

func (b *BaseNode) InputPorts() map[string]*Port  { return b.inputs }
func (b *BaseNode) OutputPorts() map[string]*Port { return b.outputs }

// AddInput declares an input (or in-out) port on the node.
func (b *BaseNode) AddInput(name string, dir Direction, fn Function, vt ValueType) *Port {
	p := NewPort(b.id, name, dir, fn, vt)
	b.inputs[name] = p
	if dir == InOut {
		b.outputs[name] = p
	}
	return p
}

// AddOutput declares an output (or in-out) port on the node.
func (b *BaseNode) AddOutput(name string, dir Direction, fn Function, vt ValueType) *Port {
	p := NewPort(b.id, name, dir, fn, vt)
	b.outputs[name] = p
	if dir == InOut {
		b.inputs[name] = p
	}
	return p
}

// SerializeState captures every port's current value under
// "in:<name>" / "out:<name>" keys. Node kinds with private transient
// fields should call this and add their own "private:<field>" entries.
func (b *BaseNode) SerializeState() map[string]any {
	out := make(map[string]any, len(b.inputs)+len(b.outputs))
	for name, p := range b.inputs {
		out["in:"+name] = p.Value
	}
	for name, p := range b.outputs {
		out["out:"+name] = p.Value
	}
	return out
}

// DeserializeState restores port values captured by SerializeState.
// Node kinds with private fields should call this first, then restore
// their own "private:<field>" entries.
func (b *BaseNode) DeserializeState(state map[string]any) error {
	for name, p := range b.inputs {
		if v, ok := state["in:"+name]; ok {
			p.Value = v
			p.Dirty = false
		}
	}
	for name, p := range b.outputs {
		if v, ok := state["out:"+name]; ok {
			p.Value = v
			p.Dirty = false
		}
	}
	return nil
}
