// Package nodes holds example compute implementations used by the
// graph package's scenario tests: a constant source,
// a doubling transform, a bounded loop, a counter sink, a counter that
// fails on a chosen invocation (for checkpoint/resume testing), and a
// data-gated control gate. These are example node kinds, not part of
// the core Node contract.
package nodes

import (
	"fmt"

	"github.com/portgraph/engine/graph"
)

// Constant is a data node with no inputs that always emits the same
// value on its single "out" port. Constants with no inputs collapse
// directly into ready in the Executor's dependency walk.
type Constant struct {
	graph.BaseNode
	value any
}

// NewConstant builds a Constant node emitting value on "out".
func NewConstant(id, parentSubgraphID string, value any, vt graph.ValueType) *Constant {
	n := &Constant{BaseNode: graph.NewBaseNode(id, "", "constant", parentSubgraphID, false)}
	n.AddOutput("out", graph.Out, graph.Data, vt)
	n.value = value
	return n
}

// Compute always returns the constructed value.
func (n *Constant) Compute(graph.ComputeContext) (graph.ExecutionResult, error) {
	return graph.ExecutionResult{
		Command:     graph.Continue,
		DataOutputs: map[string]any{"out": n.value},
	}, nil
}

var _ graph.Node = (*Constant)(nil)

// Double is a pure data node that doubles its numeric "in" input onto
// "out".
type Double struct {
	graph.BaseNode
}

// NewDouble builds a Double transform node.
func NewDouble(id, parentSubgraphID string) *Double {
	n := &Double{BaseNode: graph.NewBaseNode(id, "", "double", parentSubgraphID, false)}
	n.AddInput("in", graph.In, graph.Data, graph.Float)
	n.AddOutput("out", graph.Out, graph.Data, graph.Float)
	return n
}

// Compute doubles the numeric value of "in".
func (n *Double) Compute(ctx graph.ComputeContext) (graph.ExecutionResult, error) {
	v, err := toFloat(ctx.DataInputs["in"])
	if err != nil {
		return graph.ExecutionResult{}, err
	}
	return graph.ExecutionResult{
		Command:     graph.Continue,
		DataOutputs: map[string]any{"out": v * 2},
	}, nil
}

var _ graph.Node = (*Double)(nil)

// Loop is a bounded flow-control node iterating [Start, End). Each
// iteration emits its current index on "index" and activates
// "loop_body", then returns LOOP_AGAIN; once exhausted it activates
// "completed" and returns COMPLETED.
type Loop struct {
	graph.BaseNode
	Start, End int

	active bool
	index  int
}

// NewLoop builds a Loop iterating the half-open range [start, end). The
// "trigger" control input lets an outer loop body re-enter this Loop
// once per outer iteration: a Loop that has already run to completion
// starts over from Start when re-introduced, since Compute resets its
// private state whenever it finds itself inactive.
func NewLoop(id, parentSubgraphID string, start, end int) *Loop {
	n := &Loop{BaseNode: graph.NewBaseNode(id, "", "loop", parentSubgraphID, true), Start: start, End: end}
	n.AddInput("trigger", graph.In, graph.Control, graph.Bool)
	n.AddOutput("index", graph.Out, graph.Data, graph.Int)
	n.AddOutput("loop_body", graph.Out, graph.Control, graph.Bool)
	n.AddOutput("completed", graph.Out, graph.Control, graph.Bool)
	return n
}

// Compute advances one iteration, or completes once index reaches End.
func (n *Loop) Compute(graph.ComputeContext) (graph.ExecutionResult, error) {
	if !n.active {
		n.index = n.Start
		n.active = true
	}
	if n.index < n.End {
		cur := n.index
		n.index++
		return graph.ExecutionResult{
			Command:        graph.LoopAgain,
			DataOutputs:    map[string]any{"index": cur},
			ControlOutputs: map[string]any{"loop_body": true},
		}, nil
	}
	n.active = false
	return graph.ExecutionResult{
		Command:        graph.Completed,
		ControlOutputs: map[string]any{"completed": true},
	}, nil
}

// SerializeState adds the loop's private iteration state, with an
// explicit active flag rather than a sentinel index value.
func (n *Loop) SerializeState() map[string]any {
	s := n.BaseNode.SerializeState()
	s["private:active"] = n.active
	s["private:index"] = n.index
	return s
}

// DeserializeState restores the loop's private iteration state.
func (n *Loop) DeserializeState(state map[string]any) error {
	if err := n.BaseNode.DeserializeState(state); err != nil {
		return err
	}
	if v, ok := state["private:active"].(bool); ok {
		n.active = v
	}
	if v, ok := state["private:index"]; ok {
		if i, err := toInt(v); err == nil {
			n.index = i
		}
	}
	return nil
}

var _ graph.Node = (*Loop)(nil)

// Counter is a data sink that counts activations and remembers the
// last value it saw on "val".
type Counter struct {
	graph.BaseNode
	Count int
	Last  int
}

// NewCounter builds a Counter sink. Its "exec" control input is what
// lets a driving Loop or Gate actually schedule it under CookFlow: a
// pure data edge into "val" alone would never be introduced into the
// run, since a node only enters the ready/pending graph via the entry
// point or a control edge.
func NewCounter(id, parentSubgraphID string) *Counter {
	n := &Counter{BaseNode: graph.NewBaseNode(id, "", "counter", parentSubgraphID, false)}
	n.AddInput("exec", graph.In, graph.Control, graph.Bool)
	n.AddInput("val", graph.In, graph.Data, graph.Int)
	n.AddOutput("count", graph.Out, graph.Data, graph.Int)
	n.AddOutput("last", graph.Out, graph.Data, graph.Int)
	return n
}

// Compute records one activation.
func (n *Counter) Compute(ctx graph.ComputeContext) (graph.ExecutionResult, error) {
	v, err := toInt(ctx.DataInputs["val"])
	if err != nil {
		return graph.ExecutionResult{}, err
	}
	n.Count++
	n.Last = v
	return graph.ExecutionResult{
		Command:     graph.Continue,
		DataOutputs: map[string]any{"count": n.Count, "last": n.Last},
	}, nil
}

func (n *Counter) SerializeState() map[string]any {
	s := n.BaseNode.SerializeState()
	s["private:count"] = n.Count
	s["private:last"] = n.Last
	return s
}

func (n *Counter) DeserializeState(state map[string]any) error {
	if err := n.BaseNode.DeserializeState(state); err != nil {
		return err
	}
	if v, ok := state["private:count"]; ok {
		if i, err := toInt(v); err == nil {
			n.Count = i
		}
	}
	if v, ok := state["private:last"]; ok {
		if i, err := toInt(v); err == nil {
			n.Last = i
		}
	}
	return nil
}

var _ graph.Node = (*Counter)(nil)

// FailingCounter behaves like Counter but returns an error the first
// time it sees val == FailOn, so tests can exercise the Executor's
// error-checkpoint-then-resume path.
type FailingCounter struct {
	Counter
	FailOn int
	failed bool
}

// NewFailingCounter builds a FailingCounter that throws once, on the
// activation where val == failOn.
func NewFailingCounter(id, parentSubgraphID string, failOn int) *FailingCounter {
	c := NewCounter(id, parentSubgraphID)
	return &FailingCounter{Counter: *c, FailOn: failOn}
}

func (n *FailingCounter) Compute(ctx graph.ComputeContext) (graph.ExecutionResult, error) {
	v, err := toInt(ctx.DataInputs["val"])
	if err != nil {
		return graph.ExecutionResult{}, err
	}
	if v == n.FailOn && !n.failed {
		n.failed = true
		return graph.ExecutionResult{}, fmt.Errorf("counter %s: simulated failure at val=%d", n.ID(), v)
	}
	return n.Counter.Compute(ctx)
}

var _ graph.Node = (*FailingCounter)(nil)

// Gate is a flow-control node that forwards an incoming "in" control
// activation to "out" only when its data "cond" input is true,
// implementing branch selection over a mixed control/data topology.
type Gate struct {
	graph.BaseNode
}

// NewGate builds a Gate node.
func NewGate(id, parentSubgraphID string) *Gate {
	n := &Gate{BaseNode: graph.NewBaseNode(id, "", "gate", parentSubgraphID, true)}
	n.AddInput("cond", graph.In, graph.Data, graph.Bool)
	n.AddInput("in", graph.In, graph.Control, graph.Bool)
	n.AddOutput("out", graph.Out, graph.Control, graph.Bool)
	return n
}

// Compute forwards "in" to "out" only when "cond" is truthy.
func (n *Gate) Compute(ctx graph.ComputeContext) (graph.ExecutionResult, error) {
	cond, _ := ctx.DataInputs["cond"].(bool)
	activated, _ := ctx.ControlInputs["in"].(bool)
	out := map[string]any{}
	if cond && activated {
		out["out"] = true
	}
	return graph.ExecutionResult{Command: graph.Continue, ControlOutputs: out}, nil
}

var _ graph.Node = (*Gate)(nil)

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("nodes: value %v (%T) is not numeric", v, v)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case float32:
		return int(t), nil
	default:
		return 0, fmt.Errorf("nodes: value %v (%T) is not an integer", v, v)
	}
}
