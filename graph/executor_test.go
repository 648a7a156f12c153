package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portgraph/engine/config"
	"github.com/portgraph/engine/graph"
	"github.com/portgraph/engine/nodes"
)

func newTestExecutor() *graph.Executor {
	return graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{})
}

type dummyNode struct {
	graph.BaseNode
}

func newDummy(id string, flowControl bool) *dummyNode {
	n := &dummyNode{BaseNode: graph.NewBaseNode(id, id, "dummy", "", flowControl)}
	n.AddInput("in", graph.In, graph.Data, graph.Any)
	n.AddOutput("out", graph.Out, graph.Data, graph.Any)
	n.AddInput("ctrl_in", graph.In, graph.Control, graph.Any)
	n.AddOutput("ctrl_out", graph.Out, graph.Control, graph.Any)
	return n
}

func (n *dummyNode) Compute(graph.ComputeContext) (graph.ExecutionResult, error) {
	return graph.ExecutionResult{Command: graph.Continue}, nil
}

// Linear three-node data chain, each doubling its input.
func TestCookData_LinearChain(t *testing.T) {
	a := graph.NewGraphArena("root")
	c := nodes.NewConstant("A", "", 3.0, graph.Float)
	b := nodes.NewDouble("B", "")
	d := nodes.NewDouble("C", "")
	require.NoError(t, a.InsertNode(c))
	require.NoError(t, a.InsertNode(b))
	require.NoError(t, a.InsertNode(d))
	require.NoError(t, a.InsertEdge("A", "out", "B", "in"))
	require.NoError(t, a.InsertEdge("B", "out", "C", "in"))

	var order []string
	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{
		Before: func(nodeID, _ string) { order = append(order, nodeID) },
	})

	res, err := ex.CookData(context.Background(), a, "C")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, order)
	require.Equal(t, 12.0, res.DataOutputs["out"])
}

// With A feeding both B and C, CookData(B) computes A exactly once.
func TestCookData_SharedAncestorVisitedOnce(t *testing.T) {
	a := graph.NewGraphArena("root")
	src := nodes.NewConstant("A", "", 2.0, graph.Float)
	b := nodes.NewDouble("B", "")
	c := nodes.NewDouble("C", "")
	require.NoError(t, a.InsertNode(src))
	require.NoError(t, a.InsertNode(b))
	require.NoError(t, a.InsertNode(c))
	require.NoError(t, a.InsertEdge("A", "out", "B", "in"))
	require.NoError(t, a.InsertEdge("A", "out", "C", "in"))

	var computedA int
	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{
		Before: func(nodeID, _ string) {
			if nodeID == "A" {
				computedA++
			}
		},
	})
	_, err := ex.CookData(context.Background(), a, "B")
	require.NoError(t, err)
	require.Equal(t, 1, computedA)
}

// A bounded loop drives a counter sink directly over its own
// control ("loop_body") and data ("index") outputs.
func TestCookFlow_BasicLoop(t *testing.T) {
	a := graph.NewGraphArena("root")
	loop := nodes.NewLoop("Loop", "", 0, 5)
	counter := nodes.NewCounter("Counter", "")
	require.NoError(t, a.InsertNode(loop))
	require.NoError(t, a.InsertNode(counter))
	require.NoError(t, a.InsertEdge("Loop", "loop_body", "Counter", "exec"))
	require.NoError(t, a.InsertEdge("Loop", "index", "Counter", "val"))

	var checkpoints int
	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{
		Checkpoint: func(*graph.ExecutionCheckpoint) { checkpoints++ },
	})

	final, err := ex.CookFlow(context.Background(), a, "Loop", nil)
	require.NoError(t, err)
	require.NotNil(t, final)
	require.Equal(t, 5, counter.Count)
	require.Equal(t, 4, counter.Last)
	require.Greater(t, checkpoints, 0)
	require.Empty(t, final.Pending)
	require.Contains(t, final.Completed, "Loop")
	require.Contains(t, final.Completed, "Counter")
}

// An outer loop re-triggers an independent inner loop once per
// outer iteration via the inner loop's "trigger" control input; the
// inner loop in turn drives the counter. outer(0,3) x inner(0,2) must
// invoke the counter exactly 6 times, exercising the LIFO deferred
// stack at depth 2 (outer deferred while inner runs to completion).
func TestCookFlow_NestedLoops(t *testing.T) {
	a := graph.NewGraphArena("root")
	outer := nodes.NewLoop("Outer", "", 0, 3)
	inner := nodes.NewLoop("Inner", "", 0, 2)
	counter := nodes.NewCounter("Counter", "")
	require.NoError(t, a.InsertNode(outer))
	require.NoError(t, a.InsertNode(inner))
	require.NoError(t, a.InsertNode(counter))
	require.NoError(t, a.InsertEdge("Outer", "loop_body", "Inner", "trigger"))
	require.NoError(t, a.InsertEdge("Inner", "loop_body", "Counter", "exec"))
	require.NoError(t, a.InsertEdge("Inner", "index", "Counter", "val"))

	computes := map[string]int{}
	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{
		Before: func(nodeID, _ string) { computes[nodeID]++ },
	})

	final, err := ex.CookFlow(context.Background(), a, "Outer", nil)
	require.NoError(t, err)
	require.NotNil(t, final)
	require.Equal(t, 6, counter.Count)
	require.Equal(t, 1, counter.Last)
	require.Equal(t, 4, computes["Outer"]) // 3 LOOP_AGAIN + 1 COMPLETED
	require.Equal(t, 9, computes["Inner"]) // 3 re-entries x (2 LOOP_AGAIN + 1 COMPLETED)
	require.Equal(t, 6, computes["Counter"])
}

// Resume after failure: a FailingCounter throws once at val==3;
// resuming the same run from the emitted error checkpoint completes
// the remaining iterations without repeating the ones already
// committed.
func TestCookFlow_ResumeAfterFailure(t *testing.T) {
	a := graph.NewGraphArena("root")
	loop := nodes.NewLoop("Loop", "", 0, 5)
	failing := nodes.NewFailingCounter("Counter", "", 3)
	require.NoError(t, a.InsertNode(loop))
	require.NoError(t, a.InsertNode(failing))
	require.NoError(t, a.InsertEdge("Loop", "loop_body", "Counter", "exec"))
	require.NoError(t, a.InsertEdge("Loop", "index", "Counter", "val"))

	ex := newTestExecutor()
	cp, err := ex.CookFlow(context.Background(), a, "Loop", nil)
	require.Error(t, err)
	require.NotNil(t, cp)
	require.True(t, cp.Failed())
	require.Equal(t, "Counter", cp.FailedNodeID)
	require.Contains(t, cp.Ready, "Counter")
	require.Equal(t, 3, failing.Count)
	require.Equal(t, 2, failing.Last)

	final, err := ex.CookFlow(context.Background(), a, "Loop", cp)
	require.NoError(t, err)
	require.NotNil(t, final)
	require.Equal(t, 5, failing.Count)
	require.Equal(t, 4, failing.Last)
}

// A Gate forwards the loop's control activation to the counter only
// while its data condition holds, so flipping the condition constant
// selects whether the counter branch runs at all.
func TestCookFlow_GateBranchSelection(t *testing.T) {
	build := func(cond bool) (*graph.GraphArena, *nodes.Counter) {
		a := graph.NewGraphArena("root")
		loop := nodes.NewLoop("Loop", "", 0, 5)
		gate := nodes.NewGate("Gate", "")
		condConst := nodes.NewConstant("Cond", "", cond, graph.Bool)
		counter := nodes.NewCounter("Counter", "")
		require.NoError(t, a.InsertNode(loop))
		require.NoError(t, a.InsertNode(gate))
		require.NoError(t, a.InsertNode(condConst))
		require.NoError(t, a.InsertNode(counter))
		require.NoError(t, a.InsertEdge("Cond", "out", "Gate", "cond"))
		require.NoError(t, a.InsertEdge("Loop", "loop_body", "Gate", "in"))
		require.NoError(t, a.InsertEdge("Gate", "out", "Counter", "exec"))
		require.NoError(t, a.InsertEdge("Loop", "index", "Counter", "val"))
		return a, counter
	}

	open, openCounter := build(true)
	ex := newTestExecutor()
	_, err := ex.CookFlow(context.Background(), open, "Loop", nil)
	require.NoError(t, err)
	require.Equal(t, 5, openCounter.Count)
	require.Equal(t, 4, openCounter.Last)

	closed, closedCounter := build(false)
	_, err = ex.CookFlow(context.Background(), closed, "Loop", nil)
	require.NoError(t, err)
	require.Equal(t, 0, closedCounter.Count)
}

// A cyclic pure-data wiring (no control edge ever resolves either
// side) must surface as UnsatisfiedDependencyError rather than hang.
func TestCookFlow_UnsatisfiedDependency(t *testing.T) {
	a := graph.NewGraphArena("root")
	nodeA := newDummy("A", false)
	nodeB := newDummy("B", false)
	require.NoError(t, a.InsertNode(nodeA))
	require.NoError(t, a.InsertNode(nodeB))
	require.NoError(t, a.InsertEdge("B", "out", "A", "in"))
	require.NoError(t, a.InsertEdge("A", "out", "B", "in"))

	ex := newTestExecutor()
	_, err := ex.CookFlow(context.Background(), a, "A", nil)
	require.Error(t, err)
	var udErr *graph.UnsatisfiedDependencyError
	require.ErrorAs(t, err, &udErr)
	require.NotEmpty(t, udErr.Pending)
}
