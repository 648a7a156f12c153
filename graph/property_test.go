package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portgraph/engine/config"
	"github.com/portgraph/engine/graph"
	"github.com/portgraph/engine/nodes"
)

// For every port written during a run, once the run ends the port is
// either clean or its owning node is still in Pending. A linear chain
// that runs to completion with no pending nodes must leave every
// touched port clean.
func TestProperty_PortsCleanAfterCompletedRun(t *testing.T) {
	a := graph.NewGraphArena("root")
	c := nodes.NewConstant("A", "", 3.0, graph.Float)
	b := nodes.NewDouble("B", "")
	d := nodes.NewDouble("C", "")
	require.NoError(t, a.InsertNode(c))
	require.NoError(t, a.InsertNode(b))
	require.NoError(t, a.InsertNode(d))
	require.NoError(t, a.InsertEdge("A", "out", "B", "in"))
	require.NoError(t, a.InsertEdge("B", "out", "C", "in"))

	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{})
	_, err := ex.CookData(context.Background(), a, "C")
	require.NoError(t, err)

	for _, id := range []string{"A", "B", "C"} {
		n, ok := a.Node(id)
		require.True(t, ok)
		for name, p := range n.OutputPorts() {
			require.Falsef(t, p.Dirty, "output port %s.%s left dirty after completed run", id, name)
		}
	}
}

// For a DATA edge a.p -> b.q, the value at b.q after the run equals
// the last value written at a.p during the run.
func TestProperty_DataEdgePropagatesLastValue(t *testing.T) {
	a := graph.NewGraphArena("root")
	c := nodes.NewConstant("A", "", 3.0, graph.Float)
	b := nodes.NewDouble("B", "")
	require.NoError(t, a.InsertNode(c))
	require.NoError(t, a.InsertNode(b))
	require.NoError(t, a.InsertEdge("A", "out", "B", "in"))

	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{})
	_, err := ex.CookData(context.Background(), a, "B")
	require.NoError(t, err)

	src, ok := a.Node("A")
	require.True(t, ok)
	dst, ok := a.Node("B")
	require.True(t, ok)
	require.Equal(t, src.OutputPorts()["out"].Value, dst.InputPorts()["in"].Value)
}

// The union of completed-list values across every checkpoint emitted
// during a run equals the set of nodes actually activated.
func TestProperty_CheckpointCompletedUnionMatchesExecuted(t *testing.T) {
	a := graph.NewGraphArena("root")
	loop := nodes.NewLoop("Loop", "", 0, 5)
	counter := nodes.NewCounter("Counter", "")
	require.NoError(t, a.InsertNode(loop))
	require.NoError(t, a.InsertNode(counter))
	require.NoError(t, a.InsertEdge("Loop", "loop_body", "Counter", "exec"))
	require.NoError(t, a.InsertEdge("Loop", "index", "Counter", "val"))

	executed := map[string]bool{}
	completedUnion := map[string]bool{}
	ex := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{
		Before: func(nodeID, _ string) { executed[nodeID] = true },
		Checkpoint: func(cp *graph.ExecutionCheckpoint) {
			for _, id := range cp.Completed {
				completedUnion[id] = true
			}
		},
	})

	final, err := ex.CookFlow(context.Background(), a, "Loop", nil)
	require.NoError(t, err)
	require.NotNil(t, final)
	require.Equal(t, executed, completedUnion)
}

// Restoring a run from a failure checkpoint and continuing reaches
// the same terminal state (completed set, node-private counters) as an
// uninterrupted run over the same graph would. TestCookFlow_ResumeAfterFailure
// exercises the failure/resume path directly; this test cross-checks its
// terminal counters against a fresh, uninterrupted run of the equivalent
// non-failing graph.
func TestProperty_ResumedRunMatchesUninterruptedTerminalState(t *testing.T) {
	buildGraph := func(counter graph.Node) *graph.GraphArena {
		a := graph.NewGraphArena("root")
		loop := nodes.NewLoop("Loop", "", 0, 5)
		require.NoError(t, a.InsertNode(loop))
		require.NoError(t, a.InsertNode(counter))
		require.NoError(t, a.InsertEdge("Loop", "loop_body", "Counter", "exec"))
		require.NoError(t, a.InsertEdge("Loop", "index", "Counter", "val"))
		return a
	}

	uninterruptedCounter := nodes.NewCounter("Counter", "")
	uninterrupted := buildGraph(uninterruptedCounter)
	ex1 := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{})
	finalUninterrupted, err := ex1.CookFlow(context.Background(), uninterrupted, "Loop", nil)
	require.NoError(t, err)

	failing := nodes.NewFailingCounter("Counter", "", 3)
	a := buildGraph(failing)

	ex2 := graph.NewExecutor(config.Testing(), nil, graph.TraceHooks{})
	cp, err := ex2.CookFlow(context.Background(), a, "Loop", nil)
	require.Error(t, err)
	require.True(t, cp.Failed())

	finalResumed, err := ex2.CookFlow(context.Background(), a, "Loop", cp)
	require.NoError(t, err)

	require.ElementsMatch(t, finalUninterrupted.Completed, finalResumed.Completed)
	require.Equal(t, uninterruptedCounter.Count, failing.Count)
	require.Equal(t, uninterruptedCounter.Last, failing.Last)
}
