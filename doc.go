// Package engine is the root of a dataflow-plus-control-flow graph
// execution engine: nodes carry typed data ports and control ports,
// subgraphs tunnel values across nested scopes, and an Executor drives
// a graph to completion honouring lazy data resolution, control-signal
// propagation, nested LOOP_AGAIN/COMPLETED looping, parallel batch
// execution, and resumable checkpoints.
//
// # Package layout
//
// graph/
// The core: Port, Node, GraphArena, Subgraph, Executor, checkpoints,
// trace hooks, the node-path grammar, and error kinds.
//
//	arena := graph.NewGraphArena("root")
//	arena.InsertNode(sourceNode)
//	arena.InsertNode(sinkNode)
//	arena.InsertEdge("Source", "out", "Sink", "in")
//
//	ex := graph.NewExecutor(config.Default(), nil, graph.TraceHooks{})
//	result, err := ex.CookData(ctx, arena, "Sink")
//
// nodes/
// Example compute implementations (constant, doubling transform,
// bounded loop, counter, failing counter, data-gated control gate) used
// by the graph package's tests.
//
// store/
// The CheckpointStore persistence contract plus memory, file, sqlite,
// redis, and postgres backends for durable resume across process
// restarts.
//
// log/
// A small structured-logging interface with a slog-backed default and
// an optional kataras/golog adapter, used for the one thing the core
// logs by default: soft TypeMismatch diagnostics.
//
// config/
// Executor tuning knobs (batch concurrency, checkpoint cadence, a
// runaway-loop step ceiling) with Default/Production/Testing presets.
//
// # Scheduling model
//
// CookFlow drains a ready batch of nodes concurrently, commits their
// results sequentially in batch order, pushes LOOP_AGAIN nodes onto a
// LIFO deferred stack so nested loops unwind innermost-first, and
// emits a checkpoint after every batch. CookData evaluates a node's
// data dependencies lazily, recursively, with no control propagation.
package engine // import "github.com/portgraph/engine"
