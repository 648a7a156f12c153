// Package graph implements a dataflow-plus-control-flow graph
// execution engine: nodes carry two orthogonal kinds of ports, typed
// data ports whose values flow lazily along edges, and control ports
// whose activations drive loop-back and branch selection, and
// arbitrarily nested subgraphs tunnel values across scope boundaries
// via IN_OUT ports.
//
// # Core Concepts
//
// A Port is a typed, directional connection point on a Node (data or
// control, in/out/in-out). A Node is an addressable computation unit
// exposing named input and output ports plus a Compute operation. A
// GraphArena indexes the nodes and edges of one scope (root or
// subgraph) with O(1) adjacency lookups and hierarchical path
// addressing. A SubgraphNode owns a nested GraphArena and exposes
// tunneling ports that relay values between outer and inner scopes.
//
// The Executor is the scheduler: CookData evaluates a node's data
// dependencies lazily with no control propagation; CookFlow drives
// flow-control execution from an entry node, maintaining ready/pending
// stacks and a LIFO deferred stack for nested-loop re-entry, executing
// each ready batch concurrently and committing results in
// deterministic batch order. ExecutionCheckpoint is the serialisable
// mid-run snapshot emitted after every batch (and on failure);
// TraceHooks are the four external observation points (before/after
// compute, edge data transfer, checkpoint emission).
//
// # Node kinds
//
// This package defines the contract only. Concrete node kinds
// (constants, transforms, loops, counters, gates) live in the sibling
// nodes package and are registered into a Registry by callers. The
// Registry itself carries no global state, so distinct callers,
// tests, or tenants never bleed state into one another.
package graph
