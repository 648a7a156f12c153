package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portgraph/engine/config"
	"github.com/portgraph/engine/log"
)

// CheckpointLoader is the minimal shape Executor.ResumeFromStore needs
// from a checkpoint-persistence collaborator. store.CheckpointStore
// satisfies it structurally; graph never imports store (that would be
// circular (store imports graph for the ExecutionCheckpoint type).
type CheckpointLoader interface {
	Load(ctx context.Context, checkpointID string) (*ExecutionCheckpoint, error)
}

// Executor is the scheduler proper: dependency resolver, concurrent
// batch runner, control/data propagation, LIFO loop-deferral stack,
// checkpoint emitter. An Executor holds no
// per-run mutable state itself: CookData/CookFlow each build a fresh
// internal run, so one Executor may drive many concurrent,
// independent runs safely.
type Executor struct {
	Logger log.Logger
	Hooks  TraceHooks
	Config config.Config
}

// NewExecutor constructs an Executor. A nil logger defaults to a
// no-op logger; a zero-value hooks struct is already all no-ops.
func NewExecutor(cfg config.Config, logger log.Logger, hooks TraceHooks) *Executor {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Executor{Logger: logger, Hooks: hooks, Config: cfg}
}

type nodeRunState int

const (
	stateFresh nodeRunState = iota
	statePending
	stateReady
	stateRunning
	stateDeferred
	stateDone
)

// run carries all per-invocation scheduler state for one CookFlow or
// CookData call. It is discarded once the call returns.
type run struct {
	ex   *Executor
	root *GraphArena

	// membership maps a node id to every arena it is addressable from.
	// A plain node has exactly one; a SubgraphNode has two (the outer
	// arena it was inserted into, and the inner arena it owns and is
	// self-registered into) so that a single fan-out walk transparently
	// crosses tunnel boundaries in either direction.
	membership map[string][]*GraphArena

	entryNodeID string
	subgraphID  string

	state map[string]nodeRunState

	ready     []string
	deferred  []string
	pending   map[string]map[string]struct{}
	completed []string

	nodeState map[string]map[string]any
	// doneResults memoizes CookData results so a shared ancestor is
	// computed exactly once per run.
	doneResults map[string]ExecutionResult

	seq   int64
	steps int

	runID string
}

func newRun(e *Executor, root *GraphArena) *run {
	return &run{
		ex:          e,
		root:        root,
		membership:  buildMembership(root),
		state:       make(map[string]nodeRunState),
		pending:     make(map[string]map[string]struct{}),
		nodeState:   make(map[string]map[string]any),
		doneResults: make(map[string]ExecutionResult),
		runID:       uuid.NewString(),
	}
}

// buildMembership walks the full arena tree from root, registering
// every node against every arena it is a member of. A SubgraphNode
// self-registers into its own inner arena at construction time (see
// subgraph.go), so walking into a child arena naturally discovers the
// owning node a second time.
func buildMembership(root *GraphArena) map[string][]*GraphArena {
	membership := make(map[string][]*GraphArena)
	visited := make(map[*GraphArena]bool)
	var walk func(a *GraphArena)
	walk = func(a *GraphArena) {
		if a == nil || visited[a] {
			return
		}
		visited[a] = true
		for _, n := range a.Nodes() {
			membership[n.ID()] = append(membership[n.ID()], a)
			if child, ok := a.Child(n.ID()); ok {
				walk(child)
			}
		}
	}
	walk(root)
	return membership
}

func (r *run) lookupNode(id string) (Node, bool) {
	arenas, ok := r.membership[id]
	if !ok || len(arenas) == 0 {
		return nil, false
	}
	return arenas[0].Node(id)
}

func (r *run) nextTimestamp() int64 {
	r.seq++
	return r.seq
}

// ---- dependency resolution ----

func (r *run) introduce(nodeID string) {
	delete(r.pending, nodeID)
	r.state[nodeID] = stateFresh
	r.buildFlowStack(nodeID)
}

func (r *run) buildFlowStack(nodeID string) {
	switch r.state[nodeID] {
	case statePending, stateReady, stateRunning, stateDeferred:
		return
	}
	node, ok := r.lookupNode(nodeID)
	if !ok {
		return
	}
	deps := r.collectDataDeps(nodeID, node)
	if len(deps) == 0 {
		r.state[nodeID] = stateReady
		r.ready = append(r.ready, nodeID)
		return
	}
	r.state[nodeID] = statePending
	r.pending[nodeID] = deps
	for d := range deps {
		r.buildFlowStack(d)
	}
}

// collectDataDeps walks n's dirty data input ports one hop upstream.
// Only "data-producing ancestors" (a pure data node or a Subgraph)
// participate in the pending-dependency wait; a flow-control ancestor
// that is not itself a subgraph resolves its outputs by firing its own
// control edge in its own time, independent of n's pending graph.
func (r *run) collectDataDeps(nodeID string, node Node) map[string]struct{} {
	deps := make(map[string]struct{})
	for portName, p := range node.InputPorts() {
		if p.Fn != Data || !p.Dirty {
			continue
		}
		for _, arena := range r.membership[nodeID] {
			for _, e := range arena.EdgesIncoming(nodeID, portName) {
				if e.Class != Data {
					continue
				}
				srcNode, ok := r.lookupNode(e.FromNode)
				if !ok {
					continue
				}
				_, isSubgraph := srcNode.(*SubgraphNode)
				if srcNode.IsFlowControl() && !isSubgraph {
					continue
				}
				deps[e.FromNode] = struct{}{}
			}
		}
	}
	return deps
}

// ---- compute + propagation ----

func (r *run) computeContextFor(ctx context.Context, nodeID string, node Node) ComputeContext {
	dataIn := make(map[string]any)
	ctrlIn := make(map[string]any)
	for name, p := range node.InputPorts() {
		if p.Fn == Data {
			dataIn[name] = p.Value
		} else {
			ctrlIn[name] = p.Value
		}
	}
	subgraphID, _ := node.ParentSubgraphID()
	return ComputeContext{
		Ctx:           ctx,
		SubgraphID:    subgraphID,
		NodeID:        nodeID,
		NodePath:      nodeID,
		DataInputs:    dataIn,
		ControlInputs: ctrlIn,
	}
}

func (r *run) executeOne(ctx context.Context, nodeID string, node Node) (res ExecutionResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in node %q compute: %v", nodeID, p)
		}
	}()

	if r.ex.Config.ComputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ex.Config.ComputeTimeout)
		defer cancel()
	}

	r.ex.Hooks.fireBefore(nodeID, node.Name())
	start := time.Now()
	res, err = node.Compute(r.computeContextFor(ctx, nodeID, node))
	dur := time.Since(start)
	r.ex.Hooks.fireAfter(nodeID, node.Name(), dur, err)

	res.NodeID = nodeID
	res.RunID = r.runID
	if sg, ok := node.ParentSubgraphID(); ok {
		res.SubgraphID = sg
	}
	return res, err
}

// writePortAndFanOut writes val into (nodeID, portName) and recurses
// across every outgoing edge of the matching class in every arena
// nodeID is a member of. Because a SubgraphNode is registered in both
// its outer and inner arena, a single call starting from either side
// of a tunnel boundary transparently cascades across it, making this
// one mechanism cover outer-to-tunnel-in, tunnel-in-to-child, and
// child-to-tunnel-out propagation alike.
func (r *run) writePortAndFanOut(ctx context.Context, nodeID, portName string, val any, class Function, includeControl bool, visited map[portKey]bool) {
	key := portKey{nodeID, portName}
	if visited[key] {
		return
	}
	visited[key] = true

	for _, arena := range r.membership[nodeID] {
		for _, e := range arena.EdgesOutgoing(nodeID, portName) {
			if e.Class != class {
				continue
			}
			tgtNode, ok := r.lookupNode(e.ToNode)
			if !ok {
				continue
			}
			var mismatch bool
			if p, ok := tgtNode.InputPorts()[e.ToPort]; ok {
				mismatch = p.SetValue(val)
			}
			if mismatch {
				r.ex.Logger.Warn("type mismatch on %s.%s", e.ToNode, e.ToPort)
			}
			if class == Data {
				r.ex.Hooks.fireEdgeData(e.FromNode, e.FromPort, e.ToNode, e.ToPort)
			} else if includeControl {
				r.introduce(e.ToNode)
			}
			r.writePortAndFanOut(ctx, e.ToNode, e.ToPort, val, class, includeControl, visited)
		}
	}
}

// applyResult commits a node's own output ports and propagates every
// data output (and, when includeControl is set, every control output)
// to downstream edges. includeControl is false for CookData, since pure
// data evaluation never drives control edges.
func (r *run) applyResult(ctx context.Context, nodeID string, node Node, res ExecutionResult, includeControl bool) {
	for name, val := range res.DataOutputs {
		if p, ok := node.OutputPorts()[name]; ok {
			p.SetValue(val)
		}
	}
	if includeControl {
		for name, val := range res.ControlOutputs {
			if p, ok := node.OutputPorts()[name]; ok {
				p.SetValue(val)
			}
		}
		// Control outputs propagate before data outputs within each
		// result.
		for name, val := range res.ControlOutputs {
			if val == nil {
				continue
			}
			r.writePortAndFanOut(ctx, nodeID, name, val, Control, true, make(map[portKey]bool))
		}
	}
	for name, val := range res.DataOutputs {
		if val == nil {
			continue
		}
		r.writePortAndFanOut(ctx, nodeID, name, val, Data, includeControl, make(map[portKey]bool))
	}
}

// ---- CookData (pure data-dependency evaluation) ----

// CookData forces computation of node's data inputs, recursively, then
// computes the node itself. No control propagation occurs.
func (e *Executor) CookData(ctx context.Context, root *GraphArena, nodeID string) (ExecutionResult, error) {
	r := newRun(e, root)
	return r.cookDataRecursive(ctx, nodeID)
}

func (r *run) cookDataRecursive(ctx context.Context, nodeID string) (ExecutionResult, error) {
	if res, ok := r.doneResults[nodeID]; ok {
		return res, nil
	}
	node, ok := r.lookupNode(nodeID)
	if !ok {
		return ExecutionResult{}, &GraphShapeError{Kind: NotFound, Detail: "cook_data: unknown node " + nodeID}
	}
	for portName, p := range node.InputPorts() {
		if p.Fn != Data || !p.Dirty {
			continue
		}
		for _, arena := range r.membership[nodeID] {
			for _, e := range arena.EdgesIncoming(nodeID, portName) {
				if e.Class != Data {
					continue
				}
				if _, err := r.cookDataRecursive(ctx, e.FromNode); err != nil {
					return ExecutionResult{}, err
				}
			}
		}
	}

	res, err := r.executeOne(ctx, nodeID, node)
	if err != nil {
		return ExecutionResult{}, &ComputeFailureError{NodeID: nodeID, Err: err}
	}
	r.applyResult(ctx, nodeID, node, res, false)
	r.doneResults[nodeID] = res
	r.completed = append(r.completed, nodeID)
	r.nodeState[nodeID] = node.SerializeState()
	return res, nil
}

// ---- CookFlow ----

// CookFlow drives flow-control execution from node until the ready
// batch and deferred stack are both empty. If resume is non-nil, the
// run restores that checkpoint's scheduler state instead of
// introducing node fresh (node is still required so the caller can
// identify the entry point the checkpoint belongs to; it is ignored in
// favour of resume.RootNodeID when the two disagree would be a caller
// error, so callers should simply pass resume.RootNodeID back in).
func (e *Executor) CookFlow(ctx context.Context, root *GraphArena, nodeID string, resume *ExecutionCheckpoint) (*ExecutionCheckpoint, error) {
	r := newRun(e, root)
	r.entryNodeID = nodeID
	if entry, ok := r.lookupNode(nodeID); ok {
		if sg, ok := entry.ParentSubgraphID(); ok {
			r.subgraphID = sg
		}
	}

	if resume != nil {
		r.restore(resume)
	} else {
		r.introduce(nodeID)
	}

	for len(r.ready) > 0 || len(r.deferred) > 0 {
		r.steps++
		if e.Config.MaxRunSteps > 0 && r.steps > e.Config.MaxRunSteps {
			return nil, &MaxRunStepsExceededError{Steps: e.Config.MaxRunSteps}
		}

		if len(r.ready) == 0 {
			top := r.deferred[len(r.deferred)-1]
			r.deferred = r.deferred[:len(r.deferred)-1]
			r.state[top] = stateReady
			r.ready = append(r.ready, top)
		}

		batch := r.ready
		r.ready = nil
		for _, id := range batch {
			r.state[id] = stateRunning
		}

		results, errs := r.runBatchConcurrently(ctx, batch)
		if failedIdx := firstErrorIndex(errs); failedIdx >= 0 {
			cp := r.buildCheckpoint(batch, batch[failedIdx], errs[failedIdx].Error())
			e.Hooks.fireCheckpoint(cp)
			return cp, &ComputeFailureError{NodeID: batch[failedIdx], Err: errs[failedIdx]}
		}

		completedThisBatch := make([]string, 0, len(batch))
		for i, id := range batch {
			node, _ := r.lookupNode(id)
			res := results[i]
			r.applyResult(ctx, id, node, res, true)

			switch res.Command {
			case LoopAgain:
				r.deferred = append(r.deferred, id)
				r.state[id] = stateDeferred
			default:
				r.state[id] = stateDone
				r.completed = append(r.completed, id)
				completedThisBatch = append(completedThisBatch, id)
				r.nodeState[id] = node.SerializeState()
			}
		}

		for pid, deps := range r.pending {
			changed := false
			for _, c := range completedThisBatch {
				if _, ok := deps[c]; ok {
					delete(deps, c)
					changed = true
				}
			}
			if changed && len(deps) == 0 {
				delete(r.pending, pid)
				r.state[pid] = stateReady
				r.ready = append(r.ready, pid)
			}
		}

		if e.Config.CheckpointEveryBatch {
			cp := r.buildCheckpoint(nil, "", "")
			e.Hooks.fireCheckpoint(cp)
		}
	}

	if len(r.pending) > 0 {
		return nil, &UnsatisfiedDependencyError{Pending: r.pendingSnapshot()}
	}

	cp := r.buildCheckpoint(nil, "", "")
	e.Hooks.fireCheckpoint(cp)
	return cp, nil
}

// ResumeFromStore loads a checkpoint by id from loader and resumes the
// run it describes; a convenience over calling CookFlow with an
// already-loaded checkpoint.
func (e *Executor) ResumeFromStore(ctx context.Context, root *GraphArena, loader CheckpointLoader, checkpointID string) (*ExecutionCheckpoint, error) {
	cp, err := loader.Load(ctx, checkpointID)
	if err != nil {
		return nil, err
	}
	return e.CookFlow(ctx, root, cp.RootNodeID, cp)
}

func (r *run) runBatchConcurrently(ctx context.Context, batch []string) ([]ExecutionResult, []error) {
	results := make([]ExecutionResult, len(batch))
	errs := make([]error, len(batch))

	limit := r.ex.Config.MaxBatchConcurrency
	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	var wg sync.WaitGroup
	for i, id := range batch {
		node, ok := r.lookupNode(id)
		if !ok {
			errs[i] = &GraphShapeError{Kind: NotFound, Detail: "node " + id + " not found in arena"}
			continue
		}
		wg.Add(1)
		go func(i int, id string, node Node) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			res, err := r.executeOne(ctx, id, node)
			results[i] = res
			errs[i] = err
		}(i, id, node)
	}
	wg.Wait()
	return results, errs
}

func firstErrorIndex(errs []error) int {
	for i, err := range errs {
		if err != nil {
			return i
		}
	}
	return -1
}

// ---- checkpointing ----

func (r *run) pendingSnapshot() map[string][]string {
	out := make(map[string][]string, len(r.pending))
	for id, deps := range r.pending {
		list := make([]string, 0, len(deps))
		for d := range deps {
			list = append(list, d)
		}
		out[id] = list
	}
	return out
}

func (r *run) buildCheckpoint(failedBatch []string, failedNodeID, failedErr string) *ExecutionCheckpoint {
	ready := append([]string(nil), r.ready...)
	if failedBatch != nil {
		// The failing batch becomes the new ready list so a resume
		// re-runs it whole.
		ready = append([]string(nil), failedBatch...)
	}
	nodeState := make(map[string]map[string]any, len(r.nodeState))
	for k, v := range r.nodeState {
		cp := make(map[string]any, len(v))
		for kk, vv := range v {
			cp[kk] = vv
		}
		nodeState[k] = cp
	}
	// Every currently-pending node is captured live too, so a resume
	// restores the inputs it had already received.
	for id := range r.pending {
		if node, ok := r.lookupNode(id); ok {
			nodeState[id] = node.SerializeState()
		}
	}
	// A failing batch's members may already carry a stale NodeState
	// entry from an earlier completion (e.g. a Counter that finished a
	// prior batch before being re-introduced into this one). Overwrite
	// with each member's live state as of the moment of failure, so
	// Resume restores the inputs that were actually in flight rather
	// than the snapshot from that node's last commit.
	for _, id := range failedBatch {
		if node, ok := r.lookupNode(id); ok {
			nodeState[id] = node.SerializeState()
		}
	}
	return &ExecutionCheckpoint{
		RootNodeID:   r.entryNodeID,
		SubgraphID:   r.subgraphID,
		Ready:        ready,
		Deferred:     append([]string(nil), r.deferred...),
		Pending:      r.pendingSnapshot(),
		Completed:    append([]string(nil), r.completed...),
		NodeState:    nodeState,
		FailedNodeID: failedNodeID,
		FailedError:  failedErr,
		Timestamp:    r.nextTimestamp(),
	}
}

// restore re-seeds a run's scheduler state from a checkpoint. The
// deferred stack is stored bottom-to-top, so push/pop semantics
// survive restore unchanged.
func (r *run) restore(cp *ExecutionCheckpoint) {
	r.entryNodeID = cp.RootNodeID
	r.subgraphID = cp.SubgraphID
	r.completed = append([]string(nil), cp.Completed...)
	r.deferred = append([]string(nil), cp.Deferred...)
	for _, id := range r.deferred {
		r.state[id] = stateDeferred
	}
	r.ready = append([]string(nil), cp.Ready...)
	for _, id := range r.ready {
		r.state[id] = stateReady
	}
	r.pending = make(map[string]map[string]struct{}, len(cp.Pending))
	for id, deps := range cp.Pending {
		set := make(map[string]struct{}, len(deps))
		for _, d := range deps {
			set[d] = struct{}{}
		}
		r.pending[id] = set
		r.state[id] = statePending
	}
	for id, state := range cp.NodeState {
		if node, ok := r.lookupNode(id); ok {
			_ = node.DeserializeState(state)
		}
		r.nodeState[id] = state
	}
}
