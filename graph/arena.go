package graph

import (
	"strings"
	"sync"
)

// Edge is a directed connection between two ports. Its Class is derived
// from the function of its source port: a CONTROL source produces a
// CONTROL edge, a DATA source a DATA edge.
type Edge struct {
	FromNode string
	FromPort string
	ToNode   string
	ToPort   string
	Class    Function
}

type portKey struct {
	node string
	port string
}

// GraphArena is the indexed collection of nodes and edges within one
// scope (root or subgraph). It answers adjacency queries in O(1)
// amortised time via two indices and computes hierarchical paths for
// node addressing.
type GraphArena struct {
	mu sync.RWMutex

	// name is this arena's own path segment. The root arena's name
	// forms the first segment of every path, never elided.
	name string

	// ownerNodeID is the id of the Subgraph node (in the parent arena)
	// that owns this arena, empty for the root arena. Storing only the
	// id (not a pointer to the parent arena or node) keeps the
	// hierarchy free of mutable back-reference cycles; ResolvePath
	// descends from the root, it never climbs up.
	ownerNodeID string

	nodes    map[string]Node
	edges    []Edge
	incoming map[portKey][]Edge // (to-node, to-port)   -> edges in
	outgoing map[portKey][]Edge // (from-node, from-port) -> edges out

	// children maps a Subgraph node's id (within this arena) to the
	// GraphArena it owns, so path resolution and upstream/downstream
	// tunnel walks can descend without asking the node to expose its
	// internals through an untyped interface.
	children map[string]*GraphArena
}

// NewGraphArena constructs an empty arena. name is this arena's path
// segment.
func NewGraphArena(name string) *GraphArena {
	return &GraphArena{
		name:     name,
		nodes:    make(map[string]Node),
		incoming: make(map[portKey][]Edge),
		outgoing: make(map[portKey][]Edge),
		children: make(map[string]*GraphArena),
	}
}

// Name returns this arena's own path segment.
func (a *GraphArena) Name() string { return a.name }

// InsertNode adds n to the arena. Fails with a DuplicateID
// GraphShapeError if n.ID() is already present.
func (a *GraphArena) InsertNode(n Node) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.nodes[n.ID()]; exists {
		return newShapeError(DuplicateID, "node id "+n.ID()+" already present")
	}
	a.nodes[n.ID()] = n
	return nil
}

// AttachSubgraph registers inner as the nested arena owned by the
// Subgraph node nodeID (which must already have been inserted via
// InsertNode). It is a separate step from InsertNode so a SubgraphNode
// and its inner arena can be constructed independently and wired
// together once both exist.
func (a *GraphArena) AttachSubgraph(nodeID string, inner *GraphArena) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.nodes[nodeID]; !exists {
		return newShapeError(NotFound, "node id "+nodeID+" not present")
	}
	inner.ownerNodeID = nodeID
	a.children[nodeID] = inner
	return nil
}

// Node returns the node with the given id, or (nil, false).
func (a *GraphArena) Node(id string) (Node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, ok := a.nodes[id]
	return n, ok
}

// Nodes returns every node directly owned by this arena (not
// descendants). Order is unspecified.
func (a *GraphArena) Nodes() []Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Node, 0, len(a.nodes))
	for _, n := range a.nodes {
		out = append(out, n)
	}
	return out
}

// RemoveNode drops id and every edge touching it. Fails with a NotFound
// GraphShapeError if id is absent.
func (a *GraphArena) RemoveNode(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.nodes[id]; !exists {
		return newShapeError(NotFound, "node id "+id+" not present")
	}
	kept := a.edges[:0:0]
	for _, e := range a.edges {
		if e.FromNode == id || e.ToNode == id {
			continue
		}
		kept = append(kept, e)
	}
	a.edges = kept
	a.rebuildIndicesLocked()
	delete(a.nodes, id)
	delete(a.children, id)
	return nil
}

func (a *GraphArena) rebuildIndicesLocked() {
	a.incoming = make(map[portKey][]Edge)
	a.outgoing = make(map[portKey][]Edge)
	for _, e := range a.edges {
		a.incoming[portKey{e.ToNode, e.ToPort}] = append(a.incoming[portKey{e.ToNode, e.ToPort}], e)
		a.outgoing[portKey{e.FromNode, e.FromPort}] = append(a.outgoing[portKey{e.FromNode, e.FromPort}], e)
	}
}

// InsertEdge appends an edge from (from,fromPort) to (to,toPort) and
// updates both adjacency indices. A data input port carries at most one
// incoming data edge, and the edge's class must match both endpoints'
// port functions; violations fail with an EdgeRejected GraphShapeError.
func (a *GraphArena) InsertEdge(from, fromPort, to, toPort string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	fromNode, ok := a.nodes[from]
	if !ok {
		return newShapeError(NotFound, "source node "+from+" not present")
	}
	toNode, ok := a.nodes[to]
	if !ok {
		return newShapeError(NotFound, "target node "+to+" not present")
	}
	srcPort, ok := portByName(fromNode.OutputPorts(), fromPort)
	if !ok {
		return newShapeError(EdgeRejected, "source port "+from+"."+fromPort+" is not an output port")
	}
	dstPort, ok := portByName(toNode.InputPorts(), toPort)
	if !ok {
		return newShapeError(EdgeRejected, "target port "+to+"."+toPort+" is not an input port")
	}

	class := srcPort.Fn
	if dstPort.Fn != class {
		return newShapeError(EdgeRejected, "port function mismatch: "+from+"."+fromPort+" is "+srcPort.Fn.String()+", "+to+"."+toPort+" is "+dstPort.Fn.String())
	}

	if class == Data && dstPort.Dir != InOut {
		// A DATA input port carries at most one incoming data edge.
		if existing := a.incoming[portKey{to, toPort}]; len(existing) > 0 {
			for _, e := range existing {
				if e.Class == Data {
					return newShapeError(EdgeRejected, "target port "+to+"."+toPort+" already has an incoming data edge")
				}
			}
		}
	}
	if class == Data && dstPort.Dir == InOut {
		// A subgraph IN_OUT input port may have at most one incoming
		// edge from the outer scope.
		if existing := a.incoming[portKey{to, toPort}]; len(existing) > 0 {
			return newShapeError(EdgeRejected, "tunnel input port "+to+"."+toPort+" already has an incoming edge")
		}
	}

	e := Edge{FromNode: from, FromPort: fromPort, ToNode: to, ToPort: toPort, Class: class}
	a.edges = append(a.edges, e)
	a.incoming[portKey{to, toPort}] = append(a.incoming[portKey{to, toPort}], e)
	a.outgoing[portKey{from, fromPort}] = append(a.outgoing[portKey{from, fromPort}], e)
	return nil
}

func portByName(ports map[string]*Port, name string) (*Port, bool) {
	p, ok := ports[name]
	return p, ok
}

// EdgesIncoming returns the (possibly empty) ordered sequence of edges
// terminating at (to, toPort).
func (a *GraphArena) EdgesIncoming(to, toPort string) []Edge {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Edge(nil), a.incoming[portKey{to, toPort}]...)
}

// EdgesOutgoing returns the (possibly empty) ordered sequence of edges
// originating at (from, fromPort).
func (a *GraphArena) EdgesOutgoing(from, fromPort string) []Edge {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Edge(nil), a.outgoing[portKey{from, fromPort}]...)
}

// Child returns the inner arena owned by the Subgraph node nodeID, if
// any.
func (a *GraphArena) Child(nodeID string) (*GraphArena, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.children[nodeID]
	return c, ok
}

// ResolvePath traverses the parent subgraph chain described by an
// absolute path string:
//
//	path       := '/' segment { '/' segment } segment-node?
//	segment    := subgraph-name
//	segment-node := ':' node-name
//
// a (the receiver) must be the root arena; ResolvePath always starts
// from the top, matching the grammar's "root subgraph's name forms the
// first segment, never elided."
func (a *GraphArena) ResolvePath(path string) (Node, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, newShapeError(NotFound, "path must be absolute: "+path)
	}
	body := path[1:]

	var leafName string
	if idx := strings.LastIndex(body, ":"); idx >= 0 {
		leafName = body[idx+1:]
		body = body[:idx]
	}
	segments := strings.Split(body, "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil, newShapeError(NotFound, "empty path: "+path)
	}
	if segments[0] != a.name {
		return nil, newShapeError(NotFound, "root segment mismatch: expected "+a.name+", got "+segments[0])
	}

	current := a
	var lastSubgraphNode Node // the Node for `current`, once we've descended at least once
	for _, seg := range segments[1:] {
		var next *GraphArena
		var nextNode Node
		current.mu.RLock()
		for id, child := range current.children {
			if n, ok := current.nodes[id]; ok && n.Name() == seg {
				next, nextNode = child, n
				break
			}
		}
		current.mu.RUnlock()
		if next == nil {
			return nil, newShapeError(NotFound, "no subgraph segment "+seg+" in path "+path)
		}
		current, lastSubgraphNode = next, nextNode
	}

	if leafName == "" {
		// The path addresses the subgraph itself.
		if lastSubgraphNode == nil {
			return nil, newShapeError(NotFound, "path addresses the root arena, which has no Node")
		}
		return lastSubgraphNode, nil
	}

	current.mu.RLock()
	defer current.mu.RUnlock()
	for _, n := range current.nodes {
		if n.Name() == leafName {
			return n, nil
		}
	}
	return nil, newShapeError(NotFound, "no leaf node "+leafName+" in path "+path)
}

// PortRef addresses a single port for the upstream/downstream walks.
type PortRef struct {
	NodeID string
	Port   string
}

// membershipIndex maps every node id reachable from a (the root of a
// walk, usually the root arena) to the arenas it is addressable from.
// A plain node has exactly one; a Subgraph node has two: the arena it
// was inserted into and the inner arena it self-registers into. Walking
// a tunnel port's edges across all of its arenas is what lets the
// upstream/downstream walks cross subgraph boundaries transparently.
func (a *GraphArena) membershipIndex() map[string][]*GraphArena {
	membership := make(map[string][]*GraphArena)
	visited := make(map[*GraphArena]bool)
	var walk func(arena *GraphArena)
	walk = func(arena *GraphArena) {
		if arena == nil || visited[arena] {
			return
		}
		visited[arena] = true
		for _, n := range arena.Nodes() {
			membership[n.ID()] = append(membership[n.ID()], arena)
			if child, ok := arena.Child(n.ID()); ok {
				walk(child)
			}
		}
	}
	walk(a)
	return membership
}

// UpstreamPorts walks backward from port, recursively, transparently
// crossing IN_OUT tunneling ports: an edge terminating at a subgraph's
// tunnel port continues from that same port's incoming edges in the
// adjacent scope. When includeTunnel is false the result contains only
// terminal leaf ports (IN or OUT on a leaf node); when true,
// intermediate IN_OUT ports are included too. a must be the arena the
// walk is rooted under (the root arena covers every scope).
func (a *GraphArena) UpstreamPorts(port PortRef, includeTunnel bool) []PortRef {
	membership := a.membershipIndex()
	var out []PortRef
	seen := make(map[PortRef]bool)
	var walk func(p PortRef)
	walk = func(p PortRef) {
		if seen[p] {
			return
		}
		seen[p] = true
		for _, arena := range membership[p.NodeID] {
			for _, e := range arena.EdgesIncoming(p.NodeID, p.Port) {
				src := PortRef{e.FromNode, e.FromPort}
				srcNode, ok := arena.Node(e.FromNode)
				if ok && isInOutPort(srcNode, e.FromPort) {
					if includeTunnel && !seen[src] {
						out = append(out, src)
					}
				} else if !seen[src] {
					out = append(out, src)
				}
				walk(src)
			}
		}
	}
	walk(port)
	return out
}

// DownstreamPorts is the symmetric walk forward from port.
func (a *GraphArena) DownstreamPorts(port PortRef, includeTunnel bool) []PortRef {
	membership := a.membershipIndex()
	var out []PortRef
	seen := make(map[PortRef]bool)
	var walk func(p PortRef)
	walk = func(p PortRef) {
		if seen[p] {
			return
		}
		seen[p] = true
		for _, arena := range membership[p.NodeID] {
			for _, e := range arena.EdgesOutgoing(p.NodeID, p.Port) {
				dst := PortRef{e.ToNode, e.ToPort}
				dstNode, ok := arena.Node(e.ToNode)
				if ok && isInOutPort(dstNode, e.ToPort) {
					if includeTunnel && !seen[dst] {
						out = append(out, dst)
					}
				} else if !seen[dst] {
					out = append(out, dst)
				}
				walk(dst)
			}
		}
	}
	walk(port)
	return out
}

func isInOutPort(n Node, name string) bool {
	if p, ok := n.InputPorts()[name]; ok && p.Dir == InOut {
		return true
	}
	if p, ok := n.OutputPorts()[name]; ok && p.Dir == InOut {
		return true
	}
	return false
}
