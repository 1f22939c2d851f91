// Package graph provides the shared node model and the concurrency-safe store
// that the crawler, the layout engine and the interaction controller mutate.
package graph

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r2"
)

// Unset is the depth of a node that has not been reached from a root yet.
const Unset = math.MaxInt

// ID identifies a node for its whole lifetime. IDs are never reused.
type ID uint64

var lastID atomic.Uint64

func nextID() ID {
	return ID(lastID.Add(1))
}

// Node is a vertex of the displayed graph.
//
// Geometric fields (Pos, Vel, Acc, Push) are owned by the layout engine and
// are only written while the store lock is held. The adjacency list has its
// own lock so that per-node work in a layout tick can read neighbours
// without contending on the store.
type Node struct {
	Pos  r2.Vec
	Vel  r2.Vec
	Acc  r2.Vec
	Push r2.Vec // repulsion-only share of Acc from the last tick
	Size float64

	id      ID
	kind    Kind
	depth   int
	visited bool

	mu    sync.RWMutex
	conns []*Node
}

// New creates an unconnected node of the given kind at pos.
func New(kind Kind, pos r2.Vec, size float64) *Node {
	if size <= 0 {
		size = DefaultSize
	}
	return &Node{
		id:    nextID(),
		kind:  kind,
		Pos:   pos,
		Size:  size,
		depth: Unset,
	}
}

// ID returns the node's identity.
func (n *Node) ID() ID { return n.id }

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Degree returns the number of connections.
func (n *Node) Degree() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.conns)
}

// Neighbors returns a copy of the adjacency list.
func (n *Node) Neighbors() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.conns)
}

// IsConnected reports whether m is adjacent to n.
func (n *Node) IsConnected(m *Node) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Contains(n.conns, m)
}

// Connect adds an undirected edge between n and m. It reports false when the
// edge already exists or m is n. When the new edge gives either side a
// shorter path to the root, the improvement is propagated through its
// component.
func (n *Node) Connect(m *Node) bool {
	if m == nil || m == n || n.IsConnected(m) {
		return false
	}
	n.mu.Lock()
	n.conns = append(n.conns, m)
	n.mu.Unlock()
	m.mu.Lock()
	m.conns = append(m.conns, n)
	m.mu.Unlock()

	switch {
	case n.depth != Unset && m.depth > n.depth+1:
		m.AssignDepth(n.depth + 1)
	case m.depth != Unset && n.depth > m.depth+1:
		n.AssignDepth(m.depth + 1)
	}
	return true
}

// Disconnect removes the edge between n and m from both sides. It reports
// whether an edge was removed.
func (n *Node) Disconnect(m *Node) bool {
	if m == nil || !n.detach(m) {
		return false
	}
	m.detach(n)
	return true
}

// DisconnectAll removes every edge incident to n, including the reciprocal
// entries held by its neighbours.
func (n *Node) DisconnectAll() {
	n.mu.Lock()
	conns := n.conns
	n.conns = nil
	n.mu.Unlock()
	for _, m := range conns {
		m.detach(n)
	}
}

func (n *Node) detach(m *Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := slices.Index(n.conns, m)
	if i < 0 {
		return false
	}
	n.conns = slices.Delete(n.conns, i, i+1)
	return true
}

// Contains hit-tests p against the node's circular extent in node space.
func (n *Node) Contains(p r2.Vec) bool {
	return r2.Norm2(r2.Sub(n.Pos, p)) <= n.Size*n.Size
}

// DistanceSquared returns the squared distance between n and m, never less
// than n.Size² so that coincident nodes yield a finite repulsion.
func (n *Node) DistanceSquared(m *Node) float64 {
	return math.Max(r2.Norm2(r2.Sub(n.Pos, m.Pos)), n.Size*n.Size)
}

// MoveTo places the node at p.
func (n *Node) MoveTo(p r2.Vec) {
	n.Pos = p
}

// PushPower is the node's repulsion strength.
func (n *Node) PushPower() float64 {
	return n.kind.PushPower(n)
}

// Depth returns the hop count from the root, or Unset.
func (n *Node) Depth() int { return n.depth }

// SetDepth overwrites the depth without propagation.
func (n *Node) SetDepth(d int) { n.depth = d }

// AssignDepth sets n's depth to d and relaxes the depth of every node that
// can now be reached in fewer hops. Only strict improvements are followed,
// so the walk terminates on cyclic graphs.
func (n *Node) AssignDepth(d int) {
	n.depth = d
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range cur.Neighbors() {
			if c.depth > cur.depth+1 {
				c.depth = cur.depth + 1
				queue = append(queue, c)
			}
		}
	}
}

// Visit marks the node for the traversal in progress.
func (n *Node) Visit() { n.visited = true }

// Visited reports whether the node was marked by the current traversal.
func (n *Node) Visited() bool { return n.visited }

// ClearVisited resets the traversal mark.
func (n *Node) ClearVisited() { n.visited = false }
