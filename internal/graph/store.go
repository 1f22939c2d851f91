package graph

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Store is the ordered collection of live nodes shared by the crawler, the
// layout engine, the interaction controller and renderers.
//
// All structural mutation and every full iteration happens inside Do, which
// holds a single exclusive lock. Hover and click selections are kept as node
// IDs and resolved against current membership, so a selection never outlives
// its node.
type Store struct {
	mu    sync.Mutex
	nodes []*Node
	index map[ID]int
	keys  map[string]*Node

	hovered atomic.Uint64
	clicked atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[ID]int),
		keys:  make(map[string]*Node),
	}
}

// Tx is the view of the store inside an exclusive section. It must not be
// retained after the section returns.
type Tx struct {
	s *Store
}

// Do runs fn with the store locked.
func (s *Store) Do(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Add appends n to the store.
func (s *Store) Add(n *Node) {
	s.Do(func(tx *Tx) { tx.Add(n) })
}

// Remove deletes n and all edges incident to it. It reports whether n was
// present.
func (s *Store) Remove(n *Node) bool {
	var ok bool
	s.Do(func(tx *Tx) { ok = tx.Remove(n) })
	return ok
}

// Contains reports whether n is live.
func (s *Store) Contains(n *Node) bool {
	var ok bool
	s.Do(func(tx *Tx) { ok = tx.Contains(n) })
	return ok
}

// Lookup returns the node registered under key, or nil.
func (s *Store) Lookup(key string) *Node {
	var n *Node
	s.Do(func(tx *Tx) { n = tx.Lookup(key) })
	return n
}

// Len returns the number of live nodes.
func (s *Store) Len() int {
	var n int
	s.Do(func(tx *Tx) { n = tx.Len() })
	return n
}

// Nodes returns a snapshot of the node list.
func (s *Store) Nodes() []*Node {
	var nodes []*Node
	s.Do(func(tx *Tx) { nodes = slices.Clone(tx.Nodes()) })
	return nodes
}

// HoveredID returns the hovered node's ID without locking. The node may
// already be gone; resolve it with Tx.Hovered when that matters.
func (s *Store) HoveredID() ID { return ID(s.hovered.Load()) }

// ClickedID is the lock-free counterpart of Tx.Clicked.
func (s *Store) ClickedID() ID { return ID(s.clicked.Load()) }

// Add appends n. Adding a live node is a no-op.
func (tx *Tx) Add(n *Node) {
	s := tx.s
	if _, ok := s.index[n.ID()]; ok {
		return
	}
	s.index[n.ID()] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	if k, ok := n.Kind().(Keyed); ok {
		for _, key := range k.Keys() {
			if _, taken := s.keys[key]; !taken {
				s.keys[key] = n
			}
		}
	}
}

// Remove deletes n, severs its edges and clears any selection pointing at it.
func (tx *Tx) Remove(n *Node) bool {
	s := tx.s
	i, ok := s.index[n.ID()]
	if !ok {
		return false
	}
	for _, m := range n.Neighbors() {
		if p, ok := PageOf(m); ok {
			p.RemoveOutgoing(n)
		}
	}
	n.DisconnectAll()

	s.nodes = slices.Delete(s.nodes, i, i+1)
	delete(s.index, n.ID())
	for j := i; j < len(s.nodes); j++ {
		s.index[s.nodes[j].ID()] = j
	}
	for key, m := range s.keys {
		if m == n {
			delete(s.keys, key)
		}
	}
	s.hovered.CompareAndSwap(uint64(n.ID()), 0)
	s.clicked.CompareAndSwap(uint64(n.ID()), 0)
	return true
}

// Contains reports whether n is live.
func (tx *Tx) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	_, ok := tx.s.index[n.ID()]
	return ok
}

// IndexOf returns n's position in store order, or -1.
func (tx *Tx) IndexOf(n *Node) int {
	if n == nil {
		return -1
	}
	if i, ok := tx.s.index[n.ID()]; ok {
		return i
	}
	return -1
}

// Get returns the live node with the given ID, or nil.
func (tx *Tx) Get(id ID) *Node {
	if i, ok := tx.s.index[id]; ok {
		return tx.s.nodes[i]
	}
	return nil
}

// Lookup returns the node registered under key, or nil.
func (tx *Tx) Lookup(key string) *Node {
	return tx.s.keys[key]
}

// Alias registers an extra key for a live node.
func (tx *Tx) Alias(n *Node, key string) {
	if !tx.Contains(n) {
		return
	}
	if _, taken := tx.s.keys[key]; !taken {
		tx.s.keys[key] = n
	}
	if p, ok := PageOf(n); ok {
		if id, ok := strings.CutPrefix(key, urlPrefix); ok {
			p.AddAlias(id)
		}
	}
}

// Nodes returns the live node list in store order. The slice is only valid
// inside the current section.
func (tx *Tx) Nodes() []*Node { return tx.s.nodes }

// Len returns the number of live nodes.
func (tx *Tx) Len() int { return len(tx.s.nodes) }

// Hovered returns the hovered node if it is still live.
func (tx *Tx) Hovered() *Node { return tx.Get(ID(tx.s.hovered.Load())) }

// Clicked returns the clicked node if it is still live.
func (tx *Tx) Clicked() *Node { return tx.Get(ID(tx.s.clicked.Load())) }

// SetHovered replaces the hover selection; nil clears it.
func (tx *Tx) SetHovered(n *Node) { tx.s.hovered.Store(uint64(tx.selectable(n))) }

// SetClicked replaces the click selection; nil clears it.
func (tx *Tx) SetClicked(n *Node) { tx.s.clicked.Store(uint64(tx.selectable(n))) }

func (tx *Tx) selectable(n *Node) ID {
	if !tx.Contains(n) {
		return 0
	}
	return n.ID()
}

// ResetVisited clears the traversal mark on every node.
func (tx *Tx) ResetVisited() {
	for _, n := range tx.s.nodes {
		n.ClearVisited()
	}
}

// ResetDepths marks every node as unreached.
func (tx *Tx) ResetDepths() {
	for _, n := range tx.s.nodes {
		n.SetDepth(Unset)
	}
}
