package layout

import (
	"math"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"
)

// computeForces fills Acc and Push for every node and applies the branch
// cross-damping to Vel. Each worker writes only the nodes in its own chunk;
// positions are read but not written.
func (e *Engine) computeForces(nodes []*graph.Node) {
	branches := make([]*graph.Node, 0, len(nodes))
	var avg r2.Vec
	for _, n := range nodes {
		if n.Degree() > 1 {
			branches = append(branches, n)
			avg = r2.Add(avg, n.Vel)
		}
	}
	if len(branches) > 0 {
		avg = r2.Scale(1/float64(len(branches)), avg)
	}
	branchSet := make(map[*graph.Node]struct{}, len(branches))
	for _, b := range branches {
		branchSet[b] = struct{}{}
	}

	f := forces{
		cutoff2:   e.cfg.Cutoff * e.cfg.Cutoff,
		drag:      e.cfg.Drag,
		spring:    e.cfg.Spring,
		branches:  branches,
		branchSet: branchSet,
		drift:     r2.Scale(0.5, avg),
	}

	workers := max(1, min(e.cfg.Workers, len(nodes)))
	chunk := (len(nodes) + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < len(nodes); lo += chunk {
		part := nodes[lo:min(lo+chunk, len(nodes))]
		g.Go(func() error {
			for _, n := range part {
				f.apply(n)
			}
			return nil
		})
	}
	_ = g.Wait()
}

type forces struct {
	cutoff2   float64
	drag      float64
	spring    float64
	branches  []*graph.Node
	branchSet map[*graph.Node]struct{}
	drift     r2.Vec // half the mean branch velocity
}

func (f *forces) apply(n *graph.Node) {
	n.Push = r2.Vec{}
	n.Acc = r2.Vec{
		X: -n.Vel.X * math.Abs(n.Vel.X) * f.drag,
		Y: -n.Vel.Y * math.Abs(n.Vel.Y) * f.drag,
	}
	conns := n.Neighbors()
	for _, m := range conns {
		n.Acc = r2.Add(n.Acc, r2.Scale(f.spring, r2.Sub(m.Pos, n.Pos)))
	}
	if len(conns) == 0 {
		return
	}

	for _, b := range f.branches {
		f.repel(n, b, n.IsConnected(b))
	}
	if len(conns) == 1 {
		seen := map[*graph.Node]struct{}{n: {}}
		for _, m := range conns {
			f.nearRepel(n, m, seen)
			for _, k := range m.Neighbors() {
				f.nearRepel(n, k, seen)
			}
		}
	}
	n.Vel = r2.Sub(n.Vel, f.drift)
}

// nearRepel repels n from a node within two hops, once per node and never
// twice for a branch node already handled.
func (f *forces) nearRepel(n, m *graph.Node, seen map[*graph.Node]struct{}) {
	if _, ok := seen[m]; ok {
		return
	}
	seen[m] = struct{}{}
	if _, ok := f.branchSet[m]; ok {
		return
	}
	f.repel(n, m, true)
}

// repel adds the inverse-square repulsion of m to n's acceleration and push.
// Unconnected pairs beyond the cutoff are ignored.
func (f *forces) repel(n, m *graph.Node, near bool) {
	if m == n {
		return
	}
	d2 := n.DistanceSquared(m)
	if d2 > f.cutoff2 && !near {
		return
	}
	mag := n.PushPower() * m.PushPower() / d2
	dir := r2.Scale(1/math.Sqrt(d2), r2.Sub(m.Pos, n.Pos))
	force := r2.Scale(mag, dir)
	n.Acc = r2.Sub(n.Acc, force)
	n.Push = r2.Sub(n.Push, force)
}
