package layout

import (
	"math"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// Jitter returns a small non-negative radial offset for a node.
type Jitter func(n *graph.Node) float64

// NoiseJitter samples simplex noise at the node's ID, so a given node gets
// the same offset every time it is placed with the same seed.
func NoiseJitter(seed int64, amplitude float64) Jitter {
	noise := opensimplex.New(seed)
	return func(n *graph.Node) float64 {
		v := noise.Eval2(float64(n.ID())*0.618, 0.5)
		return (v + 1) / 2 * amplitude
	}
}

// Place puts n on the bisector of the arc [arcStart, arcStart+arcLength) at
// radius depth·mult and recurses into its unvisited deeper neighbours, giving
// each an equal share of the arc. Callers reset visited marks before and
// after.
func Place(n *graph.Node, arcStart, arcLength, mult float64, jitter Jitter) {
	n.Visit()
	radius := mult * float64(n.Depth())
	if jitter != nil {
		radius += jitter(n)
	}
	angle := arcStart + arcLength/2
	n.Pos = r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	n.Vel = r2.Vec{}

	var children []*graph.Node
	for _, m := range n.Neighbors() {
		if !m.Visited() && m.Depth() > n.Depth() {
			children = append(children, m)
		}
	}
	if len(children) == 0 {
		return
	}
	share := arcLength / float64(len(children))
	for i, m := range children {
		if m.Visited() {
			continue
		}
		Place(m, arcStart+share*float64(i), share, mult, jitter)
	}
}
