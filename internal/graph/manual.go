package graph

import (
	"fmt"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// ManualSize is the radius of hand-placed nodes.
const ManualSize = 0.2

// Manual is a node placed by the user.
type Manual struct {
	Text string
}

// NewManual creates a hand-placed node carrying text at pos.
func NewManual(text string, pos r2.Vec) *Node {
	return New(&Manual{Text: text}, pos, ManualSize)
}

// PushPower uses the degree-based default.
func (m *Manual) PushPower(n *Node) float64 { return DefaultPushPower(n) }

// Fill reports a hollow node.
func (m *Manual) Fill(*Node, Focus) (colorful.Color, bool) { return colorful.Color{}, false }

// Outline colours the border by hover, click, remove and press state.
func (m *Manual) Outline(n *Node, f Focus) Stroke {
	if f.Removing && f.Hovered == n {
		if f.PointerDown {
			return Stroke{Color: black, Width: 1}
		}
		return Stroke{Color: red, Width: 1}
	}
	if f.Clicked == n {
		switch {
		case f.PointerDown && f.Hovered == n:
			return Stroke{Color: yellow, Width: 2}
		case f.PointerDown && f.Hovered != nil && n.IsConnected(f.Hovered):
			return Stroke{Color: white, Width: 2}
		}
		return Stroke{Color: green, Width: 2}
	}
	if f.Hovered != n {
		return Stroke{Color: white, Width: 1}
	}
	if f.PointerDown && (f.Clicked == nil || !n.IsConnected(f.Clicked)) {
		return Stroke{Color: green, Width: 1}
	}
	return Stroke{Color: yellow, Width: 1}
}

// Edge draws in light gray.
func (m *Manual) Edge(*Node, *Node) Stroke { return Stroke{Color: lightGray, Width: 1} }

// Label shows the text only while hovered.
func (m *Manual) Label(n *Node, f Focus) bool { return f.Hovered == n }

// Summary is the node's text under a heading.
func (m *Manual) Summary(*Node) []string {
	return []string{"Data:", m.Text}
}

// Detail adds location, depth and degree to the summary.
func (m *Manual) Detail(n *Node) []string {
	depth := "unset"
	if d := n.Depth(); d != Unset {
		depth = strconv.Itoa(d)
	}
	return []string{
		"Data:", m.Text,
		"Location:", fmt.Sprintf("(%.2f, %.2f)", n.Pos.X, n.Pos.Y),
		"Min steps from root node:", depth,
		"Connections:", strconv.Itoa(n.Degree()),
	}
}
