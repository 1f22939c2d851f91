package graph

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultSize is the radius given to nodes created without an explicit size.
const DefaultSize = 0.1

// Kind is the per-variant behaviour of a node. The layout engine and the
// store only use PushPower; everything else is read by renderers.
type Kind interface {
	// PushPower is the node's repulsion strength, monotone in degree.
	PushPower(n *Node) float64
	// Fill is the colour the node body is painted with; ok is false for
	// hollow nodes.
	Fill(n *Node, f Focus) (c colorful.Color, ok bool)
	// Outline styles the node border for the current selection state.
	Outline(n *Node, f Focus) Stroke
	// Edge styles the edge from n to other.
	Edge(n, other *Node) Stroke
	// Label reports whether the summary box is shown.
	Label(n *Node, f Focus) bool
	// Summary is the short label text, one entry per line.
	Summary(n *Node) []string
	// Detail is the long description of the node, one entry per line.
	Detail(n *Node) []string
}

// Keyed is implemented by kinds that can be found by an external key.
type Keyed interface {
	Keys() []string
}

// Focus is the selection state a style query is evaluated against.
type Focus struct {
	Hovered     *Node
	Clicked     *Node
	Removing    bool
	PointerDown bool
}

// Stroke is a line colour and width in cells.
type Stroke struct {
	Color colorful.Color
	Width int
}

// DefaultPushPower is degree - 0.75.
func DefaultPushPower(n *Node) float64 {
	return float64(n.Degree()) - 0.75
}

const (
	urlPrefix   = "url:"
	titlePrefix = "title:"
)

// URLKey is the store key of an external identifier.
func URLKey(id string) string { return urlPrefix + id }

// TitleKey is the store key of a resolved title.
func TitleKey(title string) string { return titlePrefix + title }

var (
	black     = colorful.Color{}
	white     = colorful.Color{R: 1, G: 1, B: 1}
	red       = colorful.Color{R: 1}
	green     = colorful.Color{G: 0.5}
	yellow    = colorful.Color{R: 1, G: 1}
	lightGray = colorful.Color{R: 0.83, G: 0.83, B: 0.83}
)
