package interact

import (
	"testing"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

type fakeSim struct {
	paused bool
	seeded *graph.Node
}

func (f *fakeSim) TogglePause() bool { f.paused = !f.paused; return f.paused }

func (f *fakeSim) Seed(_ *graph.Tx, root *graph.Node) { f.seeded = root }

// newController returns a controller over a 200×100 screen whose node-space
// origin sits at screen (100, 50), 20 units per node unit.
func newController(t *testing.T, nodes ...*graph.Node) (*Controller, *graph.Store, *fakeSim) {
	t.Helper()
	s := graph.NewStore()
	for _, n := range nodes {
		s.Add(n)
	}
	sim := &fakeSim{}
	c := New(s, sim, 1, nil)
	c.Resize(200, 100)
	return c, s, sim
}

// screen returns the screen point for a node-space point.
func screen(c *Controller, x, y float64) (float64, float64) {
	p := c.View().ToScreen(r2.Vec{X: x, Y: y})
	return p.X, p.Y
}

func click(c *Controller, x, y float64) {
	sx, sy := screen(c, x, y)
	c.PointerMove(sx, sy)
	c.PointerDown(false, false)
	c.PointerUp()
}

func TestViewRoundTrip(t *testing.T) {
	v := View{Origin: r2.Vec{X: 10, Y: -4}, Scale: r2.Vec{X: 40, Y: 20}}
	p := r2.Vec{X: 1.5, Y: -2}
	got := v.ToNode(v.ToScreen(p))
	assert.InDelta(t, p.X, got.X, 1e-12)
	assert.InDelta(t, p.Y, got.Y, 1e-12)
}

func TestHoverPrefersCurrentNode(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{X: 0, Y: 0})
	b := graph.NewManual("b", r2.Vec{X: 0.1, Y: 0})
	c, s, _ := newController(t, a, b)

	c.PointerMove(screen(c, 0.15, 0))
	assert.Equal(t, a.ID(), s.HoveredID(), "first hit in store order")

	c.PointerMove(screen(c, 0.18, 0))
	assert.Equal(t, a.ID(), s.HoveredID(), "still inside the hovered node")

	c.PointerMove(screen(c, 0.25, 0))
	assert.Equal(t, b.ID(), s.HoveredID())

	c.PointerMove(screen(c, 5, 5))
	assert.Zero(t, s.HoveredID())
}

func TestClickToConnect(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{X: -1, Y: 0})
	b := graph.NewManual("b", r2.Vec{X: 1, Y: 0})
	c, s, _ := newController(t, a, b)

	click(c, -1, 0)
	assert.Equal(t, a.ID(), s.ClickedID())

	click(c, 1, 0)
	assert.True(t, a.IsConnected(b))
	assert.Equal(t, a.ID(), s.ClickedID(), "clicked stays for the next wire")

	// already connected: b takes over as the clicked node
	click(c, 1, 0)
	assert.Equal(t, b.ID(), s.ClickedID())

	// clicking the clicked node clears it
	click(c, 1, 0)
	assert.Zero(t, s.ClickedID())
}

func TestEmptySpaceCreatesNode(t *testing.T) {
	c, s, _ := newController(t)

	click(c, 2, 1)
	require.Equal(t, 1, s.Len())
	first := s.Nodes()[0]
	assert.Equal(t, 0, first.Depth())
	assert.InDelta(t, 2, first.Pos.X, 1e-9)
	assert.InDelta(t, 1, first.Pos.Y, 1e-9)
	assert.Equal(t, first.ID(), s.ClickedID())
	assert.Equal(t, first.ID(), s.HoveredID())

	click(c, -2, 1)
	require.Equal(t, 2, s.Len())
	second := s.Nodes()[1]
	assert.True(t, first.IsConnected(second))
	assert.Equal(t, 1, second.Depth())
	assert.Equal(t, first.ID(), s.ClickedID())
}

func TestRemoveHovered(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{})
	b := graph.NewManual("b", r2.Vec{X: 1})
	a.Connect(b)
	c, s, _ := newController(t, a, b)

	c.PointerMove(screen(c, 0, 0))
	require.Equal(t, a.ID(), s.HoveredID())
	c.PointerDown(true, false)
	assert.True(t, c.Removing())
	c.PointerUp()

	assert.False(t, s.Contains(a))
	assert.False(t, b.IsConnected(a))
	assert.NotEqual(t, a.ID(), s.HoveredID())
	f := c.Focus()
	assert.Nil(t, f.Hovered)
	assert.False(t, f.Removing)
}

func TestRemoveModifierKey(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{})
	c, s, _ := newController(t, a)

	assert.True(t, c.ToggleRemove())
	click(c, 0, 0)
	assert.Zero(t, s.Len())

	// with nothing hovered, a remove release does not create a node
	click(c, 3, 3)
	assert.Zero(t, s.Len())

	c.SetRemove(false)
	assert.False(t, c.Removing())
}

func TestDragMovesNodeWithoutClicking(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{})
	c, s, _ := newController(t, a)

	c.PointerMove(screen(c, 0, 0))
	c.PointerDown(false, false)
	c.PointerMove(screen(c, 2, -1))
	c.PointerUp()

	assert.InDelta(t, 2, a.Pos.X, 1e-9)
	assert.InDelta(t, -1, a.Pos.Y, 1e-9)
	assert.Zero(t, s.ClickedID(), "a drag is not a click")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, a.ID(), s.HoveredID())
}

func TestScrollKeepsPointAnchored(t *testing.T) {
	c, _, _ := newController(t)
	c.PointerMove(130, 20)
	before := c.View().ToNode(r2.Vec{X: 130, Y: 20})

	c.Scroll(true)
	after := c.View().ToNode(r2.Vec{X: 130, Y: 20})
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.InDelta(t, DefaultScale*ZoomStep, c.View().Scale.Y, 1e-9)

	c.Scroll(false)
	assert.InDelta(t, DefaultScale, c.View().Scale.Y, 1e-9)
}

func TestAspectStretchesX(t *testing.T) {
	c := New(graph.NewStore(), nil, 2, nil)
	assert.Equal(t, r2.Vec{X: 2 * DefaultScale, Y: DefaultScale}, c.View().Scale)
	assert.False(t, c.TogglePause(), "no simulation attached")
	c.Reseed()
}

func TestReseedAndPause(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{})
	b := graph.NewManual("b", r2.Vec{X: 1})
	c, s, sim := newController(t, a, b)

	c.Reseed()
	assert.Same(t, a, sim.seeded, "first node without a click")

	s.Do(func(tx *graph.Tx) { tx.SetClicked(b) })
	c.Reseed()
	assert.Same(t, b, sim.seeded)

	assert.True(t, c.TogglePause())
	assert.False(t, c.TogglePause())
}

func TestFitCentresNodes(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{X: 10, Y: 10})
	b := graph.NewManual("b", r2.Vec{X: 14, Y: 12})
	c, _, _ := newController(t, a, b)

	c.Fit(200, 100)

	mid := c.View().ToScreen(r2.Vec{X: 12, Y: 11})
	assert.InDelta(t, 100, mid.X, 1e-9)
	assert.InDelta(t, 50, mid.Y, 1e-9)
	for _, n := range []*graph.Node{a, b} {
		p := c.View().ToScreen(n.Pos)
		assert.True(t, p.X >= 0 && p.X <= 200 && p.Y >= 0 && p.Y <= 100)
	}
}

func TestPressAndReleaseInPlaceIsAClick(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{})
	c, s, _ := newController(t, a)
	sx, sy := screen(c, 0, 0)

	// a release reports the pointer again at the press point
	press := func() {
		c.PointerMove(sx, sy)
		c.PointerDown(false, false)
		c.PointerMove(sx, sy)
		c.PointerUp()
	}

	press()
	assert.Equal(t, a.ID(), s.ClickedID())
	assert.Equal(t, r2.Vec{}, a.Pos)

	press()
	assert.Zero(t, s.ClickedID())
}

func TestDragBackToPressPointStaysADrag(t *testing.T) {
	a := graph.NewManual("a", r2.Vec{})
	c, s, _ := newController(t, a)
	sx, sy := screen(c, 0, 0)

	c.PointerMove(sx, sy)
	c.PointerDown(false, false)
	c.PointerMove(screen(c, 1, 1))
	c.PointerMove(sx, sy)
	c.PointerUp()

	assert.Zero(t, s.ClickedID())
	assert.InDelta(t, 0, a.Pos.X, 1e-9)
	assert.InDelta(t, 0, a.Pos.Y, 1e-9)
}

func TestResizeKeepsCentre(t *testing.T) {
	c, _, _ := newController(t)
	c.Scroll(true)
	centre := c.View().ToNode(r2.Vec{X: 100, Y: 50})

	c.Resize(300, 80)
	got := c.View().ToNode(r2.Vec{X: 150, Y: 40})
	assert.InDelta(t, centre.X, got.X, 1e-9)
	assert.InDelta(t, centre.Y, got.Y, 1e-9)

	c.Resize(200, 100)
	assert.InDelta(t, centre.X, c.View().ToNode(r2.Vec{X: 100, Y: 50}).X, 1e-9)
}
