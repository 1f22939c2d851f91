// Package interact turns pointer and key events into graph edits: hover,
// drag, click-to-connect, node creation and removal, plus the pan/zoom view
// used for hit-testing.
package interact

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

// Simulation is the part of the layout engine the controller drives.
type Simulation interface {
	TogglePause() bool
	Seed(tx *graph.Tx, root *graph.Node)
}

// Controller owns the pointer state and the view. Graph edits happen inside
// the store's exclusive section, so they serialize with layout ticks and the
// crawler.
type Controller struct {
	store  *graph.Store
	sim    Simulation
	logger *slog.Logger

	mu        sync.Mutex
	view      View
	aspect    float64
	pointer   r2.Vec // screen space
	press     r2.Vec // screen point of the last press
	size      r2.Vec // screen extent from the last Resize or Fit
	down      bool
	removing  bool // intent captured at press
	removeKey bool // sticky remove modifier
	drag      *graph.Node
	dragged   bool
	created   int
}

// New creates a controller. aspect stretches the x scale for displays whose
// cells are not square; use 1 for pixels. sim may be nil.
func New(store *graph.Store, sim Simulation, aspect float64, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if aspect <= 0 {
		aspect = 1
	}
	return &Controller{
		store:  store,
		sim:    sim,
		logger: logger,
		aspect: aspect,
		view:   View{Scale: r2.Vec{X: DefaultScale * aspect, Y: DefaultScale}},
	}
}

// View returns the current view transform.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Resize adapts the view to a w×h screen. The node-space point at the
// screen centre stays at the centre, so the first call centres the origin.
func (c *Controller) Resize(w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := r2.Vec{X: w, Y: h}
	c.view.Origin = r2.Add(c.view.Origin, r2.Scale(0.5, r2.Sub(next, c.size)))
	c.size = next
}

// PointerMove updates hover, or drags the pressed node once the pointer has
// left the press point.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pointer = r2.Vec{X: x, Y: y}
	p := c.view.ToNode(c.pointer)

	c.store.Do(func(tx *graph.Tx) {
		moved := c.dragged || c.pointer != c.press
		if c.down && !c.removing && moved && c.drag != nil && tx.Contains(c.drag) {
			c.drag.MoveTo(p)
			c.drag.Vel = r2.Vec{}
			c.dragged = true
			tx.SetHovered(c.drag)
			return
		}
		if h := tx.Hovered(); h != nil && h.Contains(p) {
			return
		}
		for _, n := range tx.Nodes() {
			if n.Contains(p) {
				tx.SetHovered(n)
				return
			}
		}
		tx.SetHovered(nil)
	})
}

// PointerDown records the press. A secondary press, or any press while
// remove is held, turns the coming release into a removal.
func (c *Controller) PointerDown(secondary, modifier bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = true
	c.dragged = false
	c.press = c.pointer
	c.removing = secondary || modifier || c.removeKey
	c.store.Do(func(tx *graph.Tx) { c.drag = tx.Hovered() })
}

// PointerUp resolves the press: remove the hovered node, finish a drag,
// or run the click protocol.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.down {
		return
	}
	c.down = false
	removing, dragged := c.removing, c.dragged
	c.removing, c.dragged, c.drag = false, false, nil
	p := c.view.ToNode(c.pointer)

	c.store.Do(func(tx *graph.Tx) {
		h := tx.Hovered()
		if removing {
			if h != nil && tx.Remove(h) {
				c.logger.Debug("node removed", "node", h.ID(), "nodes", tx.Len())
			}
			return
		}
		if dragged {
			return
		}
		clicked := tx.Clicked()
		if h != nil {
			switch {
			case clicked == nil:
				tx.SetClicked(h)
			case clicked == h:
				tx.SetClicked(nil)
			case !clicked.Connect(h):
				tx.SetClicked(h)
			}
			return
		}

		c.created++
		n := graph.NewManual(fmt.Sprintf("Node %d", c.created), p)
		if tx.Len() == 0 {
			n.SetDepth(0)
		}
		tx.Add(n)
		tx.SetHovered(n)
		if clicked != nil {
			clicked.Connect(n)
		} else {
			tx.SetClicked(n)
		}
		c.logger.Debug("node created", "node", n.ID(), "x", p.X, "y", p.Y)
	})
}

// Scroll zooms one notch in or out around the pointer.
func (c *Controller) Scroll(zoomIn bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := ZoomStep
	if !zoomIn {
		f = 1 / ZoomStep
	}
	c.view = c.view.Zoom(c.pointer, f)
}

// SetRemove holds or releases the remove modifier.
func (c *Controller) SetRemove(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeKey = on
}

// ToggleRemove flips the remove modifier and returns the new state.
func (c *Controller) ToggleRemove() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeKey = !c.removeKey
	return c.removeKey
}

// Removing reports whether a release would remove the hovered node.
func (c *Controller) Removing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeKey || (c.down && c.removing)
}

// TogglePause pauses or resumes the simulation and returns the new state.
func (c *Controller) TogglePause() bool {
	if c.sim == nil {
		return false
	}
	return c.sim.TogglePause()
}

// Reseed lays the graph out again from the clicked node, or from the first
// node when nothing is clicked.
func (c *Controller) Reseed() {
	if c.sim == nil {
		return
	}
	c.store.Do(func(tx *graph.Tx) {
		root := tx.Clicked()
		if root == nil && tx.Len() > 0 {
			root = tx.Nodes()[0]
		}
		if root != nil {
			c.sim.Seed(tx, root)
		}
	})
}

// Focus resolves the selection state for style queries.
func (c *Controller) Focus() graph.Focus {
	c.mu.Lock()
	removing := c.removeKey || (c.down && c.removing)
	down := c.down
	c.mu.Unlock()

	var f graph.Focus
	c.store.Do(func(tx *graph.Tx) {
		f = graph.Focus{
			Hovered:     tx.Hovered(),
			Clicked:     tx.Clicked(),
			Removing:    removing,
			PointerDown: down,
		}
	})
	return f
}

// Fit scales and centres the view so every node fits in a w×h screen.
func (c *Controller) Fit(w, h float64) {
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	c.store.Do(func(tx *graph.Tx) {
		for _, n := range tx.Nodes() {
			lo = r2.Vec{X: math.Min(lo.X, n.Pos.X-n.Size), Y: math.Min(lo.Y, n.Pos.Y-n.Size)}
			hi = r2.Vec{X: math.Max(hi.X, n.Pos.X+n.Size), Y: math.Max(hi.Y, n.Pos.Y+n.Size)}
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = r2.Vec{X: w, Y: h}
	if math.IsInf(lo.X, 1) {
		c.view = View{Origin: r2.Vec{X: w / 2, Y: h / 2}, Scale: r2.Vec{X: DefaultScale * c.aspect, Y: DefaultScale}}
		return
	}
	span := r2.Sub(hi, lo)
	s := math.Min(w/(span.X*c.aspect), h/span.Y) * 0.9
	if math.IsInf(s, 0) || s <= 0 {
		s = DefaultScale
	}
	c.view.Scale = r2.Vec{X: s * c.aspect, Y: s}
	mid := r2.Scale(0.5, r2.Add(lo, hi))
	c.view.Origin = r2.Vec{X: w/2 - mid.X*c.view.Scale.X, Y: h/2 - mid.Y*c.view.Scale.Y}
}
