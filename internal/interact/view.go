package interact

import "gonum.org/v1/gonum/spatial/r2"

// DefaultScale is the number of screen units per node-space unit.
const DefaultScale = 20

// ZoomStep is the scale factor applied per scroll notch.
const ZoomStep = 1.1

// View maps between screen and node space: screen = origin + node·scale,
// componentwise.
type View struct {
	Origin r2.Vec
	Scale  r2.Vec
}

// ToNode converts a screen point to node space.
func (v View) ToNode(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: (p.X - v.Origin.X) / v.Scale.X,
		Y: (p.Y - v.Origin.Y) / v.Scale.Y,
	}
}

// ToScreen converts a node-space point to screen coordinates.
func (v View) ToScreen(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: v.Origin.X + p.X*v.Scale.X,
		Y: v.Origin.Y + p.Y*v.Scale.Y,
	}
}

// Zoom scales the view by f keeping the screen point anchor fixed.
func (v View) Zoom(anchor r2.Vec, f float64) View {
	return View{
		Origin: r2.Add(anchor, r2.Scale(f, r2.Sub(v.Origin, anchor))),
		Scale:  r2.Scale(f, v.Scale),
	}
}
