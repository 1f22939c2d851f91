package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"github.com/SimonMacLean/Website-Display/internal/interact"
)

type cell struct {
	ch   rune
	fg   string // hex colour, empty for the terminal default
	bold bool
}

// canvas is a grid of styled terminal cells.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	w, h = max(w, 0), max(h, 0)
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

func (c *canvas) set(x, y int, ch rune, fg colorful.Color, bold bool) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y*c.w+x] = cell{ch: ch, fg: fg.Hex(), bold: bold}
}

func (c *canvas) at(x, y int) rune {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return 0
	}
	return c.cells[y*c.w+x].ch
}

func (c *canvas) text(x, y int, s string, fg colorful.Color, bold bool) {
	for _, r := range s {
		c.set(x, y, r, fg, bold)
		x++
	}
}

// line draws the segment between two screen points, clipped to the canvas.
func (c *canvas) line(x0, y0, x1, y1 float64, s graph.Stroke) {
	x0, y0, x1, y1, ok := clip(x0, y0, x1, y1, float64(c.w-1), float64(c.h-1))
	if !ok {
		return
	}
	ch := slopeGlyph(x1-x0, y1-y0)
	ax, ay := int(math.Round(x0)), int(math.Round(y0))
	bx, by := int(math.Round(x1)), int(math.Round(y1))

	dx, dy := abs(bx-ax), -abs(by-ay)
	sx, sy := sign(bx-ax), sign(by-ay)
	e := dx + dy
	for {
		c.set(ax, ay, ch, s.Color, s.Width > 1)
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

// String renders the grid, one styled run per colour change.
func (c *canvas) String() string {
	var b strings.Builder
	for y := range c.h {
		row := c.cells[y*c.w : (y+1)*c.w]
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].fg == row[start].fg && row[x].bold == row[start].bold {
				continue
			}
			b.WriteString(renderRun(row[start:x]))
			start = x
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderRun(run []cell) string {
	var s strings.Builder
	for _, c := range run {
		s.WriteRune(c.ch)
	}
	if run[0].fg == "" {
		return s.String()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(run[0].fg)).Bold(run[0].bold).Render(s.String())
}

// drawGraph paints edges, then nodes, then labels, so labels stay readable.
// It must run inside the store's exclusive section.
func drawGraph(c *canvas, tx *graph.Tx, v interact.View, f graph.Focus) {
	nodes := tx.Nodes()
	for i, n := range nodes {
		p := v.ToScreen(n.Pos)
		for _, m := range n.Neighbors() {
			if tx.IndexOf(m) < i {
				continue
			}
			q := v.ToScreen(m.Pos)
			c.line(p.X, p.Y, q.X, q.Y, n.Kind().Edge(n, m))
		}
	}
	for _, n := range nodes {
		p := v.ToScreen(n.Pos)
		o := n.Kind().Outline(n, f)
		ch := '○'
		if _, filled := n.Kind().Fill(n, f); filled {
			ch = '●'
		}
		c.set(int(math.Round(p.X)), int(math.Round(p.Y)), ch, o.Color, o.Width > 1)
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	for _, n := range nodes {
		if !n.Kind().Label(n, f) {
			continue
		}
		p := v.ToScreen(n.Pos)
		x, y := int(math.Round(p.X))+2, int(math.Round(p.Y))
		for i, line := range n.Kind().Summary(n) {
			c.text(x, y+i, line, white, true)
		}
	}
}

// slopeGlyph picks a box-drawing rune for a segment. Cells are about twice
// as tall as they are wide, so dy is doubled before taking the angle.
func slopeGlyph(dx, dy float64) rune {
	a := math.Atan2(-2*dy, dx)
	if a < 0 {
		a += math.Pi
	}
	switch {
	case a < math.Pi/8 || a >= 7*math.Pi/8:
		return '─'
	case a < 3*math.Pi/8:
		return '╱'
	case a < 5*math.Pi/8:
		return '│'
	default:
		return '╲'
	}
}

// clip trims a segment to [0,maxX]×[0,maxY] (Liang–Barsky).
func clip(x0, y0, x1, y1, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	if maxX < 0 || maxY < 0 || !finite(x0, y0, x1, y1) {
		return 0, 0, 0, 0, false
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{{-dx, x0}, {dx, maxX - x0}, {-dy, y0}, {dy, maxY - y0}} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
