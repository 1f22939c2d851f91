package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"github.com/SimonMacLean/Website-Display/internal/interact"
)

const (
	frameInterval = time.Second / 30
	detailWidth   = 40
	cellAspect    = 2 // terminal cells are about twice as tall as wide
)

type keyMap struct {
	Pause   key.Binding
	Remove  key.Binding
	Reseed  key.Binding
	Fit     key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Detail  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause:   key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
		Remove:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove mode")),
		Reseed:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "re-layout")),
		Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		Detail:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Remove, k.Detail, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Reseed, k.Fit},
		{k.ZoomIn, k.ZoomOut, k.Remove},
		{k.Detail, k.Help, k.Quit},
	}
}

// frameMsg redraws the graph.
type frameMsg time.Time

// crawlDoneMsg is sent when the builder returns.
type crawlDoneMsg struct{ err error }

// simulation is what the status bar reads from the layout engine.
type simulation interface {
	Dt() float64
	Ticks() uint64
	Paused() bool
}

type model struct {
	store *graph.Store
	sim   simulation
	ctrl  *interact.Controller
	root  string

	keys keyMap
	help help.Model

	width, height int
	ready         bool

	showDetail bool
	renderer   *glamour.TermRenderer
	detailKey  string
	detail     string

	crawling bool
	crawlErr error
}

func newModel(store *graph.Store, sim simulation, ctrl *interact.Controller, root string) model {
	return model{
		store:    store,
		sim:      sim,
		ctrl:     ctrl,
		root:     root,
		keys:     defaultKeyMap(),
		help:     help.New(),
		crawling: root != "",
	}
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m model) Init() tea.Cmd {
	return frame()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.ready = true
		m.renderer = newRenderer(detailWidth)
		m.detailKey = ""
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.refreshDetail()
		return m, frame()

	case crawlDoneMsg:
		m.crawling = false
		m.crawlErr = msg.err
		return m, nil
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) {
	x, y := float64(msg.X), float64(msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.ctrl.PointerMove(x, y)
		m.ctrl.Scroll(true)
	case msg.Button == tea.MouseButtonWheelDown:
		m.ctrl.PointerMove(x, y)
		m.ctrl.Scroll(false)
	case msg.Action == tea.MouseActionPress:
		m.ctrl.PointerMove(x, y)
		m.ctrl.PointerDown(msg.Button == tea.MouseButtonRight, msg.Ctrl)
	case msg.Action == tea.MouseActionRelease:
		m.ctrl.PointerMove(x, y)
		m.ctrl.PointerUp()
	case msg.Action == tea.MouseActionMotion:
		m.ctrl.PointerMove(x, y)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.ctrl.TogglePause()
	case key.Matches(msg, m.keys.Remove):
		m.ctrl.ToggleRemove()
	case key.Matches(msg, m.keys.Reseed):
		m.ctrl.Reseed()
	case key.Matches(msg, m.keys.Fit):
		w, h := m.canvasSize()
		m.ctrl.Fit(float64(w), float64(h))
	case key.Matches(msg, m.keys.ZoomIn):
		m.ctrl.Scroll(true)
	case key.Matches(msg, m.keys.ZoomOut):
		m.ctrl.Scroll(false)
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.detailKey = ""
		m.resize()
		m.refreshDetail()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// canvasSize is the graph area: the window minus the detail pane and the
// status and help lines.
func (m model) canvasSize() (int, int) {
	w := m.width
	if m.showDetail && w >= 2*detailWidth {
		w -= detailWidth
	}
	return max(w, 1), max(m.height-2, 1)
}

// resize keeps the view centred on the current canvas.
func (m model) resize() {
	w, h := m.canvasSize()
	m.ctrl.Resize(float64(w), float64(h))
}

// refreshDetail re-renders the detail pane when its source lines change.
func (m *model) refreshDetail() {
	if !m.showDetail {
		return
	}
	f := m.ctrl.Focus()
	n := f.Clicked
	if n == nil {
		n = f.Hovered
	}
	var lines []string
	if n != nil {
		m.store.Do(func(*graph.Tx) { lines = n.Kind().Detail(n) })
	}
	k := strings.Join(lines, "\x00")
	if k == m.detailKey && m.detail != "" {
		return
	}
	m.detailKey = k
	m.detail = renderDetail(m.renderer, lines)
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	w, h := m.canvasSize()
	c := newCanvas(w, h)
	f := m.ctrl.Focus()
	v := m.ctrl.View()
	m.store.Do(func(tx *graph.Tx) { drawGraph(c, tx, v, f) })

	body := c.String()
	if w < m.width {
		pane := lipgloss.NewStyle().
			Width(detailWidth).
			Height(h).
			MaxHeight(h).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			Render(m.detail)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteByte('\n')
	b.WriteString(m.statusBarView())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) statusBarView() string {
	style := lipgloss.NewStyle().Width(m.width).Padding(0, 1)

	parts := []string{fmt.Sprintf("%d nodes", m.store.Len())}
	if m.sim != nil {
		parts = append(parts, fmt.Sprintf("dt %.3f", m.sim.Dt()), fmt.Sprintf("tick %d", m.sim.Ticks()))
		if m.sim.Paused() {
			parts = append(parts, "[paused]")
		}
	}
	if m.ctrl.Removing() {
		parts = append(parts, "[remove]")
	}
	switch {
	case m.crawling:
		parts = append(parts, "crawling "+m.root)
	case m.crawlErr != nil:
		style = style.Foreground(lipgloss.Color("9"))
		parts = append(parts, "crawl: "+m.crawlErr.Error())
	case m.root == "":
		parts = append(parts, "click empty space to add a node")
	default:
		parts = append(parts, "crawl finished")
	}
	return style.Render(strings.Join(parts, "  "))
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil
	}
	return r
}

// detailMarkdown turns a node's detail lines into markdown: the first line
// becomes the heading, the rest a list.
func detailMarkdown(lines []string) string {
	if len(lines) == 0 {
		return "_Hover or click a node._\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", lines[0])
	for _, l := range lines[1:] {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	return b.String()
}

func renderDetail(r *glamour.TermRenderer, lines []string) string {
	md := detailMarkdown(lines)
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
