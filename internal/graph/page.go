package graph

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// ExpandState tracks a page through the crawler.
type ExpandState int

const (
	Unexpanded ExpandState = iota
	Expanding
	Expanded
)

// String returns the lower-case state name.
func (s ExpandState) String() string {
	switch s {
	case Expanding:
		return "expanding"
	case Expanded:
		return "expanded"
	default:
		return "unexpanded"
	}
}

// Page is a node discovered from the external source. Besides the undirected
// adjacency of its Node it keeps the directed links it actually discovered
// and the queue of links it has not resolved yet.
type Page struct {
	URL   string
	Title string
	Hue   colorful.Color

	mu       sync.Mutex
	aliases  []string
	outgoing []*Node
	pending  []string
	links    int
	state    ExpandState
}

// NewPage creates a page node for the resolved identifier url. links become
// the page's pending queue.
func NewPage(url, title string, links []string) *Node {
	p := &Page{
		URL:     url,
		Title:   title,
		Hue:     randomHue(),
		pending: slices.Clone(links),
		links:   len(links),
	}
	size := DefaultSize + math.Sqrt(float64(len(links))/25+1)/30
	return New(p, r2.Vec{}, size)
}

// PageOf returns n's page, if n is one.
func PageOf(n *Node) (*Page, bool) {
	if n == nil {
		return nil, false
	}
	p, ok := n.Kind().(*Page)
	return p, ok
}

func randomHue() colorful.Color {
	return colorful.Hsv(rand.Float64()*360, 1, 1)
}

// Keys returns the page's identifier, aliases and title keys.
func (p *Page) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.aliases)+2)
	keys = append(keys, URLKey(p.URL))
	for _, a := range p.aliases {
		keys = append(keys, URLKey(a))
	}
	if p.Title != "" {
		keys = append(keys, TitleKey(p.Title))
	}
	return keys
}

// HasKey reports whether key names this page.
func (p *Page) HasKey(key string) bool {
	return slices.Contains(p.Keys(), key)
}

// AddAlias records another identifier that resolves to this page.
func (p *Page) AddAlias(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.URL && !slices.Contains(p.aliases, id) {
		p.aliases = append(p.aliases, id)
	}
}

// Outgoing returns a copy of the discovered links.
func (p *Page) Outgoing() []*Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.outgoing)
}

// AddOutgoing records a discovered link to n.
func (p *Page) AddOutgoing(n *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.Contains(p.outgoing, n) {
		p.outgoing = append(p.outgoing, n)
	}
}

// RemoveOutgoing forgets a discovered link, used when n leaves the graph.
func (p *Page) RemoveOutgoing(n *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.Index(p.outgoing, n); i >= 0 {
		p.outgoing = slices.Delete(p.outgoing, i, i+1)
	}
}

// HasOutgoingKey reports whether a discovered link already points at a page
// known by key.
func (p *Page) HasOutgoingKey(key string) bool {
	for _, n := range p.Outgoing() {
		if q, ok := PageOf(n); ok && q.HasKey(key) {
			return true
		}
	}
	return false
}

// NextPending returns the head of the pending queue without removing it.
func (p *Page) NextPending() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return "", false
	}
	return p.pending[0], true
}

// PopPending drops the head of the pending queue.
func (p *Page) PopPending() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) > 0 {
		p.pending = p.pending[1:]
	}
}

// Pending returns a copy of the unresolved links.
func (p *Page) Pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.pending)
}

// State returns the crawl state.
func (p *Page) State() ExpandState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState updates the crawl state.
func (p *Page) SetState(s ExpandState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// PushPower uses the degree-based default.
func (p *Page) PushPower(n *Node) float64 { return DefaultPushPower(n) }

// Fill paints pages solid black.
func (p *Page) Fill(*Node, Focus) (colorful.Color, bool) { return black, true }

// Outline is a thin white border regardless of selection.
func (p *Page) Outline(*Node, Focus) Stroke { return Stroke{Color: white, Width: 1} }

// Edge draws in the page's hue.
func (p *Page) Edge(*Node, *Node) Stroke { return Stroke{Color: p.Hue, Width: 1} }

// Label shows the title while the page is hovered or clicked.
func (p *Page) Label(n *Node, f Focus) bool {
	return f.Hovered == n || f.Clicked == n
}

// Summary is the title wrapped to 20 columns.
func (p *Page) Summary(*Node) []string {
	return Wrap(p.Title, 20)
}

// Detail lists the URL, the title and the links not yet expanded.
func (p *Page) Detail(*Node) []string {
	pending := p.Pending()
	lines := make([]string, 0, len(pending)+2)
	lines = append(lines, p.URL, p.Title)
	return append(lines, pending...)
}
