// Package crawl grows the graph breadth-first from a root document, pulling
// links lazily from a source and collapsing links that lead to pages already
// in the store.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"github.com/SimonMacLean/Website-Display/internal/source"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Options configures the builder.
type Options struct {
	LinksPerNode int               // new pages added per expansion (default: 5)
	MaxDepth     int               // pages at this depth are not expanded (default: 100)
	OnNode       func(*graph.Node) // called after a page is added, may be nil
}

func (o *Options) applyDefaults() {
	if o.LinksPerNode <= 0 {
		o.LinksPerNode = 5
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 100
	}
}

// Builder expands pages one at a time from a FIFO queue. It is meant to run
// on a single goroutine; the store lock is held only around mutations, never
// while a document is being resolved.
type Builder struct {
	store  *graph.Store
	src    source.Source
	opts   Options
	logger *slog.Logger
}

// New creates a builder that adds pages from src to store.
func New(store *graph.Store, src source.Source, opts Options, logger *slog.Logger) *Builder {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, src: src, opts: opts, logger: logger}
}

// Run resolves rootID, adds it to the store at depth 0 and crawls from it
// until the frontier is exhausted or ctx is done. A root that cannot be
// resolved is an error; every later failure becomes a placeholder page.
func (b *Builder) Run(ctx context.Context, rootID string) (*graph.Node, error) {
	doc, err := b.src.Resolve(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", rootID, err)
	}
	root := graph.NewPage(rootID, doc.Title, doc.Links)
	root.SetDepth(0)
	b.store.Do(func(tx *graph.Tx) { tx.Add(root) })
	b.notify(root)
	return root, b.RunFrom(ctx, root)
}

// RunFrom crawls breadth-first starting at an existing page.
func (b *Builder) RunFrom(ctx context.Context, root *graph.Node) error {
	if _, ok := graph.PageOf(root); !ok {
		return errors.New("crawl root is not a page")
	}
	logger := b.logger.With("run", uuid.NewString())
	logger.Info("crawl started", "root", root.ID(), "links_per_node", b.opts.LinksPerNode, "max_depth", b.opts.MaxDepth)

	queue := []*graph.Node{root}
	expanded := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			logger.Info("crawl cancelled", "expanded", expanded, "queued", len(queue))
			return err
		}
		n := queue[0]
		queue = queue[1:]
		queue = append(queue, b.expand(ctx, n, logger)...)
		expanded++
	}
	if err := ctx.Err(); err != nil {
		logger.Info("crawl cancelled", "expanded", expanded)
		return err
	}
	logger.Info("crawl finished", "expanded", expanded, "nodes", b.store.Len())
	return nil
}

// Expand pulls links from n's pending queue until LinksPerNode new pages
// have been added, the queue is empty, ctx is done or n leaves the store. It
// returns the pages to expand next: every new child, then n itself if it
// gained a child and may still have links pending.
func (b *Builder) Expand(ctx context.Context, n *graph.Node) []*graph.Node {
	return b.expand(ctx, n, b.logger)
}

func (b *Builder) expand(ctx context.Context, n *graph.Node, logger *slog.Logger) []*graph.Node {
	page, ok := graph.PageOf(n)
	if !ok {
		return nil
	}
	var (
		push, origin r2.Vec
		depth        int
		live         bool
	)
	b.store.Do(func(tx *graph.Tx) {
		live = tx.Contains(n)
		push, origin, depth = n.Push, n.Pos, n.Depth()
	})
	if !live || depth >= b.opts.MaxDepth {
		return nil
	}
	page.SetState(graph.Expanding)

	var next []*graph.Node
	added := 0
	for added < b.opts.LinksPerNode && ctx.Err() == nil {
		link, ok := page.NextPending()
		if !ok {
			break
		}
		if page.HasOutgoingKey(graph.URLKey(link)) {
			page.PopPending()
			continue
		}

		var linked bool
		b.store.Do(func(tx *graph.Tx) {
			if live = tx.Contains(n); !live {
				return
			}
			if m := tx.Lookup(graph.URLKey(link)); m != nil {
				page.PopPending()
				b.link(page, n, m)
				linked = true
			}
		})
		if !live {
			logger.Debug("expand abandoned, page removed", "page", page.URL)
			break
		}
		if linked {
			continue
		}

		doc, err := b.src.Resolve(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("resolve failed, using placeholder", "link", link, "error", err)
			doc = source.Placeholder(link)
		}

		var child *graph.Node
		b.store.Do(func(tx *graph.Tx) {
			if live = tx.Contains(n); !live {
				return
			}
			page.PopPending()
			title := graph.TitleKey(doc.Title)
			m := tx.Lookup(title)
			if m != nil {
				// later links to the same identifier collapse without a fetch
				tx.Alias(m, graph.URLKey(link))
			}
			if page.HasOutgoingKey(title) {
				return
			}
			if m != nil {
				b.link(page, n, m)
				return
			}
			child = graph.NewPage(link, doc.Title, doc.Links)
			child.Pos = seedPosition(origin, push, n.Degree())
			tx.Add(child)
			b.link(page, n, child)
		})
		if !live {
			logger.Debug("expand abandoned, page removed", "page", page.URL)
			break
		}
		if child != nil {
			added++
			next = append(next, child)
			b.notify(child)
		}
	}

	if len(page.Pending()) == 0 {
		page.SetState(graph.Expanded)
	} else {
		page.SetState(graph.Unexpanded)
	}
	if added > 0 {
		next = append(next, n)
	}
	logger.Debug("expanded", "page", page.URL, "depth", depth, "added", added, "pending", len(page.Pending()))
	return next
}

// link records the discovered edge from page n to m and connects them.
func (b *Builder) link(page *graph.Page, n, m *graph.Node) {
	if m == n {
		return
	}
	page.AddOutgoing(m)
	n.Connect(m)
}

func (b *Builder) notify(n *graph.Node) {
	if b.opts.OnNode != nil {
		b.opts.OnNode(n)
	}
}

// seedPosition places a new child one step away from its parent: along the
// parent's last push when it has one, otherwise at an angle given by the
// parent's degree so successive children fan out.
func seedPosition(parent, push r2.Vec, degree int) r2.Vec {
	r := math.Sqrt(float64(degree) + 1)
	if a := r2.Norm(push); a != 0 {
		dir := r2.Scale(1/a, r2.Add(push, r2.Vec{X: 1e-4, Y: 1e-4}))
		return r2.Add(parent, r2.Scale(r, dir))
	}
	return r2.Add(parent, r2.Vec{X: math.Cos(float64(degree)) * r, Y: math.Sin(float64(degree)) * r})
}
