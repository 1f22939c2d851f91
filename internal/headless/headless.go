// Package headless crawls a graph, lets the layout settle for a fixed number
// of ticks and reports the result without a display.
package headless

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/SimonMacLean/Website-Display/internal/crawl"
	"github.com/SimonMacLean/Website-Display/internal/graph"
	"github.com/SimonMacLean/Website-Display/internal/layout"
	"github.com/SimonMacLean/Website-Display/internal/source"
)

// Options configures a headless run.
type Options struct {
	Crawl    crawl.Options
	Layout   layout.Config
	Ticks    int // layout steps after the crawl (default: 500)
	MaxNodes int // stop crawling once the store holds this many nodes; 0 is unlimited
	Logger   *slog.Logger
}

// Row is one node of the settled graph.
type Row struct {
	ID     graph.ID
	URL    string
	Title  string
	Depth  int
	Degree int
	Links  int // discovered outgoing links
	X, Y   float64
}

// Result is the settled graph.
type Result struct {
	Root  string
	Rows  []Row
	Edges int
	Dt    float64
	Ticks uint64
	// Truncated is set when MaxNodes stopped the crawl.
	Truncated bool
}

// Run crawls from rootID, seeds the layout from the root and steps it
// opts.Ticks times.
func Run(ctx context.Context, src source.Source, rootID string, opts Options) (*Result, error) {
	if opts.Ticks <= 0 {
		opts.Ticks = 500
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := graph.NewStore()
	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	truncated := false
	if opts.MaxNodes > 0 {
		opts.Crawl.OnNode = func(*graph.Node) {
			if store.Len() >= opts.MaxNodes {
				truncated = true
				cancel()
			}
		}
	}

	root, err := crawl.New(store, src, opts.Crawl, logger).Run(crawlCtx, rootID)
	if root == nil {
		return nil, err
	}
	if err != nil && !(truncated && ctx.Err() == nil) {
		return nil, err
	}

	engine := layout.New(opts.Layout, logger)
	store.Do(func(tx *graph.Tx) { engine.Seed(tx, root) })
	for range opts.Ticks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		engine.Tick(store)
	}

	res := &Result{Root: rootID, Dt: engine.Dt(), Ticks: engine.Ticks(), Truncated: truncated}
	store.Do(func(tx *graph.Tx) {
		res.Rows, res.Edges = collect(tx)
	})
	logger.Info("headless run finished", "root", rootID, "nodes", len(res.Rows), "edges", res.Edges, "dt", res.Dt)
	return res, nil
}

func collect(tx *graph.Tx) ([]Row, int) {
	rows := make([]Row, 0, tx.Len())
	degrees := 0
	for _, n := range tx.Nodes() {
		r := Row{ID: n.ID(), Depth: n.Depth(), Degree: n.Degree(), X: n.Pos.X, Y: n.Pos.Y}
		if p, ok := graph.PageOf(n); ok {
			r.URL, r.Title, r.Links = p.URL, p.Title, len(p.Outgoing())
		} else {
			r.Title = strings.Join(n.Kind().Summary(n), " ")
		}
		degrees += r.Degree
		rows = append(rows, r)
	}
	return rows, degrees / 2
}

// Table renders the result as a bordered table.
func (r *Result) Table() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("depth", "title", "id", "degree", "x", "y")
	for _, row := range r.Rows {
		t.Row(depthString(row.Depth), row.Title, row.URL, strconv.Itoa(row.Degree),
			strconv.FormatFloat(row.X, 'f', 2, 64), strconv.FormatFloat(row.Y, 'f', 2, 64))
	}
	return r.header() + "\n" + t.String() + "\n"
}

// Text renders the result as plain lines.
func (r *Result) Text() string {
	var b strings.Builder
	b.WriteString(r.header())
	b.WriteString("\n\nNodes:\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "  [depth %s] %-40s %q  degree %d  at (%.2f, %.2f)\n",
			depthString(row.Depth), row.URL, row.Title, row.Degree, row.X, row.Y)
	}
	return b.String()
}

func (r *Result) header() string {
	s := fmt.Sprintf("Crawled %d nodes, %d edges from %s (dt %.3f after %d ticks)", len(r.Rows), r.Edges, r.Root, r.Dt, r.Ticks)
	if r.Truncated {
		s += ", truncated"
	}
	return s
}

func depthString(d int) string {
	if d == graph.Unset {
		return "-"
	}
	return strconv.Itoa(d)
}
