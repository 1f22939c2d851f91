// Command webdisplay-mcp is an MCP server that lets LLM agents resolve
// documents and crawl link graphs, returning node depths and settled layout
// positions, via stdio transport.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SimonMacLean/Website-Display/internal/config"
	"github.com/SimonMacLean/Website-Display/internal/headless"
	"github.com/SimonMacLean/Website-Display/internal/logging"
	"github.com/SimonMacLean/Website-Display/internal/source"
)

const maxNodes = 200

func main() {
	configPath := flag.String("config", "", "TOML config file")
	kind := flag.String("source", "", "document source: web, mark or dir")
	dir := flag.String("dir", "", "markdown tree for the dir source")
	cacheDir := flag.String("cache-dir", "", "cache resolved documents in this directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *kind != "" {
		cfg.Source.Kind = *kind
	}
	if *dir != "" {
		cfg.Source.Dir = *dir
	}
	if *cacheDir != "" {
		cfg.Source.CacheDir = *cacheDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// stdout carries the protocol, so logs go to stderr or the configured file
	logger, closeLog, err := logging.Open(cfg.Log.Format, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	src, release, err := cfg.OpenSource(logger)
	if err != nil {
		log.Fatal(err)
	}
	defer release()

	s := server.NewMCPServer("webdisplay-mcp", "0.1.0")
	h := &handler{src: src, cfg: cfg, opts: headless.Options{Logger: logger}}
	s.AddTool(graphResolveTool(cfg.Source.Kind), h.graphResolve)
	s.AddTool(graphCrawlTool(cfg.Source.Kind), h.graphCrawl)

	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

type handler struct {
	src  source.Source
	cfg  *config.Config
	opts headless.Options
}

// idHint tells the LLM how identifiers look for the configured source.
func idHint(kind string) string {
	switch kind {
	case config.KindMark:
		return "Identifiers are mark:// URLs, e.g. mark://host/index.md."
	case config.KindDir:
		return "Identifiers are absolute paths inside the served tree, e.g. /index.md."
	default:
		return "Identifiers are page names under the configured prefix, e.g. Go_(programming_language)."
	}
}

// Tool definitions.

func graphResolveTool(kind string) mcp.Tool {
	return mcp.NewTool("graph_resolve",
		mcp.WithDescription(
			"Resolve one document and return its title and outgoing links. "+
				idHint(kind),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("document identifier"),
		),
	)
}

func graphCrawlTool(kind string) mcp.Tool {
	return mcp.NewTool("graph_crawl",
		mcp.WithDescription(
			"Crawl links breadth-first from a root document, collapsing links that "+
				"lead to the same title, then lay the graph out with a force-directed "+
				"simulation. Returns every node with its depth from the root, degree "+
				"and position. "+
				idHint(kind),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("root document identifier"),
		),
		mcp.WithNumber("links",
			mcp.Description("new pages added per expansion (default from config, max 20)"),
		),
		mcp.WithNumber("depth",
			mcp.Description("pages at this depth are not expanded (default 2, max 5)"),
		),
		mcp.WithNumber("ticks",
			mcp.Description("layout steps after the crawl (default 300, max 2000)"),
		),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) graphResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	doc, err := h.src.Resolve(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatDocument(id, doc)), nil
}

func (h *handler) graphCrawl(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	opts := h.opts
	opts.Crawl = h.cfg.CrawlOptions()
	opts.Crawl.LinksPerNode = max(1, min(req.GetInt("links", opts.Crawl.LinksPerNode), 20))
	opts.Crawl.MaxDepth = max(1, min(req.GetInt("depth", 2), 5))
	opts.Layout = h.cfg.LayoutConfig()
	opts.Ticks = max(1, min(req.GetInt("ticks", 300), 2000))
	opts.MaxNodes = maxNodes

	res, err := headless.Run(ctx, h.src, id, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("crawl failed: %v", err)), nil
	}
	return mcp.NewToolResultText(res.Text()), nil
}

// formatDocument renders a resolved document for LLM consumption.
func formatDocument(id string, doc source.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\ntitle: %s\n", id, doc.Title)
	if len(doc.Links) == 0 {
		b.WriteString("\nNo links.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\nLinks (%d):\n", len(doc.Links))
	for _, l := range doc.Links {
		fmt.Fprintf(&b, "  %s\n", l)
	}
	return b.String()
}
