package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Web resolves page names against an HTTP site. Identifiers are the part of
// an href after Prefix (for Wikipedia, "Go_(programming_language)" for
// "/wiki/Go_(programming_language)"); identifiers starting with "/" are
// taken as site-absolute paths.
type Web struct {
	Base   *url.URL
	Prefix string
	Client *http.Client
	Logger *slog.Logger
}

// NewWeb creates a web source for the site at base.
func NewWeb(base, prefix string, timeout time.Duration, logger *slog.Logger) (*Web, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q (expected http or https)", u.Scheme)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Web{
		Base:   u,
		Prefix: prefix,
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}, nil
}

// URL returns the address fetched for id.
func (w *Web) URL(id string) string {
	path := id
	if !strings.HasPrefix(id, "/") {
		path = w.Prefix + id
	}
	ref, err := url.Parse(path)
	if err != nil {
		return w.Base.JoinPath(path).String()
	}
	return w.Base.ResolveReference(ref).String()
}

// Resolve fetches the page for id and extracts its title and in-site links.
func (w *Web) Resolve(ctx context.Context, id string) (Document, error) {
	target := w.URL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "webdisplay/1.0")

	start := time.Now()
	resp, err := w.Client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("%w: get %s: %s", ErrUnavailable, target, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, target, err)
	}

	title := CleanTitle(doc.Find("title").First().Text())
	if title == "" {
		title = id
	}
	links := w.extractLinks(doc)
	w.Logger.Debug("web resolve", "id", id, "title", title, "links", len(links), "elapsed", time.Since(start))
	return Document{Title: title, Links: links}, nil
}

// extractLinks keeps hrefs under Prefix whose remainder names a plain page:
// no namespace colon and no file extension dot.
func (w *Web) extractLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		name, ok := strings.CutPrefix(href, w.Prefix)
		if !ok {
			return
		}
		name, _, _ = strings.Cut(name, "#")
		if name == "" || strings.ContainsAny(name, ".:") {
			return
		}
		links = append(links, name)
	})
	return dedupe(links)
}
