// Package source resolves node identifiers into documents: a display title
// and the identifiers the document links to.
package source

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is wrapped by resolve errors caused by the remote side:
// missing documents, unsuccessful status codes, unparsable payloads.
var ErrUnavailable = errors.New("source: document unavailable")

// Document is the resolved form of an identifier.
type Document struct {
	Title string
	Links []string
}

// Source resolves identifiers. Implementations must be safe for concurrent
// use.
type Source interface {
	Resolve(ctx context.Context, id string) (Document, error)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context, id string) (Document, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, id string) (Document, error) {
	return f(ctx, id)
}

// Placeholder is the document shown for an identifier that could not be
// resolved: titled by the identifier itself, with no links.
func Placeholder(id string) Document {
	return Document{Title: id}
}

// CleanTitle trims a page title at the first " - " or, failing that, the
// first " | ", dropping the site name most pages append.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.Index(title, " - "); i >= 0 {
		return strings.TrimSpace(title[:i])
	}
	if i := strings.Index(title, " | "); i >= 0 {
		return strings.TrimSpace(title[:i])
	}
	return title
}

// dedupe drops repeated links, keeping first occurrences in order.
func dedupe(links []string) []string {
	seen := make(map[string]bool, len(links))
	out := links[:0]
	for _, l := range links {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
