package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/SimonMacLean/Website-Display/internal/fetch"
	"github.com/SimonMacLean/Website-Display/internal/links"
	"github.com/SimonMacLean/Website-Display/internal/protocol"
)

// Fetcher retrieves a raw Mark response; *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, host, path string) (protocol.Response, error)
}

// Mark resolves mark:// URLs through a Mark client. Only mark:// links are
// reported; links to other schemes cannot be expanded by this source.
type Mark struct {
	client Fetcher
}

// NewMark creates a Mark source on top of client.
func NewMark(client Fetcher) *Mark {
	return &Mark{client: client}
}

// Resolve fetches the document at the mark:// URL id.
func (m *Mark) Resolve(ctx context.Context, id string) (Document, error) {
	host, p, err := fetch.ParseMarkURL(id)
	if err != nil {
		return Document{}, err
	}
	resp, err := m.client.Fetch(ctx, host, p)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, protocol.ErrStatus) {
			return Document{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, id, err)
		}
		return Document{}, err
	}

	title, found := links.Parse(id, resp.Body)
	if title == "" {
		title = strings.TrimSuffix(path.Base(p), ".md")
	}
	var out []string
	for _, l := range found {
		if strings.HasPrefix(l, "mark://") {
			out = append(out, l)
		}
	}
	return Document{Title: title, Links: out}, nil
}
