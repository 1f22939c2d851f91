package source

import (
	"context"
	"log/slog"

	"github.com/SimonMacLean/Website-Display/internal/cache"
)

// Cached serves documents from a file cache before asking the wrapped
// source, and stores every successful resolve. Failures are never cached.
type Cached struct {
	inner  Source
	cache  *cache.Cache
	ns     string
	logger *slog.Logger
}

// NewCached wraps inner with c. ns keeps entries from different sources
// apart in the same cache directory.
func NewCached(inner Source, c *cache.Cache, ns string, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, cache: c, ns: ns, logger: logger}
}

// Resolve implements Source.
func (c *Cached) Resolve(ctx context.Context, id string) (Document, error) {
	e, err := c.cache.Get(c.ns, id)
	if err != nil {
		c.logger.Warn("cache read", "id", id, "error", err)
	}
	if e != nil {
		return Document{Title: e.Title, Links: e.Links}, nil
	}

	doc, err := c.inner.Resolve(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if err := c.cache.Put(c.ns, id, cache.Entry{Title: doc.Title, Links: doc.Links}); err != nil {
		c.logger.Warn("cache write", "id", id, "error", err)
	}
	return doc, nil
}
