package config

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/SimonMacLean/Website-Display/internal/cache"
	"github.com/SimonMacLean/Website-Display/internal/fetch"
	"github.com/SimonMacLean/Website-Display/internal/source"
)

// OpenSource builds the configured source, wrapped in the document cache
// when cache_dir is set. The returned function releases its connections.
func (c *Config) OpenSource(logger *slog.Logger) (source.Source, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		src     source.Source
		release = func() {}
	)
	sc := c.Source
	switch sc.Kind {
	case KindWeb:
		w, err := source.NewWeb(sc.Base, sc.Prefix, sc.Timeout, logger)
		if err != nil {
			return nil, nil, err
		}
		src = w
	case KindMark:
		client := fetch.NewClient(fetch.Options{
			Insecure:       sc.Insecure,
			DialTimeout:    sc.Timeout,
			RequestTimeout: sc.Timeout,
			Logger:         logger,
		})
		src = source.NewMark(client)
		release = client.Close
	case KindDir:
		d, err := source.NewDir(sc.Dir)
		if err != nil {
			return nil, nil, err
		}
		src = d
	default:
		return nil, nil, fmt.Errorf("%w: unknown source.kind %q", ErrInvalid, sc.Kind)
	}

	if sc.CacheDir != "" {
		store := cache.New(sc.CacheDir)
		store.MaxAge = sc.CacheMaxAge
		src = source.NewCached(src, store, c.cacheNamespace(), logger)
	}
	return src, release, nil
}

// cacheNamespace keeps entries from different sites apart.
func (c *Config) cacheNamespace() string {
	if c.Source.Kind == KindWeb {
		if u, err := url.Parse(c.Source.Base); err == nil && u.Host != "" {
			return "web_" + u.Host
		}
	}
	return c.Source.Kind
}
