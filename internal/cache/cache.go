// Package cache stores resolved documents on the local filesystem as TOML.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache is a directory of TOML entries grouped by namespace.
type Cache struct {
	Dir    string
	MaxAge time.Duration // zero keeps entries forever
}

// Entry is a cached document.
type Entry struct {
	ID       string    `toml:"id"`
	Title    string    `toml:"title"`
	Links    []string  `toml:"links"`
	CachedAt time.Time `toml:"cached_at"`
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Put writes an entry for id under namespace ns.
func (c *Cache) Put(ns, id string, e Entry) error {
	path := c.filePath(ns, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	e.ID = id
	if e.CachedAt.IsZero() {
		e.CachedAt = time.Now().UTC()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(e); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	// write-then-rename so readers never see a partial entry
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get reads the entry for id. It returns nil without error on a miss, on an
// expired entry, and on an entry that no longer decodes.
func (c *Cache) Get(ns, id string) (*Entry, error) {
	data, err := os.ReadFile(c.filePath(ns, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if _, err := toml.Decode(string(data), &e); err != nil {
		return nil, nil
	}
	if e.ID != id {
		return nil, nil
	}
	if c.MaxAge > 0 && time.Since(e.CachedAt) > c.MaxAge {
		return nil, nil
	}
	return &e, nil
}

// filePath maps (ns, id) to a single file below Dir. Both parts are escaped,
// so no identifier can climb out of the cache directory.
func (c *Cache) filePath(ns, id string) string {
	safeNS := strings.ReplaceAll(ns, "..", "_")
	safeNS = strings.ReplaceAll(safeNS, string(filepath.Separator), "_")
	if safeNS == "" {
		safeNS = "_"
	}
	name := url.PathEscape(id)
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return filepath.Join(c.Dir, safeNS, name+".toml")
}
