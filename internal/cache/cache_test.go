package cache

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestPutAndGet(t *testing.T) {
	c := New(t.TempDir())

	in := Entry{Title: "Go", Links: []string{"/wiki/C", "/wiki/Unix"}}
	if err := c.Put("web", "/wiki/Go", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := c.Get("web", "/wiki/Go")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached entry, got nil")
	}
	if got.Title != "Go" {
		t.Errorf("title: got %q, want %q", got.Title, "Go")
	}
	if !slices.Equal(got.Links, in.Links) {
		t.Errorf("links: got %v, want %v", got.Links, in.Links)
	}
	if got.ID != "/wiki/Go" {
		t.Errorf("id: got %q, want %q", got.ID, "/wiki/Go")
	}
	if got.CachedAt.IsZero() {
		t.Error("cached_at should not be zero")
	}
}

func TestCacheMiss(t *testing.T) {
	c := New(t.TempDir())

	got, err := c.Get("web", "/wiki/Nothing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for cache miss")
	}
}

func TestNamespacesAreSeparate(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Put("web", "index", Entry{Title: "Web"}); err != nil {
		t.Fatalf("put web: %v", err)
	}
	if err := c.Put("dir", "index", Entry{Title: "Dir"}); err != nil {
		t.Fatalf("put dir: %v", err)
	}

	web, _ := c.Get("web", "index")
	dir, _ := c.Get("dir", "index")
	if web == nil || web.Title != "Web" {
		t.Errorf("web entry: got %+v", web)
	}
	if dir == nil || dir.Title != "Dir" {
		t.Errorf("dir entry: got %+v", dir)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(t.TempDir())
	c.MaxAge = time.Hour

	old := Entry{Title: "Old", CachedAt: time.Now().Add(-2 * time.Hour)}
	if err := c.Put("web", "old", old); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := c.Get("web", "old")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired entry to miss, got %+v", got)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	if err := c.Put("web", "x", Entry{Title: "X"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(c.filePath("web", "x"), []byte("not = [toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get("web", "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected corrupt entry to miss, got %+v", got)
	}
}

func TestFilePathStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	for _, tc := range []struct{ ns, id string }{
		{"web", "../../etc/passwd"},
		{"../..", "x"},
		{"web", ".."},
		{"web", ""},
	} {
		p := c.filePath(tc.ns, tc.id)
		rel, err := filepath.Rel(dir, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			t.Errorf("filePath(%q, %q) = %q escapes %q", tc.ns, tc.id, p, dir)
		}
	}
}
