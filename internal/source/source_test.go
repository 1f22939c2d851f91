package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SimonMacLean/Website-Display/internal/cache"
	"github.com/SimonMacLean/Website-Display/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Go (programming language) - Wikipedia", "Go (programming language)"},
		{"Home | Example", "Home"},
		{"A - B | C", "A"},
		{"  Plain  ", "Plain"},
		{"No-separator", "No-separator"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanTitle(tt.in), tt.in)
	}
}

func TestPlaceholder(t *testing.T) {
	doc := Placeholder("Missing_page")
	assert.Equal(t, "Missing_page", doc.Title)
	assert.Empty(t, doc.Links)
}

const wikiPage = `<!doctype html>
<html><head><title>Go (programming language) - Wikipedia</title></head>
<body>
<a href="/wiki/C_(programming_language)">C</a>
<a href="/wiki/Unix#History">Unix</a>
<a href="/wiki/File:Go_logo.svg">logo</a>
<a href="/wiki/Special:Random">random</a>
<a href="/wiki/Unix">Unix again</a>
<a href="https://go.dev/">go.dev</a>
<a href="/w/index.php?title=Go">edit</a>
<a href="/wiki/Robert_Griesemer">Griesemer</a>
</body></html>`

func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Go", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, wikiPage)
	})
	mux.HandleFunc("/wiki/Untitled", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/wiki/Go">Go</a></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebResolve(t *testing.T) {
	srv := newWikiServer(t)
	w, err := NewWeb(srv.URL, "/wiki/", 5*time.Second, nil)
	require.NoError(t, err)

	doc, err := w.Resolve(context.Background(), "Go")
	require.NoError(t, err)

	assert.Equal(t, "Go (programming language)", doc.Title)
	assert.Equal(t, []string{"C_(programming_language)", "Unix", "Robert_Griesemer"}, doc.Links)
}

func TestWebResolveAbsoluteID(t *testing.T) {
	srv := newWikiServer(t)
	w, err := NewWeb(srv.URL, "/wiki/", 5*time.Second, nil)
	require.NoError(t, err)

	doc, err := w.Resolve(context.Background(), "/wiki/Go")
	require.NoError(t, err)
	assert.Equal(t, "Go (programming language)", doc.Title)
}

func TestWebResolveMissingTitleFallsBackToID(t *testing.T) {
	srv := newWikiServer(t)
	w, err := NewWeb(srv.URL, "/wiki/", 5*time.Second, nil)
	require.NoError(t, err)

	doc, err := w.Resolve(context.Background(), "Untitled")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", doc.Title)
	assert.Equal(t, []string{"Go"}, doc.Links)
}

func TestWebResolveNotFound(t *testing.T) {
	srv := newWikiServer(t)
	w, err := NewWeb(srv.URL, "/wiki/", 5*time.Second, nil)
	require.NoError(t, err)

	_, err = w.Resolve(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWebResolveHonoursContext(t *testing.T) {
	srv := newWikiServer(t)
	w, err := NewWeb(srv.URL, "/wiki/", 5*time.Second, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Resolve(ctx, "Go")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWebRejectsScheme(t *testing.T) {
	_, err := NewWeb("ftp://example.com", "/", time.Second, nil)
	assert.Error(t, err)
}

type fakeMark map[string]protocol.Response

func (f fakeMark) Fetch(_ context.Context, host, path string) (protocol.Response, error) {
	resp, ok := f[host+path]
	if !ok {
		return protocol.Response{}, errors.New("dial " + host + ": connection refused")
	}
	return resp, nil
}

func TestMarkResolve(t *testing.T) {
	m := NewMark(fakeMark{
		"docs.example:6309/index.md": {
			Status: protocol.StatusOK,
			Body:   "# Docs\n\n[guide](guide.md) [home](https://example.com) [other](mark://other/x.md)\n",
		},
		"docs.example:6309/gone.md": {Status: protocol.StatusNotFound},
		"docs.example:6309/notes.md": {
			Status: protocol.StatusOK,
			Body:   "no heading\n",
		},
	})

	doc, err := m.Resolve(context.Background(), "mark://docs.example/index.md")
	require.NoError(t, err)
	assert.Equal(t, "Docs", doc.Title)
	assert.Equal(t, []string{"mark://docs.example/guide.md", "mark://other/x.md"}, doc.Links)

	doc, err = m.Resolve(context.Background(), "mark://docs.example/notes.md")
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.Title)

	_, err = m.Resolve(context.Background(), "mark://docs.example/gone.md")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = m.Resolve(context.Background(), "mark://elsewhere/a.md")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)

	_, err = m.Resolve(context.Background(), "https://docs.example/index.md")
	assert.Error(t, err)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func TestDirResolve(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":       "# Home\n\n[guide](guide/) [intro](guide/intro.md#top) [web](https://x.org)\n",
		"guide/index.md": "# Guide\n\n[intro](intro.md) [home](/index.md)\n",
		"guide/intro.md": "plain text\n",
	})
	d, err := NewDir(root)
	require.NoError(t, err)

	doc, err := d.Resolve(context.Background(), "/index.md")
	require.NoError(t, err)
	assert.Equal(t, "Home", doc.Title)
	assert.Equal(t, []string{"/guide/", "/guide/intro.md"}, doc.Links)

	doc, err = d.Resolve(context.Background(), "/guide/")
	require.NoError(t, err)
	assert.Equal(t, "Guide", doc.Title)
	assert.Equal(t, []string{"/guide/intro.md", "/index.md"}, doc.Links)

	doc, err = d.Resolve(context.Background(), "/guide/intro.md")
	require.NoError(t, err)
	assert.Equal(t, "intro", doc.Title)
	assert.Empty(t, doc.Links)
}

func TestDirResolveStaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.md"), []byte("# Secret\n"), 0o644))
	root := filepath.Join(parent, "docs")
	require.NoError(t, os.Mkdir(root, 0o755))
	require.NoError(t, os.Symlink(filepath.Join(parent, "secret.md"), filepath.Join(root, "link.md")))

	d, err := NewDir(root)
	require.NoError(t, err)

	for _, id := range []string{"/../secret.md", "../secret.md", "/link.md", "/missing.md"} {
		_, err := d.Resolve(context.Background(), id)
		assert.ErrorIs(t, err, ErrUnavailable, id)
	}
}

func TestNewDirRequiresDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "x"})
	_, err := NewDir(filepath.Join(root, "a.md"))
	assert.Error(t, err)
	_, err = NewDir(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestCachedResolvesOnce(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(_ context.Context, id string) (Document, error) {
		calls.Add(1)
		if id == "bad" {
			return Document{}, ErrUnavailable
		}
		return Document{Title: "T-" + id, Links: []string{"a", "b"}}, nil
	})
	c := NewCached(inner, cache.New(t.TempDir()), "test", nil)

	for range 3 {
		doc, err := c.Resolve(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, "T-x", doc.Title)
		assert.Equal(t, []string{"a", "b"}, doc.Links)
	}
	assert.Equal(t, int32(1), calls.Load())

	for range 2 {
		_, err := c.Resolve(context.Background(), "bad")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, int32(3), calls.Load(), "failures are not cached")
}
