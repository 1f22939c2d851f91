package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/SimonMacLean/Website-Display/internal/links"
)

// Dir resolves slash-separated paths to markdown files below a root
// directory. A directory resolves to its index.md.
type Dir struct {
	root string
}

// NewDir creates a source serving the markdown tree at root.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Resolve reads the document at id, a path such as "/guide/intro.md".
func (d *Dir) Resolve(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	file, err := d.resolve(id)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, id, err)
	}
	info, err := os.Stat(file)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, id, err)
	}
	base := id
	if info.IsDir() {
		file = filepath.Join(file, "index.md")
		base = strings.TrimSuffix(id, "/") + "/index.md"
	}
	body, err := os.ReadFile(file)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, id, err)
	}

	title, found := links.Parse(base, string(body))
	if title == "" {
		title = strings.TrimSuffix(path.Base(id), ".md")
	}
	var out []string
	for _, l := range found {
		if !strings.Contains(l, "://") && strings.HasPrefix(l, "/") {
			out = append(out, l)
		}
	}
	return Document{Title: title, Links: out}, nil
}

// resolve maps a request path to an absolute file path inside root,
// following symlinks, and rejects anything that lands outside it.
func (d *Dir) resolve(reqPath string) (string, error) {
	cleaned := strings.TrimLeft(filepath.Clean("/"+reqPath), "/")
	joined := filepath.Join(d.root, cleaned)

	absRoot, err := filepath.Abs(d.root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}

	absPath, err := filepath.EvalSymlinks(joined)
	if errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", reqPath, err)
	}
	if !filepath.IsAbs(absPath) {
		if absPath, err = filepath.Abs(absPath); err != nil {
			return "", err
		}
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fs.ErrNotExist
	}
	return absPath, nil
}
