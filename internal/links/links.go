// Package links pulls the title and outgoing links out of a markdown
// document.
package links

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse walks body once and returns the text of its first level-1 heading
// and its link destinations resolved against base. Fragment-only links are
// dropped, fragments are stripped, and repeated targets keep their first
// position.
func Parse(base, body string) (title string, links []string) {
	src := []byte(body)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	seen := make(map[string]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if title == "" && n.Level == 1 {
				title = strings.TrimSpace(string(n.Text(src)))
			}
		case *ast.Link:
			dest := string(n.Destination)
			if dest == "" || strings.HasPrefix(dest, "#") {
				break
			}
			dest, _, _ = strings.Cut(Resolve(base, dest), "#")
			if !seen[dest] {
				seen[dest] = true
				links = append(links, dest)
			}
		}
		return ast.WalkContinue, nil
	})
	return title, links
}

// Resolve resolves a possibly-relative link dest against baseURL.
func Resolve(baseURL, dest string) string {
	if strings.Contains(dest, "://") {
		return dest
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return dest
	}
	ref, err := url.Parse(dest)
	if err != nil {
		return dest
	}
	return base.ResolveReference(ref).String()
}
