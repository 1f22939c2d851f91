package graph

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// Wrap breaks s into lines of at most width runes at spaces. A word longer
// than width is split with a trailing hyphen.
func Wrap(s string, width int) []string {
	if width < 2 || len([]rune(s)) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	var chunks []string
	for _, word := range words {
		w := []rune(word)
		for len(w) > width {
			chunks = append(chunks, string(w[:width-1])+"-")
			w = w[width-1:]
		}
		chunks = append(chunks, string(w))
	}

	ww := wordwrap.NewWriter(width)
	ww.Breakpoints = nil
	ww.KeepNewlines = false
	_, _ = ww.Write([]byte(strings.Join(chunks, " ")))
	_ = ww.Close()
	return strings.Split(ww.String(), "\n")
}
