package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Request is a Mark request for a single document.
type Request struct {
	Verb     string
	Path     string
	Metadata map[string]string
}

// Fetch returns a FETCH request for path.
func Fetch(path string) Request {
	return Request{Verb: VerbFetch, Path: path}
}

// Validate checks that the request can be put on the wire.
func (req Request) Validate() error {
	if req.Verb == "" {
		return fmt.Errorf("empty verb")
	}
	if !strings.HasPrefix(req.Path, "/") {
		return fmt.Errorf("invalid path: %q", req.Path)
	}
	for _, r := range req.Path {
		if r == 0 || (r < 32 && r != '\t') || r == 127 {
			return fmt.Errorf("invalid path: contains control characters")
		}
	}
	return nil
}

// WriteTo writes the request to w in wire format.
func (req Request) WriteTo(w io.Writer) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s\n", req.Verb, req.Path)

	if len(req.Metadata) > 0 {
		meta, err := yaml.Marshal(req.Metadata)
		if err != nil {
			return 0, fmt.Errorf("encoding request metadata: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n")
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
