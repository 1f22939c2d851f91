package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Status values a server may answer with.
const (
	StatusOK           = "ok"
	StatusNotModified  = "not-modified"
	StatusNotFound     = "not-found"
	StatusArchived     = "archived"
	StatusUnauthorized = "unauthorized"
	StatusNotPermitted = "not-permitted"
	StatusServerError  = "server-error"
)

// ErrStatus is wrapped by Response.Err for any status other than ok.
var ErrStatus = errors.New("mark: unsuccessful status")

// Response is a parsed Mark response.
type Response struct {
	Status   string
	Metadata map[string]string
	Body     string
}

// Err returns nil for an ok response and an error wrapping ErrStatus
// otherwise.
func (resp Response) Err() error {
	if resp.Status == StatusOK {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrStatus, resp.Status)
}

// ParseResponse reads a response from r. Everything after the closing
// frontmatter delimiter is the body; a response without frontmatter is all
// body and has no status.
func ParseResponse(r io.Reader) (Response, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResponseSize))
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}

	content := string(data)
	resp := Response{Metadata: make(map[string]string)}

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		resp.Body = content
		return resp, nil
	}
	if body, ok := strings.CutPrefix(rest, "---\n"); ok {
		resp.Body = body
		return resp, nil
	}
	front, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return Response{}, fmt.Errorf("malformed frontmatter: missing closing ---")
	}
	resp.Body = body
	if strings.TrimSpace(front) == "" {
		return resp, nil
	}

	// map[string]string keeps YAML from reinterpreting timestamps and numbers.
	var raw map[string]string
	if err := yaml.Unmarshal([]byte(front), &raw); err != nil {
		return Response{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	for k, v := range raw {
		if k == "status" {
			resp.Status = v
			continue
		}
		resp.Metadata[k] = v
	}
	return resp, nil
}
