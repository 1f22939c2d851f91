package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantStatus string
		wantMeta   map[string]string
		wantBody   string
		wantErr    bool
	}{
		{
			name: "ok with metadata",
			input: "---\nstatus: ok\nmodified: 2025-02-14T10:30:00Z\nversion: 42\n---\n" +
				"# Hello\n",
			wantStatus: "ok",
			wantMeta:   map[string]string{"modified": "2025-02-14T10:30:00Z", "version": "42"},
			wantBody:   "# Hello\n",
		},
		{
			name:       "not found",
			input:      "---\nstatus: not-found\n---\n# Not Found\n",
			wantStatus: "not-found",
			wantMeta:   map[string]string{},
			wantBody:   "# Not Found\n",
		},
		{
			name:     "empty frontmatter",
			input:    "---\n---\nbody",
			wantMeta: map[string]string{},
			wantBody: "body",
		},
		{
			name:     "no frontmatter",
			input:    "# Just markdown\n",
			wantMeta: map[string]string{},
			wantBody: "# Just markdown\n",
		},
		{
			name:    "unclosed frontmatter",
			input:   "---\nstatus: ok\n# No closing\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Body != tt.wantBody {
				t.Errorf("body: got %q, want %q", got.Body, tt.wantBody)
			}
			if len(got.Metadata) != len(tt.wantMeta) {
				t.Errorf("metadata length: got %d, want %d", len(got.Metadata), len(tt.wantMeta))
			}
			for k, want := range tt.wantMeta {
				if got.Metadata[k] != want {
					t.Errorf("metadata[%s]: got %q, want %q", k, got.Metadata[k], want)
				}
			}
		})
	}
}

func TestResponseErr(t *testing.T) {
	if err := (Response{Status: StatusOK}).Err(); err != nil {
		t.Errorf("ok response: got %v, want nil", err)
	}
	err := Response{Status: StatusNotFound}.Err()
	if !errors.Is(err, ErrStatus) {
		t.Errorf("not-found response: got %v, want ErrStatus", err)
	}
	if !strings.Contains(err.Error(), StatusNotFound) {
		t.Errorf("error %q does not name the status", err)
	}
}

func TestRequestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Fetch("/docs/index.md").WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if got, want := buf.String(), "FETCH /docs/index.md\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRequestWriteToWithMetadata(t *testing.T) {
	req := Fetch("/index.md")
	req.Metadata = map[string]string{"if-none-match": "abc"}

	var buf bytes.Buffer
	if _, err := req.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := "FETCH /index.md\n---\nif-none-match: abc\n---\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty verb", Request{Path: "/a"}},
		{"relative path", Request{Verb: VerbFetch, Path: "a.md"}},
		{"control characters", Request{Verb: VerbFetch, Path: "/a\x00b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
			var buf bytes.Buffer
			if _, err := tt.req.WriteTo(&buf); err == nil || buf.Len() != 0 {
				t.Errorf("WriteTo wrote %q, err %v", buf.String(), err)
			}
		})
	}
}
