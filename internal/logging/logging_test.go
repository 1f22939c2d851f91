package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		level      string
		logAt      string
		wantOutput bool
		wantJSON   bool
	}{
		{name: "text info", format: "text", level: "info", logAt: "info", wantOutput: true},
		{name: "json info", format: "json", level: "info", logAt: "info", wantOutput: true, wantJSON: true},
		{name: "debug logs debug", format: "text", level: "debug", logAt: "debug", wantOutput: true},
		{name: "info filters debug", format: "text", level: "info", logAt: "debug"},
		{name: "warn filters info", format: "json", level: "warn", logAt: "info"},
		{name: "error passes error", format: "text", level: "error", logAt: "error", wantOutput: true},
		{name: "unknown format is text", format: "banana", level: "info", logAt: "info", wantOutput: true},
		{name: "unknown level is info", format: "text", level: "banana", logAt: "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.format, tt.level, &buf)

			switch tt.logAt {
			case "debug":
				logger.Debug("node added", "node", 7)
			case "info":
				logger.Info("node added", "node", 7)
			case "error":
				logger.Error("node added", "node", 7)
			}

			output := buf.String()
			hasOutput := strings.TrimSpace(output) != ""
			if hasOutput != tt.wantOutput {
				t.Fatalf("wantOutput=%v, got output=%q", tt.wantOutput, output)
			}
			if !hasOutput {
				return
			}
			if !strings.Contains(output, "node added") {
				t.Errorf("message missing from %q", output)
			}
			if tt.wantJSON {
				var m map[string]any
				if err := json.Unmarshal([]byte(output), &m); err != nil {
					t.Errorf("expected valid JSON, got: %q", output)
				}
				if m["node"] != float64(7) {
					t.Errorf("node attr: got %v, want 7", m["node"])
				}
			}
		})
	}
}

func TestNew_NilWriter(t *testing.T) {
	if New("text", "info", nil) == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webdisplay.log")
	logger, closeFn, err := Open("json", "info", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("tick")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"tick"`) {
		t.Errorf("got %q, want a tick entry", data)
	}

	if _, _, err := Open("text", "info", filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("expected error for missing directory, got nil")
	}
}

func TestOpen_EmptyPathUsesStderr(t *testing.T) {
	logger, closeFn, err := Open("text", "info", "")
	if err != nil || logger == nil {
		t.Fatalf("got %v, %v", logger, err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}
