package progress

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/routescan/internal/framework"
	"github.com/PentesterFlow/routescan/internal/output"
	"github.com/PentesterFlow/routescan/internal/parser"
)

// =============================================================================
// Display Tests
// =============================================================================

func TestDisplay_Update(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	d.Update(output.ProgressStats{Routes: 1})
	if buf.Len() != 0 {
		t.Error("Update before Start should not draw")
	}

	d.Start("./shop")
	d.Update(output.ProgressStats{Routes: 2, Requests: 1})
	if !strings.Contains(buf.String(), "Routes: 2 | Requests: 1") {
		t.Errorf("status line = %q", buf.String())
	}
	if routes, requests := d.Stats(); routes != 2 || requests != 1 {
		t.Errorf("Stats() = %d, %d", routes, requests)
	}

	d.Stop()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Stop should end the status line")
	}

	n := buf.Len()
	d.Update(output.ProgressStats{Routes: 3})
	d.Stop()
	if buf.Len() != n {
		t.Error("a stopped display should not draw")
	}
}

func TestDisplay_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.Stop()

	if buf.Len() != 0 {
		t.Errorf("Stop without Start wrote %q", buf.String())
	}
}

func TestNew_DefaultsToStderr(t *testing.T) {
	if New(nil).out == nil {
		t.Error("nil writer should default to stderr")
	}
}

// =============================================================================
// Summary Tests
// =============================================================================

func TestPrintSummary(t *testing.T) {
	var endpoints []parser.Endpoint
	for i := 0; i < 12; i++ {
		endpoints = append(endpoints, parser.Endpoint{
			Method:       framework.MethodGet,
			Path:         fmt.Sprintf("/items/%d", i),
			ResourceName: "items",
			Kind:         parser.KindRoute,
		})
	}
	catalog := &output.Catalog{
		RunID:          "run-1",
		Source:         "./shop",
		Framework:      "express",
		ObjectInstance: "router",
		Stats:          output.CatalogStats{FilesProcessed: 4, Duration: 1500 * time.Millisecond},
		Endpoints:      endpoints,
	}

	var buf bytes.Buffer
	PrintSummary(&buf, catalog)
	out := buf.String()

	for _, want := range []string{
		"Run:                 run-1",
		"Framework:           express (router)",
		"Files Processed:     4",
		"Routes:              12",
		"Unique Routes:       12",
		"[GET] /items/0",
		"... and 2 more",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/items/10") {
		t.Error("summary should list at most 10 endpoints")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"https://github.com/acme/shop", 15, "https://gith..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
