// Package progress renders discovery progress and the closing summary.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PentesterFlow/routescan/internal/output"
)

// maxListed bounds the endpoints printed in a summary.
const maxListed = 10

// Display manages the status line shown while a catalog is written.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	started bool
	stopped bool

	// Stats
	routes   atomic.Int64
	requests atomic.Int64

	// Timing
	startTime time.Time
	source    string

	// Display
	lastLine string
}

// New creates a display writing to out, or to stderr when out is nil.
func New(out io.Writer) *Display {
	if out == nil {
		out = os.Stderr
	}
	return &Display{out: out}
}

// Start begins the progress display.
func (d *Display) Start(source string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}

	d.started = true
	d.startTime = time.Now()
	d.source = source
}

// Update redraws the status line. It matches the output.ProgressWriter
// callback signature.
func (d *Display) Update(stats output.ProgressStats) {
	d.routes.Store(int64(stats.Routes))
	d.requests.Store(int64(stats.Requests))

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.stopped {
		return
	}

	line := fmt.Sprintf("\r%s | Routes: %d | Requests: %d | %s",
		truncate(d.source, 40), stats.Routes, stats.Requests, formatDuration(time.Since(d.startTime)))

	// Clear previous line and print new one
	if len(line) < len(d.lastLine) {
		fmt.Fprint(d.out, "\r"+strings.Repeat(" ", len(d.lastLine)))
	}
	fmt.Fprint(d.out, line)
	d.lastLine = line
}

// Stop ends the status line.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || !d.started {
		return
	}

	d.stopped = true

	if d.lastLine != "" {
		fmt.Fprintln(d.out)
	}
}

// Stats returns the last reported counts.
func (d *Display) Stats() (routes, requests int64) {
	return d.routes.Load(), d.requests.Load()
}

// PrintSummary prints a human-readable report of a catalog.
func PrintSummary(w io.Writer, catalog *output.Catalog) {
	summary := catalog.Summary
	if summary == nil {
		s := output.Summarize(catalog.Endpoints)
		summary = &s
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                     Discovery Summary                        ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	if catalog.RunID != "" {
		fmt.Fprintf(w, "  Run:                 %s\n", catalog.RunID)
	}
	fmt.Fprintf(w, "  Source:              %s\n", truncate(catalog.Source, 50))
	fmt.Fprintf(w, "  Framework:           %s (%s)\n", catalog.Framework, catalog.ObjectInstance)
	fmt.Fprintf(w, "  Duration:            %s\n", formatDuration(catalog.Stats.Duration))
	fmt.Fprintf(w, "  Files Processed:     %d\n", catalog.Stats.FilesProcessed)
	fmt.Fprintf(w, "  Files Recovered:     %d\n", catalog.Stats.FilesRecovered)
	fmt.Fprintf(w, "  Routes:              %d\n", summary.ByKind["route"])
	fmt.Fprintf(w, "  Requests:            %d\n", summary.ByKind["request"])
	fmt.Fprintf(w, "  Unique Routes:       %d\n", summary.UniqueRoutes)
	fmt.Fprintln(w)

	if len(summary.TopResources) > 0 {
		fmt.Fprintln(w, "Top Resources:")
		for _, rc := range summary.TopResources {
			fmt.Fprintf(w, "  %-20s %d\n", rc.Resource, rc.Count)
		}
		fmt.Fprintln(w)
	}

	if len(catalog.Endpoints) > 0 {
		fmt.Fprintln(w, "Discovered Endpoints:")
		count := len(catalog.Endpoints)
		if count > maxListed {
			count = maxListed
		}
		for _, ep := range catalog.Endpoints[:count] {
			fmt.Fprintf(w, "  [%s] %s\n", ep.Method, ep.Path)
		}
		if len(catalog.Endpoints) > maxListed {
			fmt.Fprintf(w, "  ... and %d more\n", len(catalog.Endpoints)-maxListed)
		}
		fmt.Fprintln(w)
	}
}

// truncate shortens s to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
