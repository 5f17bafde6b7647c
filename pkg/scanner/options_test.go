package scanner

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/metrics"
	"github.com/PentesterFlow/routescan/internal/output"
	"github.com/PentesterFlow/routescan/internal/store"
)

// Helper to create a minimal scanner for option testing
func newTestScanner() *Scanner {
	return &Scanner{
		config: DefaultConfig(),
	}
}

func apply(t *testing.T, s *Scanner, opt Option) {
	t.Helper()
	if err := opt(s); err != nil {
		t.Fatalf("option error = %v", err)
	}
}

// =============================================================================
// Source Option Tests
// =============================================================================

func TestSourceOptions(t *testing.T) {
	s := newTestScanner()
	apply(t, s, WithSource("https://github.com/acme/shop"))
	apply(t, s, WithFramework("koa"))
	apply(t, s, WithObjectInstance("api"))
	apply(t, s, WithToken("t0k"))
	apply(t, s, WithRef("v2"))

	c := s.config
	if c.Source != "https://github.com/acme/shop" || c.Framework != "koa" || c.ObjectInstance != "api" {
		t.Errorf("config = %+v", c)
	}
	if c.Token != "t0k" || c.Ref != "v2" {
		t.Errorf("Token/Ref = %q/%q", c.Token, c.Ref)
	}
}

func TestWithClients(t *testing.T) {
	clients := []string{"axios", "http"}
	s := newTestScanner()
	apply(t, s, WithClients(clients...))

	if !reflect.DeepEqual(s.config.Clients, clients) {
		t.Errorf("Clients = %v, want %v", s.config.Clients, clients)
	}
	clients[0] = "changed"
	if s.config.Clients[0] != "axios" {
		t.Error("WithClients should copy its arguments")
	}
}

// =============================================================================
// Output Option Tests
// =============================================================================

func TestOutputOptions(t *testing.T) {
	var buf bytes.Buffer
	s := newTestScanner()
	apply(t, s, WithOutput(&buf))
	apply(t, s, WithOutputFile("out/catalog.yaml"))
	apply(t, s, WithFormat("yaml"))
	apply(t, s, WithPrettyOutput(false))
	apply(t, s, WithStreamMode(true))

	if s.outputWriter != &buf {
		t.Error("output writer not set")
	}
	want := output.Config{Format: "yaml", Pretty: false, Stream: true, FilePath: "out/catalog.yaml"}
	if s.config.Output != want {
		t.Errorf("Output = %+v, want %+v", s.config.Output, want)
	}
}

func TestWithProgress(t *testing.T) {
	s := newTestScanner()
	var got output.ProgressStats
	apply(t, s, WithProgress(func(p output.ProgressStats) { got = p }))

	s.onProgress(output.ProgressStats{Routes: 2})
	if got.Routes != 2 {
		t.Error("progress callback not installed")
	}
}

// =============================================================================
// Store Option Tests
// =============================================================================

func TestWithStorePath(t *testing.T) {
	s := newTestScanner()
	apply(t, s, WithStorePath("/tmp/runs.db"))

	if !s.config.Store.Enabled || s.config.Store.Path != "/tmp/runs.db" {
		t.Errorf("Store = %+v", s.config.Store)
	}
}

func TestWithStore(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScanner()
	apply(t, s, WithStore(st))

	if s.store != st {
		t.Error("store not set")
	}
}

// =============================================================================
// Ambient Option Tests
// =============================================================================

func TestWithVerboseAndDebug(t *testing.T) {
	s := newTestScanner()
	apply(t, s, WithVerbose(true))
	apply(t, s, WithDebug(true))

	if !s.config.Verbose || !s.config.Debug {
		t.Errorf("Verbose/Debug = %v/%v", s.config.Verbose, s.config.Debug)
	}
}

func TestWithLoggerAndMetrics(t *testing.T) {
	l := logger.NewNop()
	m := metrics.New()
	s := newTestScanner()
	apply(t, s, WithLogger(l))
	apply(t, s, WithMetrics(m))

	if s.logger != l || s.metrics != m {
		t.Error("logger or metrics not set")
	}
}

func TestWithMaterializer(t *testing.T) {
	fake := &fakeMaterializer{}
	s := newTestScanner()
	apply(t, s, WithMaterializer(fake))

	if s.materializer != fake {
		t.Error("materializer not set")
	}
}

func TestWithConfig(t *testing.T) {
	config := DefaultConfig()
	config.Source = "./other"
	s := newTestScanner()
	apply(t, s, WithConfig(config))

	if s.config != config {
		t.Error("config not replaced")
	}
}
