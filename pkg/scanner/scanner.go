// Package scanner discovers the HTTP endpoints a TypeScript or JavaScript
// code base registers or calls, and writes them as a catalog.
package scanner

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/PentesterFlow/routescan/internal/discovery"
	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/materialize"
	"github.com/PentesterFlow/routescan/internal/metrics"
	"github.com/PentesterFlow/routescan/internal/output"
	"github.com/PentesterFlow/routescan/internal/parser"
	"github.com/PentesterFlow/routescan/internal/store"
)

// Scanner runs discovery and publishes the resulting catalog.
type Scanner struct {
	config       *Config
	discoverer   *discovery.Discoverer
	materializer discovery.Materializer
	store        store.Store
	ownStore     bool
	outputWriter io.Writer
	onProgress   func(output.ProgressStats)
	logger       *logger.Logger
	metrics      *metrics.Collector

	running atomic.Bool
}

// New creates a new scanner with the given options.
func New(opts ...Option) (*Scanner, error) {
	s := &Scanner{
		config: DefaultConfig(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate config
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if s.logger == nil {
		logLevel := logger.InfoLevel
		if s.config.Debug {
			logLevel = logger.DebugLevel
		} else if !s.config.Verbose {
			logLevel = logger.WarnLevel
		}
		s.logger = logger.New(logger.Config{
			Level:     logLevel,
			Pretty:    true,
			Component: "scanner",
		})
	}

	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	if s.materializer == nil {
		s.materializer = materialize.New(s.config.Materialize,
			materialize.WithLogger(s.logger.WithComponent("materialize")),
			materialize.WithMetrics(s.metrics),
		)
	}

	s.discoverer = discovery.New(
		discovery.WithMaterializer(s.materializer),
		discovery.WithLogger(s.logger.WithComponent("discovery")),
		discovery.WithMetrics(s.metrics),
	)

	if s.store == nil && s.config.Store.Enabled {
		bs, err := store.NewBoltStore(s.config.Store.Path)
		if err != nil {
			return nil, err
		}
		s.store = bs
		s.ownStore = true
	}

	return s, nil
}

// Run discovers endpoints, records the run and writes the catalog.
// The metrics collector is reset at the start of every run.
func (s *Scanner) Run(ctx context.Context) (*output.Catalog, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("scanner is already running")
	}
	defer s.running.Store(false)

	cfg := s.config
	s.metrics.Reset()

	run := store.NewRun(cfg.Source, cfg.Framework, cfg.ObjectInstance)
	log := s.logger.WithSource(cfg.Source).WithFields(map[string]interface{}{
		"run_id":    run.ID,
		"framework": cfg.Framework,
		"instance":  cfg.ObjectInstance,
	})
	log.Info("Starting discovery")

	endpoints, err := s.discoverer.Discover(ctx, discovery.Request{
		Locator:        cfg.Source,
		Framework:      cfg.Framework,
		ObjectInstance: cfg.ObjectInstance,
		Credentials:    s.credentials(),
		Clients:        cfg.Clients,
	})

	snap := s.metrics.Snapshot()
	run.Finish(endpoints, err)
	run.Stats.FilesProcessed = snap.FilesProcessed()
	run.Stats.FilesRecovered = snap.FilesRecovered
	s.saveRun(log, run)

	if err != nil {
		if errors.IsMaterializationError(err) {
			if code := errors.GetStatusCode(err); code != 0 {
				log = log.WithField("status", code)
			}
		}
		log.ErrorEvent(err, cfg.Source, "discover")
		return nil, err
	}

	log.StatsEvent(snap.Summary())

	catalog := &output.Catalog{
		RunID:          run.ID,
		Source:         cfg.Source,
		Framework:      cfg.Framework,
		ObjectInstance: cfg.ObjectInstance,
		StartedAt:      run.StartedAt,
		CompletedAt:    run.FinishedAt,
		Stats: output.CatalogStats{
			DirsVisited:    snap.DirsVisited,
			FilesProcessed: snap.FilesProcessed(),
			FilesIgnored:   snap.FilesIgnored,
			FilesRecovered: snap.FilesRecovered,
			BytesRead:      snap.BytesRead,
			Duration:       run.Stats.Duration,
		},
		Endpoints: endpoints,
	}
	catalog.WithSummary()

	if err := s.write(catalog); err != nil {
		return catalog, fmt.Errorf("failed to write output: %w", err)
	}

	return catalog, nil
}

func (s *Scanner) credentials() *materialize.Credentials {
	if s.config.Token == "" && s.config.Ref == "" {
		return nil
	}
	return &materialize.Credentials{
		Token: s.config.Token,
		Ref:   s.config.Ref,
	}
}

func (s *Scanner) saveRun(log *logger.Logger, run *store.Run) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveRun(run); err != nil {
		log.WithError(err).Warn("Failed to save run")
		return
	}
	log.Debug("Saved run")
}

// writerOnly hides Close so a caller-supplied writer stays open.
type writerOnly struct {
	io.Writer
}

func (s *Scanner) write(catalog *output.Catalog) error {
	var (
		w   output.Writer
		err error
	)
	if s.outputWriter != nil {
		w, err = output.NewWriter(writerOnly{s.outputWriter}, s.config.Output)
	} else {
		w, err = output.Open(s.config.Output)
	}
	if err != nil {
		return err
	}
	if s.onProgress != nil {
		w = output.NewProgressWriter(w, s.onProgress)
	}
	defer w.Close()

	if err := w.WriteCatalog(catalog); err != nil {
		return err
	}
	return w.Flush()
}

// Config returns a copy of the configuration.
func (s *Scanner) Config() *Config {
	return s.config.Clone()
}

// Store returns the run store, or nil when persistence is off.
func (s *Scanner) Store() store.Store {
	return s.store
}

// Metrics returns the metrics collector for external access.
func (s *Scanner) Metrics() *metrics.Collector {
	return s.metrics
}

// MetricsSnapshot returns a point-in-time snapshot of all metrics.
func (s *Scanner) MetricsSnapshot() *metrics.Snapshot {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Snapshot()
}

// IsRunning reports whether Run is in progress.
func (s *Scanner) IsRunning() bool {
	return s.running.Load()
}

// Close releases the store if the scanner opened it.
func (s *Scanner) Close() error {
	if s.ownStore && s.store != nil {
		err := s.store.Close()
		s.store = nil
		return err
	}
	return nil
}

// Discover scans source and returns its endpoints without writing a catalog.
func Discover(ctx context.Context, source, frameworkProfile, objectInstance string, opts ...Option) ([]parser.Endpoint, error) {
	base := []Option{
		WithSource(source),
		WithFramework(frameworkProfile),
		WithObjectInstance(objectInstance),
		WithOutput(io.Discard),
		WithLogger(logger.NewNop()),
	}
	s, err := New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	catalog, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Endpoints, nil
}
