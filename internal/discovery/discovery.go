// Package discovery finds API endpoints in TypeScript and JavaScript source
// trees, local or remote.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/framework"
	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/materialize"
	"github.com/PentesterFlow/routescan/internal/metrics"
	"github.com/PentesterFlow/routescan/internal/parser"
)

// Materializer acquires a local copy of a remote source tree.
//
// Materialize may return a Handle alongside an error when a partial copy was
// left behind; the caller releases any temporary handle it gets.
type Materializer interface {
	Materialize(ctx context.Context, locator string, creds *materialize.Credentials) (materialize.Handle, error)
	Release(h materialize.Handle) error
}

// Request describes one discovery run.
type Request struct {
	// Locator is a filesystem path or an http(s) URL.
	Locator string
	// Framework selects the verb-name convention table.
	Framework string
	// ObjectInstance is the router or client identifier to match.
	ObjectInstance string
	// Credentials are used for remote sources. Optional.
	Credentials *materialize.Credentials
	// Clients overrides the profile's client library identifiers. Optional.
	Clients []string
}

// IsRemote reports whether a locator names a remote source.
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// Discoverer runs discovery requests.
type Discoverer struct {
	materializer Materializer
	registry     *framework.Registry
	log          *logger.Logger
	metrics      *metrics.Collector
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithMaterializer sets the remote source materializer.
func WithMaterializer(m Materializer) Option {
	return func(d *Discoverer) {
		d.materializer = m
	}
}

// WithRegistry sets the framework profile registry.
func WithRegistry(r *framework.Registry) Option {
	return func(d *Discoverer) {
		d.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Discoverer) {
		d.log = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(d *Discoverer) {
		d.metrics = m
	}
}

// New creates a Discoverer. Without WithMaterializer, remote locators fail.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = framework.NewRegistry()
	}
	if d.log == nil {
		d.log = logger.NewNop()
	}
	if d.metrics == nil {
		d.metrics = metrics.New()
	}
	return d
}

// Metrics returns the collector the Discoverer records into.
func (d *Discoverer) Metrics() *metrics.Collector {
	return d.metrics
}

// Discover resolves the source root, walks it and returns the catalog.
// A temporary copy of a remote source is released exactly once on every
// exit path. Errors are returned unchanged.
func (d *Discoverer) Discover(ctx context.Context, req Request) ([]parser.Endpoint, error) {
	profile, err := d.registry.Get(req.Framework)
	if err != nil {
		return nil, errors.NewScanError(errors.Config, "framework", "validate", err.Error(), err)
	}
	if len(req.Clients) > 0 {
		profile = profile.WithClients(req.Clients...)
	}
	if req.ObjectInstance == "" {
		return nil, errors.NewConfigError("object_instance", "object instance is required")
	}

	log := d.log.WithSource(req.Locator)
	start := time.Now()

	root := req.Locator
	if IsRemote(req.Locator) {
		if d.materializer == nil {
			return nil, errors.NewConfigError("materializer", "remote sources need a materializer")
		}
		handle, err := d.materializer.Materialize(ctx, req.Locator, req.Credentials)
		if handle.Temporary {
			defer d.release(log, handle)
		}
		if err != nil {
			d.metrics.RecordError(errors.GetErrorType(err).String())
			return nil, err
		}
		d.metrics.RecordMaterialization()
		root = handle.Dir
		log.WithField("dir", root).Debug("Materialized remote source")
	}

	walker := NewWalker(profile, req.ObjectInstance, d.log, d.metrics)
	endpoints, err := walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}

	log.WithDuration(time.Since(start)).Infof("Discovered %d endpoints", len(endpoints))
	return endpoints, nil
}

func (d *Discoverer) release(log *logger.Logger, h materialize.Handle) {
	if err := d.materializer.Release(h); err != nil {
		log.WithError(err).WithField("dir", h.Dir).Warn("Failed to remove temporary copy")
		return
	}
	log.WithField("dir", h.Dir).Debug("Removed temporary copy")
}

// Discover runs one discovery with the default materializer.
func Discover(ctx context.Context, locator, frameworkProfile, objectInstance string, creds *materialize.Credentials) ([]parser.Endpoint, error) {
	d := New(WithMaterializer(materialize.New(materialize.DefaultConfig())))
	return d.Discover(ctx, Request{
		Locator:        locator,
		Framework:      frameworkProfile,
		ObjectInstance: objectInstance,
		Credentials:    creds,
	})
}
