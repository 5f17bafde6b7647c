// Package materialize acquires local working copies of remote source trees.
package materialize

import (
	"context"
	"os"
	"time"

	"github.com/PentesterFlow/routescan/internal/errors"
	httpclient "github.com/PentesterFlow/routescan/internal/http"
	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/metrics"
)

// Credentials authorize access to a remote source.
type Credentials struct {
	// Token is a personal access token. With a GitHub locator it selects
	// the API tarball fetch; elsewhere it is sent as a bearer header to git.
	Token string `json:"-" yaml:"-"`
	// Ref is a branch, tag or commit. Empty means the default branch.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// HasToken reports whether c carries a token.
func (c *Credentials) HasToken() bool {
	return c != nil && c.Token != ""
}

// Handle names a local directory holding a source tree.
type Handle struct {
	Dir       string
	Locator   string
	Temporary bool
}

// Config configures a Materializer.
type Config struct {
	APIBase           string        `json:"api_base" yaml:"api_base"`
	TempDir           string        `json:"temp_dir" yaml:"temp_dir"`
	GitBinary         string        `json:"git_binary" yaml:"git_binary"`
	CloneDepth        int           `json:"clone_depth" yaml:"clone_depth"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `json:"burst" yaml:"burst"`
	MaxArchiveSize    int64         `json:"max_archive_size" yaml:"max_archive_size"`
	UserAgent         string        `json:"user_agent" yaml:"user_agent"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIBase:           "https://api.github.com",
		GitBinary:         "git",
		CloneDepth:        1,
		Timeout:           5 * time.Minute,
		RequestsPerSecond: 5,
		Burst:             5,
		MaxArchiveSize:    512 << 20,
		UserAgent:         "routescan/1.0",
	}
}

// Materializer clones or downloads remote sources into temporary directories.
type Materializer struct {
	cfg     Config
	client  *httpclient.Client
	cmd     Commander
	log     *logger.Logger
	metrics *metrics.Collector
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithCommander replaces the command runner used for git.
func WithCommander(c Commander) Option {
	return func(m *Materializer) {
		m.cmd = c
	}
}

// WithHTTPClient replaces the archive download client.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(m *Materializer) {
		m.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Materializer) {
		m.log = l
	}
}

// WithMetrics sets the collector for HTTP request and retry counts.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Materializer) {
		m.metrics = c
	}
}

// New creates a Materializer.
func New(cfg Config, opts ...Option) *Materializer {
	def := DefaultConfig()
	if cfg.APIBase == "" {
		cfg.APIBase = def.APIBase
	}
	if cfg.GitBinary == "" {
		cfg.GitBinary = def.GitBinary
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	m := &Materializer{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.NewNop()
	}
	m.log = m.log.WithComponent("materialize")
	if m.cmd == nil {
		m.cmd = ExecCommander{}
	}
	if m.client == nil {
		cc := httpclient.DefaultClientConfig()
		cc.MaxIdleConns = 4
		cc.MaxConnsPerHost = 2
		cc.UserAgent = cfg.UserAgent
		if cfg.Timeout > 0 {
			cc.Timeout = cfg.Timeout
		}
		if cfg.MaxArchiveSize > 0 {
			cc.MaxBodySize = cfg.MaxArchiveSize
		}
		cc.RequestsPerSecond = cfg.RequestsPerSecond
		cc.Burst = cfg.Burst
		m.client = httpclient.NewClient(cc)
	}
	m.client.SetHeaders(apiHeaders)
	if m.metrics != nil {
		m.client.SetMetrics(m.metrics)
	}
	return m
}

// Materialize copies the source named by locator into a fresh temporary
// directory. The returned handle is Temporary whenever that directory was
// created, including when an error follows, so a partial copy can be
// released by the caller.
func (m *Materializer) Materialize(ctx context.Context, locator string, creds *Credentials) (Handle, error) {
	dir, err := os.MkdirTemp(m.cfg.TempDir, "routescan-")
	if err != nil {
		return Handle{}, errors.NewFileSystemError(m.cfg.TempDir, "mkdir_temp", err)
	}
	h := Handle{Dir: dir, Locator: locator, Temporary: true}

	log := m.log.WithSource(locator)
	start := time.Now()

	if owner, repo, ok := GitHubRepo(locator); ok && creds.HasToken() {
		log.Debugf("Fetching %s/%s through the API", owner, repo)
		err = m.fetchArchive(ctx, owner, repo, creds, dir)
	} else {
		log.Debug("Cloning repository")
		err = m.clone(ctx, locator, creds, dir)
	}
	if err != nil {
		log.WithError(err).Warn("Materialization failed")
		return h, err
	}

	log.WithDuration(time.Since(start)).WithField("dir", dir).Info("Materialized source")
	return h, nil
}

// Release removes a temporary copy. Non-temporary handles are left alone and
// releasing twice is harmless.
func (m *Materializer) Release(h Handle) error {
	if !h.Temporary || h.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(h.Dir); err != nil {
		return errors.NewFileSystemError(h.Dir, "remove", err)
	}
	return nil
}
