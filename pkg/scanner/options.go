package scanner

import (
	"io"

	"github.com/PentesterFlow/routescan/internal/discovery"
	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/metrics"
	"github.com/PentesterFlow/routescan/internal/output"
	"github.com/PentesterFlow/routescan/internal/store"
)

// Option is a functional option for configuring the Scanner.
type Option func(*Scanner) error

// WithSource sets the directory or repository URL to scan.
func WithSource(source string) Option {
	return func(s *Scanner) error {
		s.config.Source = source
		return nil
	}
}

// WithFramework sets the framework profile.
func WithFramework(name string) Option {
	return func(s *Scanner) error {
		s.config.Framework = name
		return nil
	}
}

// WithObjectInstance sets the router or client identifier to match.
func WithObjectInstance(name string) Option {
	return func(s *Scanner) error {
		s.config.ObjectInstance = name
		return nil
	}
}

// WithClients replaces the client library identifiers.
func WithClients(clients ...string) Option {
	return func(s *Scanner) error {
		s.config.Clients = append([]string(nil), clients...)
		return nil
	}
}

// WithToken sets the access token for remote sources.
func WithToken(token string) Option {
	return func(s *Scanner) error {
		s.config.Token = token
		return nil
	}
}

// WithRef sets the branch, tag or commit of a remote source.
func WithRef(ref string) Option {
	return func(s *Scanner) error {
		s.config.Ref = ref
		return nil
	}
}

// WithOutput sets the output writer. The scanner never closes it.
func WithOutput(w io.Writer) Option {
	return func(s *Scanner) error {
		s.outputWriter = w
		return nil
	}
}

// WithOutputFile sets the output file path.
func WithOutputFile(path string) Option {
	return func(s *Scanner) error {
		s.config.Output.FilePath = path
		return nil
	}
}

// WithFormat sets the output format (json or yaml).
func WithFormat(format string) Option {
	return func(s *Scanner) error {
		s.config.Output.Format = format
		return nil
	}
}

// WithPrettyOutput enables/disables pretty JSON output.
func WithPrettyOutput(pretty bool) Option {
	return func(s *Scanner) error {
		s.config.Output.Pretty = pretty
		return nil
	}
}

// WithStreamMode enables streaming output mode.
func WithStreamMode(stream bool) Option {
	return func(s *Scanner) error {
		s.config.Output.Stream = stream
		return nil
	}
}

// WithStorePath enables run persistence in a bbolt file.
func WithStorePath(path string) Option {
	return func(s *Scanner) error {
		s.config.Store.Path = path
		s.config.Store.Enabled = true
		return nil
	}
}

// WithStore sets the run store. The scanner does not close it.
func WithStore(st store.Store) Option {
	return func(s *Scanner) error {
		s.store = st
		return nil
	}
}

// WithMaterializer replaces the remote source materializer.
func WithMaterializer(m discovery.Materializer) Option {
	return func(s *Scanner) error {
		s.materializer = m
		return nil
	}
}

// WithVerbose enables/disables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(s *Scanner) error {
		s.config.Verbose = verbose
		return nil
	}
}

// WithDebug enables/disables debug mode.
func WithDebug(debug bool) Option {
	return func(s *Scanner) error {
		s.config.Debug = debug
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) error {
		s.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) error {
		s.metrics = m
		return nil
	}
}

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(s *Scanner) error {
		s.config = config
		return nil
	}
}

// WithProgress sets a callback invoked as endpoints are written.
func WithProgress(fn func(output.ProgressStats)) Option {
	return func(s *Scanner) error {
		s.onProgress = fn
		return nil
	}
}
