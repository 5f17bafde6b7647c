package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/framework"
	"github.com/PentesterFlow/routescan/internal/materialize"
	"github.com/PentesterFlow/routescan/internal/output"
)

// TokenEnv is the environment variable a token is read from when none is set.
const TokenEnv = "GITHUB_TOKEN"

// Config holds all scanner configuration.
type Config struct {
	// Source is a directory path or an http(s) repository URL
	Source string `json:"source" yaml:"source"`

	// Framework profile name (express, koa, fastify, hono, restify, hapi, axios)
	Framework string `json:"framework" yaml:"framework"`

	// Identifier of the router or client object to match
	ObjectInstance string `json:"object_instance" yaml:"object_instance"`

	// Client library identifiers; empty keeps the profile's defaults
	Clients []string `json:"clients,omitempty" yaml:"clients,omitempty"`

	// Access token for remote sources. Never written to config files.
	Token string `json:"-" yaml:"-"`

	// Branch, tag or commit of a remote source
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`

	// Output configuration
	Output output.Config `json:"output" yaml:"output"`

	// Run persistence
	Store StoreConfig `json:"store" yaml:"store"`

	// Remote source acquisition
	Materialize materialize.Config `json:"materialize" yaml:"materialize"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// StoreConfig holds run persistence configuration.
type StoreConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// DefaultStorePath is where runs are kept unless configured otherwise.
var DefaultStorePath = filepath.Join(".routescan", "runs.db")

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Framework:      string(framework.TypeExpress),
		ObjectInstance: "router",
		Output: output.Config{
			Format: output.FormatJSON,
			Pretty: true,
			Stream: false,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    DefaultStorePath,
		},
		Materialize: materialize.DefaultConfig(),
		Verbose:     false,
		Debug:       false,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file. The token is never saved.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv fills settings that may come from the environment.
func (c *Config) ApplyEnv() {
	if c.Token == "" {
		c.Token = os.Getenv(TokenEnv)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return errors.NewConfigError("source", "source path or URL is required")
	}

	if _, err := framework.Lookup(c.Framework); err != nil {
		return errors.NewConfigError("framework", err.Error())
	}

	if strings.TrimSpace(c.ObjectInstance) == "" {
		return errors.NewConfigError("object_instance", "object instance is required")
	}

	switch strings.ToLower(c.Output.Format) {
	case "", output.FormatJSON, output.FormatYAML, "yml":
	default:
		return errors.NewConfigError("output.format", fmt.Sprintf("unsupported format %q", c.Output.Format))
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return errors.NewConfigError("store.path", "store path is required when the store is enabled")
	}

	if c.Materialize.CloneDepth < 0 {
		return errors.NewConfigError("materialize.clone_depth", "clone depth must not be negative")
	}

	if c.Materialize.RequestsPerSecond < 0 {
		return errors.NewConfigError("materialize.requests_per_second", "rate limit must not be negative")
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	clone.Token = c.Token
	return clone
}
