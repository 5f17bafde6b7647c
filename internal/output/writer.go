// Package output writes discovery catalogs.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PentesterFlow/routescan/internal/parser"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Writer defines the interface for output writers.
type Writer interface {
	// WriteCatalog writes the complete catalog
	WriteCatalog(catalog *Catalog) error

	// WriteEndpoint writes a single endpoint (for streaming)
	WriteEndpoint(endpoint *parser.Endpoint) error

	// Flush flushes any buffered output
	Flush() error

	// Close closes the writer
	Close() error
}

// Config holds output configuration.
type Config struct {
	Format   string `json:"format" yaml:"format"`
	Pretty   bool   `json:"pretty" yaml:"pretty"`
	Stream   bool   `json:"stream" yaml:"stream"`
	FilePath string `json:"file_path" yaml:"file_path"`
}

// FormatFor returns the format implied by a file extension, or def.
func FormatFor(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return def
	}
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, config Config) (Writer, error) {
	switch strings.ToLower(config.Format) {
	case "", FormatJSON:
		return NewJSONWriter(w, config.Pretty, config.Stream), nil
	case FormatYAML, "yml":
		return NewYAMLWriter(w, config.Stream), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", config.Format)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Open creates a writer for config.FilePath, or for stdout when it is empty
// or "-". Closing the writer closes the file but never stdout.
func Open(config Config) (Writer, error) {
	if config.FilePath == "" || config.FilePath == "-" {
		return NewWriter(nopCloser{os.Stdout}, config)
	}

	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w, err := NewWriter(f, config)
	if err != nil {
		f.Close()
		os.Remove(config.FilePath)
		return nil, err
	}
	return w, nil
}
