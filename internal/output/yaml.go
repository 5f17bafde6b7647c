package output

import (
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/routescan/internal/parser"
)

// YAMLWriter writes output as YAML. In stream mode every endpoint is a
// separate document.
type YAMLWriter struct {
	mu      sync.Mutex
	writer  io.Writer
	encoder *yaml.Encoder
	stream  bool
	closed  bool
}

// NewYAMLWriter creates a new YAML writer.
func NewYAMLWriter(w io.Writer, stream bool) *YAMLWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLWriter{
		writer:  w,
		encoder: enc,
		stream:  stream,
	}
}

// WriteCatalog writes the complete catalog.
func (y *YAMLWriter) WriteCatalog(catalog *Catalog) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}

	if y.stream {
		for i := range catalog.Endpoints {
			if err := y.encoder.Encode(StreamEvent{Type: "endpoint", Data: &catalog.Endpoints[i]}); err != nil {
				return err
			}
		}
		summary := catalog.Summary
		if summary == nil {
			s := Summarize(catalog.Endpoints)
			summary = &s
		}
		return y.encoder.Encode(StreamEvent{Type: "summary", Data: summary})
	}
	return y.encoder.Encode(catalog)
}

// WriteEndpoint writes a single endpoint in streaming mode.
func (y *YAMLWriter) WriteEndpoint(endpoint *parser.Endpoint) error {
	if !y.stream {
		return nil
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}
	return y.encoder.Encode(StreamEvent{Type: "endpoint", Data: endpoint})
}

// Flush finishes the current YAML stream.
func (y *YAMLWriter) Flush() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if flusher, ok := y.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close closes the encoder and the underlying writer.
func (y *YAMLWriter) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}
	y.closed = true

	if err := y.encoder.Close(); err != nil {
		return err
	}
	if closer, ok := y.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
