package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/PentesterFlow/routescan/internal/parser"
)

// JSONWriter writes output in JSON format. In stream mode every endpoint is
// a separate JSON line wrapped in a StreamEvent.
type JSONWriter struct {
	mu     sync.Mutex
	writer io.Writer
	pretty bool
	stream bool
	closed bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(w io.Writer, pretty, stream bool) *JSONWriter {
	return &JSONWriter{
		writer: w,
		pretty: pretty,
		stream: stream,
	}
}

// WriteCatalog writes the complete catalog. In stream mode it writes one
// event per endpoint followed by a summary event.
func (j *JSONWriter) WriteCatalog(catalog *Catalog) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	if j.stream {
		for i := range catalog.Endpoints {
			if err := j.writeValue(StreamEvent{Type: "endpoint", Data: &catalog.Endpoints[i]}); err != nil {
				return err
			}
		}
		summary := catalog.Summary
		if summary == nil {
			s := Summarize(catalog.Endpoints)
			summary = &s
		}
		return j.writeValue(StreamEvent{Type: "summary", Data: summary})
	}

	return j.writeValue(catalog)
}

// WriteEndpoint writes a single endpoint in streaming mode.
func (j *JSONWriter) WriteEndpoint(endpoint *parser.Endpoint) error {
	if !j.stream {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	return j.writeValue(StreamEvent{Type: "endpoint", Data: endpoint})
}

func (j *JSONWriter) writeValue(v interface{}) error {
	var data []byte
	var err error

	if j.pretty && !j.stream {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	if _, err := j.writer.Write(data); err != nil {
		return err
	}

	_, err = j.writer.Write([]byte("\n"))
	return err
}

// Flush flushes the writer.
func (j *JSONWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if flusher, ok := j.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close closes the writer.
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if closer, ok := j.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// StreamEvent represents a streaming output event.
type StreamEvent struct {
	Type string      `json:"type" yaml:"type"`
	Data interface{} `json:"data" yaml:"data"`
}

// ProgressWriter wraps a writer and reports running endpoint counts.
type ProgressWriter struct {
	Writer
	mu         sync.Mutex
	stats      ProgressStats
	onProgress func(stats ProgressStats)
}

// ProgressStats contains progress statistics.
type ProgressStats struct {
	Routes   int
	Requests int
}

// NewProgressWriter creates a writer that reports progress.
func NewProgressWriter(w Writer, onProgress func(ProgressStats)) *ProgressWriter {
	return &ProgressWriter{
		Writer:     w,
		onProgress: onProgress,
	}
}

// WriteEndpoint writes an endpoint and updates progress.
func (p *ProgressWriter) WriteEndpoint(endpoint *parser.Endpoint) error {
	p.mu.Lock()
	if endpoint.Kind == parser.KindRequest {
		p.stats.Requests++
	} else {
		p.stats.Routes++
	}
	stats := p.stats
	p.mu.Unlock()

	if p.onProgress != nil {
		p.onProgress(stats)
	}
	return p.Writer.WriteEndpoint(endpoint)
}

// WriteCatalog writes the catalog, reporting each endpoint first.
func (p *ProgressWriter) WriteCatalog(catalog *Catalog) error {
	for i := range catalog.Endpoints {
		p.mu.Lock()
		if catalog.Endpoints[i].Kind == parser.KindRequest {
			p.stats.Requests++
		} else {
			p.stats.Routes++
		}
		stats := p.stats
		p.mu.Unlock()
		if p.onProgress != nil {
			p.onProgress(stats)
		}
	}
	return p.Writer.WriteCatalog(catalog)
}

// Stats returns the counts reported so far.
func (p *ProgressWriter) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
