package output

import (
	"time"

	"github.com/PentesterFlow/routescan/internal/parser"
)

// Catalog is the complete result of one discovery run.
type Catalog struct {
	RunID          string            `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source         string            `json:"source" yaml:"source"`
	Framework      string            `json:"framework" yaml:"framework"`
	ObjectInstance string            `json:"object_instance" yaml:"object_instance"`
	StartedAt      time.Time         `json:"started_at" yaml:"started_at"`
	CompletedAt    time.Time         `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Stats          CatalogStats      `json:"stats" yaml:"stats"`
	Summary        *Summary          `json:"summary,omitempty" yaml:"summary,omitempty"`
	Endpoints      []parser.Endpoint `json:"endpoints" yaml:"endpoints"`
}

// CatalogStats contains walk statistics for a catalog.
type CatalogStats struct {
	DirsVisited    int64         `json:"dirs_visited" yaml:"dirs_visited"`
	FilesProcessed int64         `json:"files_processed" yaml:"files_processed"`
	FilesIgnored   int64         `json:"files_ignored" yaml:"files_ignored"`
	FilesRecovered int64         `json:"files_recovered" yaml:"files_recovered"`
	BytesRead      int64         `json:"bytes_read" yaml:"bytes_read"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

// WithSummary returns the catalog with its summary computed.
func (c *Catalog) WithSummary() *Catalog {
	s := Summarize(c.Endpoints)
	c.Summary = &s
	return c
}
