package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/PentesterFlow/routescan/internal/parser"
)

// RunStats contains counters recorded for one discovery run.
type RunStats struct {
	FilesProcessed int64         `json:"files_processed" yaml:"files_processed"`
	FilesRecovered int64         `json:"files_recovered" yaml:"files_recovered"`
	Routes         int           `json:"routes" yaml:"routes"`
	Requests       int           `json:"requests" yaml:"requests"`
	UniqueRoutes   int           `json:"unique_routes" yaml:"unique_routes"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

// Run is a persisted discovery run.
type Run struct {
	ID             string            `json:"id" yaml:"id"`
	Source         string            `json:"source" yaml:"source"`
	Framework      string            `json:"framework" yaml:"framework"`
	ObjectInstance string            `json:"object_instance" yaml:"object_instance"`
	StartedAt      time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time         `json:"finished_at" yaml:"finished_at"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
	Stats          RunStats          `json:"stats" yaml:"stats"`
	Endpoints      []parser.Endpoint `json:"endpoints" yaml:"endpoints"`
}

// NewRun starts a run record with a fresh ID.
func NewRun(source, framework, instance string) *Run {
	return &Run{
		ID:             uuid.NewString(),
		Source:         source,
		Framework:      framework,
		ObjectInstance: instance,
		StartedAt:      time.Now().UTC(),
	}
}

// Finish stores the outcome of the run and fills its stats.
func (r *Run) Finish(endpoints []parser.Endpoint, err error) {
	r.FinishedAt = time.Now().UTC()
	r.Stats.Duration = r.FinishedAt.Sub(r.StartedAt)
	if err != nil {
		r.Error = err.Error()
		return
	}
	r.Endpoints = endpoints
	r.Stats.Routes, r.Stats.Requests = 0, 0
	dedup := NewDeduplicator(len(endpoints))
	for _, ep := range endpoints {
		if ep.Kind == parser.KindRequest {
			r.Stats.Requests++
		} else {
			r.Stats.Routes++
		}
		dedup.Add(RouteKey(string(ep.Method), ep.Path))
	}
	r.Stats.UniqueRoutes = dedup.Count()
}

// Summary returns the listing view of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		Source:     r.Source,
		Framework:  r.Framework,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Endpoints:  len(r.Endpoints),
		Failed:     r.Error != "",
	}
}

// RunSummary is the lightweight listing entry for a run.
type RunSummary struct {
	ID         string    `json:"id" yaml:"id"`
	Source     string    `json:"source" yaml:"source"`
	Framework  string    `json:"framework" yaml:"framework"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Endpoints  int       `json:"endpoints" yaml:"endpoints"`
	Failed     bool      `json:"failed" yaml:"failed"`
}
