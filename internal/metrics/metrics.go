// Package metrics provides counters for discovery runs.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates metrics.
type Collector struct {
	// Walk counters
	dirsVisited    atomic.Int64
	filesTyped     atomic.Int64
	filesUntyped   atomic.Int64
	filesIgnored   atomic.Int64
	filesRecovered atomic.Int64
	bytesRead      atomic.Int64

	// Endpoint counters
	routes   atomic.Int64
	requests atomic.Int64

	// Materialization counters
	materializations atomic.Int64
	httpRequests     atomic.Int64
	retriesTotal     atomic.Int64
	errorsTotal      atomic.Int64

	// Parse time tracking
	parseTimesSum atomic.Int64
	parseTimesNum atomic.Int64

	// Histogram (buckets for parse times in ms)
	parseTimeBuckets [6]atomic.Int64 // <5, <25, <100, <500, <2000, >=2000

	// Error breakdown
	errorCounts map[string]*atomic.Int64
	errorMu     sync.RWMutex

	// Method breakdown
	methodCounts map[string]*atomic.Int64
	methodMu     sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		errorCounts:  make(map[string]*atomic.Int64),
		methodCounts: make(map[string]*atomic.Int64),
		startTime:    time.Now(),
	}
}

// RecordDirectory records a visited directory.
func (c *Collector) RecordDirectory() {
	c.dirsVisited.Add(1)
}

// RecordTypedFile records a processed TypeScript file.
func (c *Collector) RecordTypedFile(size int64) {
	c.filesTyped.Add(1)
	c.bytesRead.Add(size)
}

// RecordUntypedFile records a processed JavaScript file.
func (c *Collector) RecordUntypedFile(size int64) {
	c.filesUntyped.Add(1)
	c.bytesRead.Add(size)
}

// RecordIgnoredFile records a file skipped because of its extension.
func (c *Collector) RecordIgnoredFile() {
	c.filesIgnored.Add(1)
}

// RecordRecovered records a file whose parse failure was recovered.
func (c *Collector) RecordRecovered() {
	c.filesRecovered.Add(1)
}

// RecordEndpoint records a discovered endpoint.
func (c *Collector) RecordEndpoint(method string, request bool) {
	if request {
		c.requests.Add(1)
	} else {
		c.routes.Add(1)
	}

	c.methodMu.Lock()
	if c.methodCounts[method] == nil {
		c.methodCounts[method] = &atomic.Int64{}
	}
	c.methodCounts[method].Add(1)
	c.methodMu.Unlock()
}

// RecordMaterialization records a remote source acquisition.
func (c *Collector) RecordMaterialization() {
	c.materializations.Add(1)
}

// RecordHTTPRequest records an HTTP request made while materializing.
func (c *Collector) RecordHTTPRequest() {
	c.httpRequests.Add(1)
}

// RecordRetry records a retry attempt.
func (c *Collector) RecordRetry() {
	c.retriesTotal.Add(1)
}

// RecordError records an error by type.
func (c *Collector) RecordError(errorType string) {
	c.errorsTotal.Add(1)

	c.errorMu.Lock()
	if c.errorCounts[errorType] == nil {
		c.errorCounts[errorType] = &atomic.Int64{}
	}
	c.errorCounts[errorType].Add(1)
	c.errorMu.Unlock()
}

// RecordParseTime records the time spent processing one file.
func (c *Collector) RecordParseTime(d time.Duration) {
	ms := d.Milliseconds()
	c.parseTimesSum.Add(d.Microseconds())
	c.parseTimesNum.Add(1)
	c.parseTimeBuckets[bucket(ms)].Add(1)
}

func bucket(ms int64) int {
	switch {
	case ms < 5:
		return 0
	case ms < 25:
		return 1
	case ms < 100:
		return 2
	case ms < 500:
		return 3
	case ms < 2000:
		return 4
	default:
		return 5
	}
}

// AverageParseTime returns the mean time spent per file.
func (c *Collector) AverageParseTime() time.Duration {
	sum := c.parseTimesSum.Load()
	num := c.parseTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(sum/num) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:        time.Now(),
		Uptime:           time.Since(c.startTime),
		DirsVisited:      c.dirsVisited.Load(),
		FilesTyped:       c.filesTyped.Load(),
		FilesUntyped:     c.filesUntyped.Load(),
		FilesIgnored:     c.filesIgnored.Load(),
		FilesRecovered:   c.filesRecovered.Load(),
		BytesRead:        c.bytesRead.Load(),
		Routes:           c.routes.Load(),
		Requests:         c.requests.Load(),
		Materializations: c.materializations.Load(),
		HTTPRequests:     c.httpRequests.Load(),
		RetriesTotal:     c.retriesTotal.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
		AverageParseTime: c.AverageParseTime(),
		ErrorCounts:      make(map[string]int64),
		MethodCounts:     make(map[string]int64),
		ParseTimeHist:    make([]int64, len(c.parseTimeBuckets)),
	}

	c.errorMu.RLock()
	for k, v := range c.errorCounts {
		s.ErrorCounts[k] = v.Load()
	}
	c.errorMu.RUnlock()

	c.methodMu.RLock()
	for k, v := range c.methodCounts {
		s.MethodCounts[k] = v.Load()
	}
	c.methodMu.RUnlock()

	for i := range c.parseTimeBuckets {
		s.ParseTimeHist[i] = c.parseTimeBuckets[i].Load()
	}

	return s
}

// Reset resets all metrics.
func (c *Collector) Reset() {
	c.dirsVisited.Store(0)
	c.filesTyped.Store(0)
	c.filesUntyped.Store(0)
	c.filesIgnored.Store(0)
	c.filesRecovered.Store(0)
	c.bytesRead.Store(0)
	c.routes.Store(0)
	c.requests.Store(0)
	c.materializations.Store(0)
	c.httpRequests.Store(0)
	c.retriesTotal.Store(0)
	c.errorsTotal.Store(0)
	c.parseTimesSum.Store(0)
	c.parseTimesNum.Store(0)

	for i := range c.parseTimeBuckets {
		c.parseTimeBuckets[i].Store(0)
	}

	c.errorMu.Lock()
	c.errorCounts = make(map[string]*atomic.Int64)
	c.errorMu.Unlock()

	c.methodMu.Lock()
	c.methodCounts = make(map[string]*atomic.Int64)
	c.methodMu.Unlock()

	c.startTime = time.Now()
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp        time.Time        `json:"timestamp"`
	Uptime           time.Duration    `json:"uptime"`
	DirsVisited      int64            `json:"dirs_visited"`
	FilesTyped       int64            `json:"files_typed"`
	FilesUntyped     int64            `json:"files_untyped"`
	FilesIgnored     int64            `json:"files_ignored"`
	FilesRecovered   int64            `json:"files_recovered"`
	BytesRead        int64            `json:"bytes_read"`
	Routes           int64            `json:"routes"`
	Requests         int64            `json:"requests"`
	Materializations int64            `json:"materializations"`
	HTTPRequests     int64            `json:"http_requests"`
	RetriesTotal     int64            `json:"retries_total"`
	ErrorsTotal      int64            `json:"errors_total"`
	AverageParseTime time.Duration    `json:"average_parse_time"`
	ErrorCounts      map[string]int64 `json:"error_counts"`
	MethodCounts     map[string]int64 `json:"method_counts"`
	ParseTimeHist    []int64          `json:"parse_time_histogram"`
}

// FilesProcessed returns the number of files handed to a processor.
func (s *Snapshot) FilesProcessed() int64 {
	return s.FilesTyped + s.FilesUntyped
}

// Endpoints returns the total number of records.
func (s *Snapshot) Endpoints() int64 {
	return s.Routes + s.Requests
}

// Summary returns a human-readable summary.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"uptime":            s.Uptime.String(),
		"dirs_visited":      s.DirsVisited,
		"files_processed":   s.FilesProcessed(),
		"files_ignored":     s.FilesIgnored,
		"files_recovered":   s.FilesRecovered,
		"endpoints":         s.Endpoints(),
		"routes":            s.Routes,
		"requests":          s.Requests,
		"errors_total":      s.ErrorsTotal,
		"avg_parse_time_ms": s.AverageParseTime.Milliseconds(),
	}
}
