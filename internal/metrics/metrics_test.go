package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Fatal("New() returned nil")
	}
}

func TestCollector_WalkCounters(t *testing.T) {
	c := New()

	c.RecordDirectory()
	c.RecordDirectory()
	c.RecordTypedFile(100)
	c.RecordUntypedFile(50)
	c.RecordUntypedFile(25)
	c.RecordIgnoredFile()
	c.RecordRecovered()

	snap := c.Snapshot()
	if snap.DirsVisited != 2 {
		t.Errorf("DirsVisited = %d, want 2", snap.DirsVisited)
	}
	if snap.FilesTyped != 1 || snap.FilesUntyped != 2 {
		t.Errorf("FilesTyped = %d, FilesUntyped = %d", snap.FilesTyped, snap.FilesUntyped)
	}
	if snap.FilesProcessed() != 3 {
		t.Errorf("FilesProcessed() = %d, want 3", snap.FilesProcessed())
	}
	if snap.FilesIgnored != 1 || snap.FilesRecovered != 1 {
		t.Errorf("FilesIgnored = %d, FilesRecovered = %d", snap.FilesIgnored, snap.FilesRecovered)
	}
	if snap.BytesRead != 175 {
		t.Errorf("BytesRead = %d, want 175", snap.BytesRead)
	}
}

func TestCollector_RecordEndpoint(t *testing.T) {
	c := New()

	c.RecordEndpoint("GET", false)
	c.RecordEndpoint("GET", true)
	c.RecordEndpoint("POST", false)

	snap := c.Snapshot()
	if snap.Routes != 2 || snap.Requests != 1 {
		t.Errorf("Routes = %d, Requests = %d", snap.Routes, snap.Requests)
	}
	if snap.Endpoints() != 3 {
		t.Errorf("Endpoints() = %d, want 3", snap.Endpoints())
	}
	if snap.MethodCounts["GET"] != 2 || snap.MethodCounts["POST"] != 1 {
		t.Errorf("MethodCounts = %v", snap.MethodCounts)
	}
}

func TestCollector_RecordError(t *testing.T) {
	c := New()

	c.RecordError("untyped_parse")
	c.RecordError("untyped_parse")
	c.RecordError("network")

	snap := c.Snapshot()
	if snap.ErrorsTotal != 3 {
		t.Errorf("ErrorsTotal = %d, want 3", snap.ErrorsTotal)
	}
	if snap.ErrorCounts["untyped_parse"] != 2 {
		t.Errorf("ErrorCounts[untyped_parse] = %d, want 2", snap.ErrorCounts["untyped_parse"])
	}
	if snap.ErrorCounts["network"] != 1 {
		t.Errorf("ErrorCounts[network] = %d, want 1", snap.ErrorCounts["network"])
	}
}

func TestCollector_MaterializationCounters(t *testing.T) {
	c := New()

	c.RecordMaterialization()
	c.RecordHTTPRequest()
	c.RecordHTTPRequest()
	c.RecordRetry()

	snap := c.Snapshot()
	if snap.Materializations != 1 || snap.HTTPRequests != 2 || snap.RetriesTotal != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestCollector_RecordParseTime(t *testing.T) {
	c := New()

	c.RecordParseTime(2 * time.Millisecond)
	c.RecordParseTime(4 * time.Millisecond)

	if avg := c.AverageParseTime(); avg != 3*time.Millisecond {
		t.Errorf("AverageParseTime() = %v, want 3ms", avg)
	}
}

func TestCollector_RecordParseTime_Buckets(t *testing.T) {
	c := New()

	c.RecordParseTime(1 * time.Millisecond)    // bucket 0 (<5)
	c.RecordParseTime(10 * time.Millisecond)   // bucket 1 (<25)
	c.RecordParseTime(50 * time.Millisecond)   // bucket 2 (<100)
	c.RecordParseTime(250 * time.Millisecond)  // bucket 3 (<500)
	c.RecordParseTime(1000 * time.Millisecond) // bucket 4 (<2000)
	c.RecordParseTime(3000 * time.Millisecond) // bucket 5 (>=2000)

	snap := c.Snapshot()
	for i := 0; i < 6; i++ {
		if snap.ParseTimeHist[i] != 1 {
			t.Errorf("ParseTimeHist[%d] = %d, want 1", i, snap.ParseTimeHist[i])
		}
	}
}

func TestCollector_AverageParseTime_Empty(t *testing.T) {
	if avg := New().AverageParseTime(); avg != 0 {
		t.Errorf("AverageParseTime with no data = %v, want 0", avg)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := New()

	c.RecordDirectory()
	c.RecordTypedFile(10)
	c.RecordEndpoint("GET", false)
	c.RecordError("filesystem")

	c.Reset()

	snap := c.Snapshot()
	if snap.DirsVisited != 0 || snap.FilesTyped != 0 || snap.Routes != 0 || snap.ErrorsTotal != 0 {
		t.Errorf("snapshot after reset = %+v", snap)
	}
	if len(snap.MethodCounts) != 0 || len(snap.ErrorCounts) != 0 {
		t.Error("breakdowns should be empty after reset")
	}
}

func TestSnapshot_Summary(t *testing.T) {
	s := &Snapshot{
		Uptime:         10 * time.Second,
		FilesTyped:     4,
		FilesUntyped:   6,
		FilesRecovered: 1,
		Routes:         12,
		Requests:       3,
	}

	summary := s.Summary()

	if summary["files_processed"] != int64(10) {
		t.Errorf("summary[files_processed] = %v, want 10", summary["files_processed"])
	}
	if summary["endpoints"] != int64(15) {
		t.Errorf("summary[endpoints] = %v, want 15", summary["endpoints"])
	}
	if summary["files_recovered"] != int64(1) {
		t.Errorf("summary[files_recovered] = %v, want 1", summary["files_recovered"])
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordUntypedFile(1)
				c.RecordEndpoint("GET", j%2 == 0)
				c.RecordError("test")
				c.RecordParseTime(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.FilesUntyped != 1000 {
		t.Errorf("FilesUntyped = %d, want 1000", snap.FilesUntyped)
	}
	if snap.Endpoints() != 1000 || snap.MethodCounts["GET"] != 1000 {
		t.Errorf("Endpoints() = %d, MethodCounts[GET] = %d", snap.Endpoints(), snap.MethodCounts["GET"])
	}
	if snap.ErrorsTotal != 1000 {
		t.Errorf("ErrorsTotal = %d, want 1000", snap.ErrorsTotal)
	}
}
