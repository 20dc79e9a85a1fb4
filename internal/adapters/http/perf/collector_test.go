package perf

import (
	"sync"
	"testing"
	"time"
)

// TestCollector_GroupsByKind verifies requests, queries and upstream calls are aggregated separately.
func TestCollector_GroupsByKind(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /", StatusCode: 200, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "QueryContext", DurationMs: 5, Timestamp: now})
	c.Record(Entry{Kind: KindUpstream, Path: "GET /activities", StatusCode: 200, DurationMs: 8, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 4 {
		t.Errorf("TotalRecorded = %d, want 4", snap.TotalRecorded)
	}
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].AvgMs != 20 {
		t.Fatalf("SlowestPaths = %+v, want one path averaging 20ms", snap.SlowestPaths)
	}
	if len(snap.SlowestQueries) != 1 {
		t.Errorf("SlowestQueries len = %d, want 1", len(snap.SlowestQueries))
	}
	if len(snap.SlowestUpstream) != 1 || snap.SlowestUpstream[0].Path != "GET /activities" {
		t.Errorf("SlowestUpstream = %+v, want GET /activities", snap.SlowestUpstream)
	}
}

// TestCollector_CountsUpstreamErrors verifies transport failures and 5xx responses are counted.
func TestCollector_CountsUpstreamErrors(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()

	c.Record(Entry{Kind: KindUpstream, Path: "GET /activities", StatusCode: 0, DurationMs: 1, Timestamp: now})
	c.Record(Entry{Kind: KindUpstream, Path: "GET /activities", StatusCode: 502, DurationMs: 1, Timestamp: now})
	c.Record(Entry{Kind: KindUpstream, Path: "POST /activities/x/signup", StatusCode: 400, DurationMs: 1, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.UpstreamErrors != 2 {
		t.Errorf("UpstreamErrors = %d, want 2 (4xx is a valid answer)", snap.UpstreamErrors)
	}
}

// TestCollector_RingBuffer_Overwrites verifies oldest entries are overwritten when full.
func TestCollector_RingBuffer_Overwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", DurationMs: float64(i), Timestamp: now})
	}

	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.SlowestPaths[0].Count != 3 {
		t.Errorf("Count = %d, want 3 (ring buffer kept last 3)", snap.SlowestPaths[0].Count)
	}
}

// TestCollector_Percentiles verifies P50/P95/P99 calculation.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()

	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /p", DurationMs: float64(i), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.RequestP50Ms < 49 || snap.RequestP50Ms > 51 {
		t.Errorf("P50 = %v, want ~50", snap.RequestP50Ms)
	}
	if snap.RequestP99Ms < 98 || snap.RequestP99Ms > 100 {
		t.Errorf("P99 = %v, want ~99", snap.RequestP99Ms)
	}
}

// TestCollector_Snapshot_FiltersBySince verifies old entries are excluded.
func TestCollector_Snapshot_FiltersBySince(t *testing.T) {
	c := NewCollector(100)
	c.Record(Entry{Kind: KindUpstream, Path: "GET /old", DurationMs: 100, Timestamp: time.Now().Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindUpstream, Path: "GET /new", DurationMs: 10, Timestamp: time.Now()})

	snap := c.Snapshot(time.Now().Add(-time.Hour), 10)
	if len(snap.SlowestUpstream) != 1 || snap.SlowestUpstream[0].Path != "GET /new" {
		t.Errorf("SlowestUpstream = %+v, want only GET /new", snap.SlowestUpstream)
	}
}

// TestCollector_NilIsNoop verifies a nil collector can be passed around safely.
func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.Record(Entry{Kind: KindRequest, Path: "GET /", Timestamp: time.Now()})
	if c.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded on nil = %d, want 0", c.TotalRecorded())
	}
}

// TestCollector_ConcurrentWrites verifies goroutine safety of Record.
func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(1000)
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Record(Entry{Kind: KindUpstream, Path: "GET /activities", DurationMs: float64(n), Timestamp: now})
			}
		}(i)
	}
	wg.Wait()
	if c.TotalRecorded() != 1000 {
		t.Errorf("TotalRecorded = %d, want 1000", c.TotalRecorded())
	}
}

func TestEntryKind_String(t *testing.T) {
	if KindUpstream.String() != "upstream" || KindQuery.String() != "query" || KindRequest.String() != "request" {
		t.Error("unexpected EntryKind labels")
	}
}

// BenchmarkCollectorRecord measures per-call cost of Record().
func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindUpstream, Path: "GET /activities", StatusCode: 200, DurationMs: 1.5, Timestamp: time.Now()}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(e)
	}
}
