package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsSlowQuery(t *testing.T) {
	analyzer := NewSlowQueryAnalyzer(1*time.Second, 100)

	tests := []struct {
		name     string
		duration time.Duration
		expected bool
	}{
		{"Fast query", 500 * time.Millisecond, false},
		{"At threshold", 1 * time.Second, true},
		{"Slow query", 2 * time.Second, true},
		{"Zero duration", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := analyzer.IsSlowQuery(tt.duration); got != tt.expected {
				t.Errorf("IsSlowQuery(%v) = %v, want %v", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestZeroThresholdDisablesLog(t *testing.T) {
	analyzer := NewSlowQueryAnalyzer(0, 10)
	if analyzer.IsSlowQuery(time.Hour) {
		t.Error("zero threshold should disable the slow query log")
	}
}

func TestRecordSlowQueryEvictsOldest(t *testing.T) {
	analyzer := NewSlowQueryAnalyzer(time.Millisecond, 3)

	for i := 0; i < 5; i++ {
		analyzer.RecordSlowQuery(fmt.Sprintf("SELECT %d", i), time.Second, 1, "")
	}
	if got := analyzer.GetSlowQueryCount(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if first := analyzer.GetAllSlowQueries()[0]; first.SQL != "SELECT 2" || first.ID != 3 {
		t.Errorf("oldest kept = %+v", first)
	}

	if id := analyzer.RecordSlowQuery("SELECT fast", time.Microsecond, 0, ""); id != 0 {
		t.Errorf("fast query recorded with id %d", id)
	}

	analyzer.Clear()
	if analyzer.GetSlowQueryCount() != 0 {
		t.Error("Clear should drop all entries")
	}
}

func TestMonitorContextEnd(t *testing.T) {
	metrics := NewMetricsCollector()
	slow := NewSlowQueryAnalyzer(time.Nanosecond, 10)

	mc := NewMonitorContext(context.Background(), metrics, slow, "SELECT * FROM processes")
	time.Sleep(time.Millisecond)
	mc.End(0, errors.New("boom"))

	if metrics.GetQueryError() != 1 {
		t.Errorf("QueryError = %d, want 1", metrics.GetQueryError())
	}
	logs := slow.GetAllSlowQueries()
	if len(logs) != 1 || logs[0].Error != "boom" {
		t.Errorf("slow log = %+v", logs)
	}
	if metrics.GetSnapshot().SlowQueryCount != 1 {
		t.Error("slow query should be counted")
	}
}
