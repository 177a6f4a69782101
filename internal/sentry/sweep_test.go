package sentry

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBaseline_MeanOfPrecedingWindow(t *testing.T) {
	points := []seriesPoint{
		{ts: day("2025-01-01"), value: 100},
		{ts: day("2025-01-02"), value: 110},
		{ts: day("2025-01-03"), value: 90},
	}
	current := seriesPoint{ts: day("2025-01-04"), value: 200}
	b, ok := baseline(points, current, 14)
	if !ok {
		t.Fatal("expected a baseline")
	}
	if b != 100 {
		t.Fatalf("expected mean 100, got %f", b)
	}
}

func TestBaseline_NoPriorPointsReturnsFalse(t *testing.T) {
	current := seriesPoint{ts: day("2025-01-04"), value: 200}
	_, ok := baseline(nil, current, 14)
	if ok {
		t.Fatal("expected no baseline with no prior points")
	}
}

func TestBaseline_ExcludesPointsOutsideWindow(t *testing.T) {
	points := []seriesPoint{
		{ts: day("2024-01-01"), value: 1000}, // a year earlier, out of window
		{ts: day("2025-01-02"), value: 110},
	}
	current := seriesPoint{ts: day("2025-01-04"), value: 200}
	b, ok := baseline(points, current, 14)
	if !ok || b != 110 {
		t.Fatalf("expected baseline 110 excluding the out-of-window point, got %f (ok=%v)", b, ok)
	}
}

func TestClassifySeverity(t *testing.T) {
	if classifySeverity(10) != SeverityInfo {
		t.Fatal("expected INFO for 10%")
	}
	if classifySeverity(35) != SeverityWarning {
		t.Fatal("expected WARNING for 35%")
	}
	if classifySeverity(60) != SeverityCritical {
		t.Fatal("expected CRITICAL for 60%")
	}
}

func TestRootCause_IncludesDirectionAndHint(t *testing.T) {
	def := MetricDefinition{Name: "daily_revenue", RollingWindowDays: 14}
	rc := rootCause(def, -40)
	if rc == "" {
		t.Fatal("expected nonempty root cause")
	}
}

func TestParseTimestamp_SupportsDateOnly(t *testing.T) {
	if _, ok := parseTimestamp("2025-01-01"); !ok {
		t.Fatal("expected date-only timestamp to parse")
	}
	if _, ok := parseTimestamp(42); ok {
		t.Fatal("expected non-string to fail parsing")
	}
}

func TestClassifyColumns_IdentifiesTimestampEitherOrder(t *testing.T) {
	columns := []string{"ts", "value"}
	rows := [][]any{{"2025-01-01", 100.0}}
	tsIdx, valIdx := classifyColumns(columns, rows)
	if tsIdx != 0 || valIdx != 1 {
		t.Fatalf("expected (0,1), got (%d,%d)", tsIdx, valIdx)
	}

	rowsReversed := [][]any{{100.0, "2025-01-01"}}
	tsIdx, valIdx = classifyColumns(columns, rowsReversed)
	if tsIdx != 1 || valIdx != 0 {
		t.Fatalf("expected (1,0), got (%d,%d)", tsIdx, valIdx)
	}
}
