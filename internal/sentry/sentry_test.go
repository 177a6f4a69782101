package sentry

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/goleak"

	"sqlsentry/internal/alertbus"
	"sqlsentry/internal/sqlexec"
)

func openRevenueDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE revenue_days (ts TEXT, value REAL)`); err != nil {
		t.Fatal(err)
	}
	// 13 stable days at 100, then a spike to 1000 on the 14th.
	now := time.Now()
	for i := 13; i >= 1; i-- {
		ts := now.AddDate(0, 0, -i).Format("2006-01-02")
		if _, err := db.Exec(`INSERT INTO revenue_days (ts, value) VALUES (?, ?)`, ts, 100.0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Exec(`INSERT INTO revenue_days (ts, value) VALUES (?, ?)`, now.Format("2006-01-02"), 1000.0); err != nil {
		t.Fatal(err)
	}
	return db
}

func testMetric() MetricDefinition {
	return MetricDefinition{
		Name:              "test_metric",
		Query:             `SELECT ts, value FROM revenue_days ORDER BY ts`,
		ThresholdPct:      20,
		RollingWindowDays: 14,
	}
}

func TestSentry_EvaluateMetric_DetectsSpike(t *testing.T) {
	executor := sqlexec.New(openRevenueDB(t))
	bus := alertbus.New()
	defer bus.Close()

	s := New(executor, bus, 5)
	s.metrics = []MetricDefinition{testMetric()}

	alert, fired, err := s.evaluateMetric(context.Background(), testMetric())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fired {
		t.Fatal("expected an alert to fire on the spike")
	}
	if alert.Severity != SeverityCritical {
		t.Fatalf("expected CRITICAL severity, got %s", alert.Severity)
	}
	if alert.RootCause == "" {
		t.Fatal("expected a root cause for a CRITICAL alert")
	}
}

func TestSentry_CheckMetric_UnknownMetricErrors(t *testing.T) {
	executor := sqlexec.New(openRevenueDB(t))
	bus := alertbus.New()
	defer bus.Close()

	s := New(executor, bus, 5)
	_, _, err := s.CheckMetric(context.Background(), "does_not_exist")
	if err == nil {
		t.Fatal("expected an error for an unknown metric")
	}
}

func TestSentry_CheckMetric_NormalWhenNoDeviation(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	db.Exec(`CREATE TABLE flat_days (ts TEXT, value REAL)`)
	now := time.Now()
	for i := 13; i >= 0; i-- {
		ts := now.AddDate(0, 0, -i).Format("2006-01-02")
		db.Exec(`INSERT INTO flat_days (ts, value) VALUES (?, ?)`, ts, 100.0)
	}

	executor := sqlexec.New(db)
	bus := alertbus.New()
	defer bus.Close()

	s := New(executor, bus, 5)
	s.metrics = []MetricDefinition{{Name: "flat", Query: `SELECT ts, value FROM flat_days ORDER BY ts`, ThresholdPct: 20, RollingWindowDays: 14}}

	status, alert, err := s.CheckMetric(context.Background(), "flat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "normal" || alert != nil {
		t.Fatalf("expected normal status with no alert, got status=%s alert=%+v", status, alert)
	}
}

func TestSentry_StartStopLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Close the fixture DB before VerifyNone runs so its connection-opener
	// goroutine is not counted against the Sentry lifecycle.
	db := openRevenueDB(t)
	defer db.Close()
	executor := sqlexec.New(db)
	bus := alertbus.New()

	s := New(executor, bus, 5)
	s.metrics = []MetricDefinition{testMetric()}

	s.Start(context.Background())
	_, status := s.ListRecentAlerts(10)
	if !status.Running {
		t.Fatal("expected running status after Start")
	}
	s.Stop()

	_, status = s.ListRecentAlerts(10)
	if status.Running {
		t.Fatal("expected not-running status after Stop")
	}
}

func TestSentry_ListRecentAlerts_BoundedAndNewestFirst(t *testing.T) {
	executor := sqlexec.New(openRevenueDB(t))
	bus := alertbus.New()
	defer bus.Close()

	s := New(executor, bus, 5)
	for i := 0; i < 5; i++ {
		s.recordAlert(Alert{Metric: "m", Timestamp: time.Now(), DeviationPct: float64(i)})
	}
	alerts, _ := s.ListRecentAlerts(2)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].DeviationPct != 4 {
		t.Fatalf("expected newest-first ordering, got %+v", alerts)
	}
}

func TestSentry_HistoryEvictsOldestAtCapacity(t *testing.T) {
	executor := sqlexec.New(openRevenueDB(t))
	bus := alertbus.New()
	defer bus.Close()

	s := New(executor, bus, 5)
	for i := 0; i < defaultHistoryCap+10; i++ {
		s.recordAlert(Alert{Metric: "m", DeviationPct: float64(i)})
	}
	alerts, _ := s.ListRecentAlerts(0)
	if len(alerts) != defaultHistoryCap {
		t.Fatalf("expected history capped at %d, got %d", defaultHistoryCap, len(alerts))
	}
	if alerts[0].DeviationPct != float64(defaultHistoryCap+9) {
		t.Fatalf("expected newest retained, got %+v", alerts[0])
	}
}
