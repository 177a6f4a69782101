package sentry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sqlsentry/internal/alertbus"
	"sqlsentry/internal/logging"
	"sqlsentry/internal/sqlexec"
)

const (
	defaultIntervalMinutes = 5
	defaultHistoryCap      = 100
	defaultSweepTimeout    = 30 * time.Second
)

// Sentry is the AnomalySentry of spec.md §4.10.
type Sentry struct {
	executor *sqlexec.Executor
	bus      *alertbus.Bus

	intervalMinutes int
	sweepTimeout    time.Duration

	mu      sync.Mutex
	metrics []MetricDefinition
	history []Alert // FIFO ring, oldest first
	running bool

	sf     singleflight.Group
	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Sentry. intervalMinutes <= 0 uses the spec.md §4.10
// default of 5.
func New(executor *sqlexec.Executor, bus *alertbus.Bus, intervalMinutes int) *Sentry {
	if intervalMinutes <= 0 {
		intervalMinutes = defaultIntervalMinutes
	}
	return &Sentry{
		executor:        executor,
		bus:             bus,
		intervalMinutes: intervalMinutes,
		sweepTimeout:    defaultSweepTimeout,
		metrics:         DefaultMetrics(),
	}
}

// Start registers the default metrics (already set by New), performs an
// initial synchronous sweep, then schedules periodic sweeps, per
// spec.md §4.10's start-up sequence.
func (s *Sentry) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	logging.Sentry("starting anomaly sentry: %d metrics, interval=%dm", len(s.metrics), s.intervalMinutes)
	s.sweepOnce(ctx)

	go s.loop(ctx)
}

func (s *Sentry) loop(ctx context.Context) {
	defer close(s.doneCh)
	s.ticker = time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.ticker.C:
			s.sweepOnce(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweepOnce runs one sweep across every registered metric, in
// registration order, per spec.md §4.10's ordering rule. Overlapping
// ticks are collapsed via singleflight rather than run concurrently,
// logged and skipped.
func (s *Sentry) sweepOnce(ctx context.Context) {
	_, err, shared := s.sf.Do("sweep", func() (any, error) {
		sweepCtx, cancel := context.WithTimeout(ctx, s.sweepTimeout)
		defer cancel()

		s.mu.Lock()
		metrics := append([]MetricDefinition(nil), s.metrics...)
		s.mu.Unlock()

		for _, def := range metrics {
			alert, fired, err := s.evaluateMetric(sweepCtx, def)
			if err != nil {
				logging.Sentry("metric %s evaluation failed: %v", def.Name, err)
				continue
			}
			if !fired {
				continue
			}
			s.recordAlert(alert)
			s.bus.Publish(toBusAlert(alert))
		}
		return nil, nil
	})
	if shared {
		logging.SentryDebug("sweep already in flight, this tick collapsed into it")
	}
	if err != nil {
		logging.Sentry("sweep failed: %v", err)
	}
}

// evaluateMetric runs one MetricDefinition's sweep steps 1-7 from
// spec.md §4.10.
func (s *Sentry) evaluateMetric(ctx context.Context, def MetricDefinition) (Alert, bool, error) {
	points, err := runMetricQuery(ctx, s.executor, def)
	if err != nil {
		return Alert{}, false, err
	}
	if len(points) == 0 {
		return Alert{}, false, nil
	}

	current := points[len(points)-1]
	base, ok := baseline(points[:len(points)-1], current, def.RollingWindowDays)
	if !ok || base == 0 {
		return Alert{}, false, nil
	}

	deviation := (current.value - base) / base * 100
	if absf(deviation) < def.ThresholdPct {
		return Alert{}, false, nil
	}

	severity := classifySeverity(absf(deviation))
	alert := Alert{
		Metric:       def.Name,
		Current:      current.value,
		Baseline:     base,
		DeviationPct: deviation,
		Severity:     severity,
		Timestamp:    time.Now(),
		Description:  fmt.Sprintf("%s deviated %.1f%% from baseline", def.Name, deviation),
	}
	if severity == SeverityCritical || severity == SeverityWarning {
		alert.RootCause = rootCause(def, deviation)
	}
	return alert, true, nil
}

func (s *Sentry) recordAlert(alert Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, alert)
	if len(s.history) > defaultHistoryCap {
		s.history = s.history[len(s.history)-defaultHistoryCap:]
	}
}

func toBusAlert(a Alert) alertbus.Alert {
	return alertbus.Alert{
		MetricName:       a.Metric,
		CurrentValue:     a.Current,
		BaselineValue:    a.Baseline,
		DeviationPercent: a.DeviationPct,
		Severity:         alertbus.Severity(a.Severity),
		Timestamp:        a.Timestamp,
		Description:      a.Description,
		RootCause:        a.RootCause,
	}
}

// Stop cancels the schedule, waits for any in-flight sweep (bounded by
// the sweep timeout), then closes AlertBus subscribers, per spec.md
// §4.10's stop sequence.
func (s *Sentry) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	select {
	case <-s.doneCh:
	case <-time.After(defaultSweepTimeout):
		logging.Sentry("stop timed out waiting for in-flight sweep")
	}
	s.bus.Close()
}

// ListRecentAlerts returns up to limit most-recent alerts (newest
// first) plus the current MonitoringStatus, per spec.md §6's
// list_recent_alerts contract.
func (s *Sentry) ListRecentAlerts(limit int) ([]Alert, MonitoringStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]Alert, limit)
	for i := 0; i < limit; i++ {
		out[i] = s.history[len(s.history)-1-i]
	}

	return out, MonitoringStatus{
		Running:         s.running,
		MetricsTracked:  len(s.metrics),
		IntervalMinutes: s.intervalMinutes,
	}
}

// CheckMetric runs check_metric(name) of spec.md §6: an on-demand
// single-metric evaluation outside the regular sweep schedule.
func (s *Sentry) CheckMetric(ctx context.Context, name string) (status string, alert *Alert, err error) {
	s.mu.Lock()
	var def *MetricDefinition
	for i := range s.metrics {
		if s.metrics[i].Name == name {
			def = &s.metrics[i]
			break
		}
	}
	s.mu.Unlock()

	if def == nil {
		return "", nil, fmt.Errorf("unknown metric: %s", name)
	}

	result, fired, err := s.evaluateMetric(ctx, *def)
	if err != nil {
		return "", nil, err
	}
	if !fired {
		return "normal", nil, nil
	}
	s.recordAlert(result)
	s.bus.Publish(toBusAlert(result))
	return "anomaly_detected", &result, nil
}

// RegisterMetric adds an additional MetricDefinition. Per spec.md §3,
// this must happen before Start() is called.
func (s *Sentry) RegisterMetric(def MetricDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, def)
}
