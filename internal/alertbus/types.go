// Package alertbus implements the AlertBus described in spec.md §4.11: a
// subscribe/unsubscribe/publish fanout that delivers AnomalySentry alerts
// to zero-or-more live subscribers, in the same order, with a bounded
// per-subscriber send timeout.
package alertbus

import "time"

// Severity is an Alert's graded urgency.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert is one emitted anomaly, produced by internal/sentry and delivered
// through the Bus to every live Subscriber.
type Alert struct {
	MetricName       string    `json:"metric_name"`
	CurrentValue     float64   `json:"current_value"`
	BaselineValue    float64   `json:"baseline_value"`
	DeviationPercent float64   `json:"deviation_percent"`
	Severity         Severity  `json:"severity"`
	Timestamp        time.Time `json:"timestamp"`
	Description      string    `json:"description"`
	RootCause        string    `json:"root_cause,omitempty"`
}
