// Package sentry implements the AnomalySentry described in spec.md
// §4.10: a periodic metric sweep that detects deviations from a
// rolling baseline and publishes Alerts through internal/alertbus.
// Scheduling generalizes internal/core/self_healing.go's
// attempt-tracking/mutex style onto a ticking sweep instead of a
// bounded retry loop.
package sentry

import "time"

// MetricDefinition is one monitored time series, per spec.md §3.
type MetricDefinition struct {
	Name               string
	Query              string // read-only SQL producing (timestamp, value) rows
	ThresholdPct       float64
	RollingWindowDays  int
}

// DefaultMetrics returns the five default MetricDefinitions spec.md
// §4.10 requires at Start(): daily revenue, order count, AOV, new
// customers, product sales volume.
func DefaultMetrics() []MetricDefinition {
	return []MetricDefinition{
		{
			Name:              "daily_revenue",
			Query:             `SELECT date(order_date) AS ts, SUM(total_amount) AS value FROM orders GROUP BY date(order_date) ORDER BY ts`,
			ThresholdPct:      20,
			RollingWindowDays: 14,
		},
		{
			Name:              "order_count",
			Query:             `SELECT date(order_date) AS ts, COUNT(*) AS value FROM orders GROUP BY date(order_date) ORDER BY ts`,
			ThresholdPct:      20,
			RollingWindowDays: 14,
		},
		{
			Name:              "average_order_value",
			Query:             `SELECT date(order_date) AS ts, AVG(total_amount) AS value FROM orders GROUP BY date(order_date) ORDER BY ts`,
			ThresholdPct:      15,
			RollingWindowDays: 14,
		},
		{
			Name:              "new_customers",
			Query:             `SELECT date(created_at) AS ts, COUNT(*) AS value FROM customers GROUP BY date(created_at) ORDER BY ts`,
			ThresholdPct:      25,
			RollingWindowDays: 14,
		},
		{
			Name:              "product_sales_volume",
			Query:             `SELECT date(order_date) AS ts, SUM(quantity) AS value FROM order_items oi JOIN orders o ON oi.order_id = o.id GROUP BY date(order_date) ORDER BY ts`,
			ThresholdPct:      20,
			RollingWindowDays: 14,
		},
	}
}

// Severity classifies an Alert's deviation magnitude.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert is one deviation event, per spec.md §3.
type Alert struct {
	Metric      string    `json:"metric"`
	Current     float64   `json:"current"`
	Baseline    float64   `json:"baseline"`
	DeviationPct float64  `json:"deviation_pct"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	RootCause   string    `json:"root_cause,omitempty"`
}

// seriesPoint is one (timestamp, value) row read back from a metric's
// query.
type seriesPoint struct {
	ts    time.Time
	value float64
}

// MonitoringStatus answers spec.md §6's "Sentry control" shape.
type MonitoringStatus struct {
	Running         bool `json:"running"`
	MetricsTracked  int  `json:"metrics_tracked"`
	IntervalMinutes int  `json:"interval_minutes"`
}
