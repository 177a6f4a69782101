package sentry

import (
	"context"
	"fmt"
	"time"

	"sqlsentry/internal/sqlexec"
)

// runMetricQuery executes definition's SQL via executor and parses the
// resulting (timestamp, value) rows. The query is expected to return
// exactly two columns, in either order — the timestamp column is the
// one that parses as a date/time, the other is the numeric value.
func runMetricQuery(ctx context.Context, executor *sqlexec.Executor, def MetricDefinition) ([]seriesPoint, error) {
	outcome := executor.Run(ctx, def.Query, 0, 0)
	if outcome.Error != "" {
		return nil, fmt.Errorf("metric %s: %s", def.Name, outcome.Error)
	}
	if outcome.Result == nil || len(outcome.Result.Rows) == 0 {
		return nil, nil
	}

	tsIdx, valIdx := classifyColumns(outcome.Result.Columns, outcome.Result.Rows)
	if tsIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("metric %s: could not identify timestamp/value columns", def.Name)
	}

	points := make([]seriesPoint, 0, len(outcome.Result.Rows))
	for _, row := range outcome.Result.Rows {
		ts, ok := parseTimestamp(row[tsIdx])
		if !ok {
			continue
		}
		val, ok := toFloat(row[valIdx])
		if !ok {
			continue
		}
		points = append(points, seriesPoint{ts: ts, value: val})
	}
	return points, nil
}

// classifyColumns picks which of a 2-column result is the timestamp and
// which is the numeric value by probing the first row.
func classifyColumns(columns []string, rows [][]any) (tsIdx, valIdx int) {
	if len(columns) != 2 || len(rows) == 0 {
		return -1, -1
	}
	first := rows[0]
	if _, ok := parseTimestamp(first[0]); ok {
		return 0, 1
	}
	if _, ok := parseTimestamp(first[1]); ok {
		return 1, 0
	}
	return -1, -1
}

var timeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// baseline computes the mean of points falling within the preceding
// windowDays before current's timestamp, per spec.md §4.10 step 2.
func baseline(points []seriesPoint, current seriesPoint, windowDays int) (float64, bool) {
	cutoff := current.ts.AddDate(0, 0, -windowDays)
	var sum float64
	var n int
	for _, p := range points {
		if p.ts.Equal(current.ts) {
			continue
		}
		if p.ts.After(cutoff) && !p.ts.After(current.ts) {
			sum += p.value
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// classifySeverity maps an absolute deviation percentage to a
// Severity, per spec.md §4.10 step 6.
func classifySeverity(absDeviation float64) Severity {
	switch {
	case absDeviation >= 50:
		return SeverityCritical
	case absDeviation >= 30:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// rootCause composes a human-readable explanation for CRITICAL/WARNING
// alerts, per spec.md §4.10 step 7.
func rootCause(def MetricDefinition, deviationPct float64) string {
	direction := "increased"
	if deviationPct < 0 {
		direction = "decreased"
	}
	hint := metricSensitivityHint(def.Name)
	if hint == "" {
		return fmt.Sprintf("%s %s by %.1f%% relative to its %d-day baseline", def.Name, direction, absf(deviationPct), def.RollingWindowDays)
	}
	return fmt.Sprintf("%s %s by %.1f%% relative to its %d-day baseline; %s", def.Name, direction, absf(deviationPct), def.RollingWindowDays, hint)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// metricSensitivityHint returns a known contextual hint for a default
// metric's likely drivers, per spec.md §4.10 step 7's "optional
// contextual hints derived from the metric's known sensitivities".
func metricSensitivityHint(name string) string {
	switch name {
	case "daily_revenue":
		return "check for pricing changes, promotions, or large one-off orders"
	case "order_count":
		return "check for marketing campaigns, outages, or seasonal effects"
	case "average_order_value":
		return "check for changes in product mix or discounting"
	case "new_customers":
		return "check for acquisition channel changes or signup friction"
	case "product_sales_volume":
		return "check for stockouts or catalog changes"
	default:
		return ""
	}
}
