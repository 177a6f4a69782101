package pipeline

import (
	"context"

	"sqlsentry/internal/sentry"
)

// SentryControl adapts a running *sentry.Sentry to spec.md §6's
// synchronous sentry-control contract (list_recent_alerts, check_metric).
type SentryControl struct {
	Sentry *sentry.Sentry
}

// ListRecentAlerts implements list_recent_alerts(limit).
func (c *SentryControl) ListRecentAlerts(limit int) ListRecentAlertsResponse {
	alerts, status := c.Sentry.ListRecentAlerts(limit)
	views := make([]AlertView, len(alerts))
	for i, a := range alerts {
		views[i] = toAlertView(a)
	}
	return ListRecentAlertsResponse{
		Count:  len(views),
		Alerts: views,
		Monitoring: MonitoringStatus{
			Running:         status.Running,
			MetricsTracked:  status.MetricsTracked,
			IntervalMinutes: status.IntervalMinutes,
		},
	}
}

// CheckMetric implements check_metric(name).
func (c *SentryControl) CheckMetric(ctx context.Context, name string) (CheckMetricResponse, error) {
	status, alert, err := c.Sentry.CheckMetric(ctx, name)
	if err != nil {
		return CheckMetricResponse{}, err
	}
	resp := CheckMetricResponse{Status: status, Metric: name}
	if alert != nil {
		view := toAlertView(*alert)
		resp.Alert = &view
	}
	return resp, nil
}

func toAlertView(a sentry.Alert) AlertView {
	return AlertView{
		Metric:       a.Metric,
		Current:      a.Current,
		Baseline:     a.Baseline,
		DeviationPct: a.DeviationPct,
		Severity:     string(a.Severity),
		Timestamp:    a.Timestamp,
		Description:  a.Description,
		RootCause:    a.RootCause,
	}
}
