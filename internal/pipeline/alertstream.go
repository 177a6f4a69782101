package pipeline

import (
	"context"

	"sqlsentry/internal/alertbus"
)

// StreamAlerts adapts a live AlertBus Subscriber into the push-frame
// sequence spec.md §6's asynchronous alert stream contract describes: an
// immediate "connection" frame carrying the current monitoring status,
// then one "alert" frame per delivered Alert until the subscriber's
// channel closes or ctx is cancelled. The returned channel is closed
// when the stream ends; the caller (an external WS server) is
// responsible for unregistering sub on connection loss, per spec.md §6.
func StreamAlerts(ctx context.Context, sub *alertbus.Subscriber, status MonitoringStatus) <-chan StreamFrame {
	out := make(chan StreamFrame)

	go func() {
		defer close(out)

		select {
		case out <- StreamFrame{Type: FrameConnection, Monitoring: &status}:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case alert, ok := <-sub.Alerts:
				if !ok {
					return
				}
				view := toBusAlertView(alert)
				select {
				case out <- StreamFrame{Type: FrameAlert, Alert: &view}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func toBusAlertView(a alertbus.Alert) AlertView {
	return AlertView{
		Metric:       a.MetricName,
		Current:      a.CurrentValue,
		Baseline:     a.BaselineValue,
		DeviationPct: a.DeviationPercent,
		Severity:     string(a.Severity),
		Timestamp:    a.Timestamp,
		Description:  a.Description,
		RootCause:    a.RootCause,
	}
}
