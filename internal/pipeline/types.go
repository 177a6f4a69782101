// Package pipeline ties C1-C11 together into the request-serving flow
// spec.md §2 describes and the external contracts spec.md §6 names.
// Transport (HTTP/WebSocket) is out of scope per spec.md §1; this
// package gives server code a Go-native surface to embed: Request in,
// Response (or Error) out, plus the report/guardrails/sentry-control/
// alert-stream side contracts.
package pipeline

import "time"

// Mode selects which output shape a Request asks for, per spec.md §6.
type Mode string

const (
	ModeStandard  Mode = "standard"
	ModeAnalytics Mode = "analytics"
	ModeResearch  Mode = "research"
)

// Request is the synchronous pipeline entry point's input shape.
type Request struct {
	Query         string `json:"query"`
	Mode          Mode   `json:"mode"`
	Database      string `json:"database,omitempty"`
	ForceResearch bool   `json:"force_research,omitempty"`
}

// Response is the synchronous pipeline entry point's success shape.
// Fields are additive per mode: `standard` populates the first group,
// `analytics` additionally populates the second, `research` the third —
// exactly spec.md §6's "adds {...}" layering.
type Response struct {
	// standard
	SQL            string   `json:"sql"`
	Confidence     float64  `json:"confidence"`
	Attempts       int      `json:"attempts"`
	AgentsInvolved []string `json:"agents_involved"`
	Data           *QueryData `json:"data,omitempty"`
	PIIRedacted    bool     `json:"pii_redacted"`

	// analytics
	AnalyticsType  string      `json:"analytics_type,omitempty"`
	AnalysisResult any         `json:"analysis_result,omitempty"`
	Visualization  any         `json:"visualization,omitempty"`

	// research
	InternalFindings  *QueryData `json:"internal_findings,omitempty"`
	ExternalResearch  any        `json:"external_research,omitempty"`
	UnifiedInsights   string     `json:"unified_insights,omitempty"`
	ResearchPerformed bool       `json:"research_performed,omitempty"`
}

// QueryData is the executed-and-redacted result set shape nested in a
// Response, mirroring sqlexec.Result but as a pipeline-owned type so
// internal/sqlexec stays free of pipeline-layer JSON tags.
type QueryData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ErrorCode is the stable machine-readable tag spec.md §7 requires on
// every user-visible failure.
type ErrorCode string

const (
	CodeUserInput        ErrorCode = "user_input"
	CodePolicyViolation  ErrorCode = "policy_violation"
	CodeUnsafeSQL        ErrorCode = "unsafe_sql"
	CodeTransient        ErrorCode = "transient"
	CodePermanentExternal ErrorCode = "permanent_external"
	CodeInternal         ErrorCode = "internal"
)

// ErrorResponse is the pipeline's failure shape, mutually exclusive with
// Response per spec.md §6/§7.
type ErrorResponse struct {
	Error      string    `json:"error"`
	Code       ErrorCode `json:"code"`
	RiskLevel  string    `json:"risk_level,omitempty"`
	Detections []string  `json:"detections,omitempty"`
	Details    string    `json:"details,omitempty"`
}


// ReportFormat is one of the external report generator's supported
// output kinds.
type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatPPTX ReportFormat = "pptx"
)

// ReportRequest is report generation's synchronous input, per spec.md
// §6. Report templating itself is an external collaborator (spec.md
// §1); this type only models the handoff contract.
type ReportRequest struct {
	Query           string       `json:"query"`
	SQLResult       *QueryData   `json:"sql_result"`
	AnalyticsResult any          `json:"analytics_result,omitempty"`
	ResearchResult  any          `json:"research_result,omitempty"`
	Formats         []ReportFormat `json:"formats"`
}

// ReportResponse carries back the paths a ReportGenerator produced.
type ReportResponse struct {
	PDFPath  string `json:"pdf,omitempty"`
	PPTXPath string `json:"pptx,omitempty"`
}

// GuardrailsSummary is C3's running counters, per spec.md §6.
type GuardrailsSummary struct {
	BlockedQueries  uint64 `json:"blocked_queries"`
	RedactedResults uint64 `json:"redacted_results"`
	TotalDetections uint64 `json:"total_detections"`
}

// MonitoringStatus mirrors internal/sentry.MonitoringStatus with the
// pipeline-facing JSON tags spec.md §6's sentry-control contract names.
type MonitoringStatus struct {
	Running         bool `json:"running"`
	MetricsTracked  int  `json:"metrics_tracked"`
	IntervalMinutes int  `json:"interval_minutes"`
}

// ListRecentAlertsResponse is list_recent_alerts's output shape.
type ListRecentAlertsResponse struct {
	Count      int              `json:"count"`
	Alerts     []AlertView      `json:"alerts"`
	Monitoring MonitoringStatus `json:"monitoring_status"`
}

// CheckMetricResponse is check_metric's output shape.
type CheckMetricResponse struct {
	Status string     `json:"status"`
	Alert  *AlertView `json:"alert,omitempty"`
	Metric string     `json:"metric"`
}

// AlertView is internal/sentry.Alert reshaped for the external contract.
type AlertView struct {
	Metric       string    `json:"metric"`
	Current      float64   `json:"current"`
	Baseline     float64   `json:"baseline"`
	DeviationPct float64   `json:"deviation_pct"`
	Severity     string    `json:"severity"`
	Timestamp    time.Time `json:"timestamp"`
	Description  string    `json:"description"`
	RootCause    string    `json:"root_cause,omitempty"`
}

// StreamFrameType tags an AlertStream frame's shape, per spec.md §6's
// asynchronous alert stream contract.
type StreamFrameType string

const (
	FrameConnection StreamFrameType = "connection"
	FrameAlert      StreamFrameType = "alert"
)

// StreamFrame is one push frame: a "connection" frame carries Monitoring
// only, an "alert" frame carries Alert only.
type StreamFrame struct {
	Type       StreamFrameType   `json:"type"`
	Monitoring *MonitoringStatus `json:"monitoring,omitempty"`
	Alert      *AlertView        `json:"alert,omitempty"`
}
