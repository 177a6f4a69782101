package pii

import (
	"sync/atomic"

	"sqlsentry/internal/config"
	"sqlsentry/internal/logging"
)

// Scanner is the bidirectional PII guardrail: ScanQuery gates inbound
// text before it reaches an LLM or the SQL executor, Redact masks
// outbound structured results before they reach the caller.
type Scanner struct {
	advanced bool
	summary  Summary
}

// NewScanner builds a Scanner from the loaded configuration.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{advanced: cfg != nil && cfg.PII.AdvancedDetection}
}

// ScanQuery runs every enabled detector over text and decides whether the
// pipeline may proceed, per spec.md §4.3's blocking policy:
// proceed=false iff (strict AND risk != LOW) OR risk == CRITICAL.
func (s *Scanner) ScanQuery(text string, strict bool) (ScanResult, bool) {
	var detections []Detection
	if s.advanced {
		detections = detectAll(text, detectName, detectAddress)
	} else {
		detections = detectAll(text)
	}

	level := classify(detections)
	result := ScanResult{
		Detections: detections,
		RiskLevel:  level,
		Sanitized:  maskText(text, detections),
	}

	proceed := true
	if level == RiskCritical {
		proceed = false
	} else if strict && level != RiskLow {
		proceed = false
	}

	if len(detections) > 0 {
		atomic.AddUint64(&s.summary.TotalDetections, uint64(len(detections)))
	}
	if !proceed {
		atomic.AddUint64(&s.summary.BlockedQueries, 1)
		logging.PII("scan_query blocked: risk=%s detections=%d strict=%v", level, len(detections), strict)
	} else if len(detections) > 0 {
		logging.PIIDebug("scan_query allowed with detections: risk=%s detections=%d", level, len(detections))
	}

	return result, proceed
}

// Summary returns a snapshot of the running detection/blocking counters.
func (s *Scanner) Summary() Summary {
	return Summary{
		BlockedQueries:  atomic.LoadUint64(&s.summary.BlockedQueries),
		RedactedResults: atomic.LoadUint64(&s.summary.RedactedResults),
		TotalDetections: atomic.LoadUint64(&s.summary.TotalDetections),
	}
}

// recordRedaction is called by Redact to bump the redacted-results counter.
func (s *Scanner) recordRedaction() {
	atomic.AddUint64(&s.summary.RedactedResults, 1)
}

// maskText replaces every detected span in text with its per-kind mask,
// working from the end of the string so earlier offsets stay valid.
func maskText(text string, detections []Detection) string {
	if len(detections) == 0 {
		return text
	}
	ordered := make([]Detection, len(detections))
	copy(ordered, detections)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].Start < ordered[j].Start; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}

	out := text
	for _, d := range ordered {
		if d.Start < 0 || d.End > len(out) || d.Start > d.End {
			continue
		}
		out = out[:d.Start] + maskValue(d.Kind, d.Value) + out[d.End:]
	}
	return out
}
