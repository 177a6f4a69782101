package pii

import "strings"

// maskValue renders the deterministic per-kind mask for a detected PII
// value, per the masking table in spec.md §4.3.
func maskValue(kind Kind, value string) string {
	switch kind {
	case KindEmail:
		return maskEmail(value)
	case KindSSN:
		return "***-**-" + lastN(onlyDigits(value), 4)
	case KindCreditCard:
		return "****-****-****-" + lastN(onlyDigits(value), 4)
	case KindPhone:
		return "(***) ***-" + lastN(onlyDigits(value), 4)
	case KindName:
		return maskName(value)
	case KindAccount:
		return "****" + lastN(onlyDigits(value), 4)
	case KindIP:
		return maskIP(value)
	case KindAddress, KindDOB:
		return "[REDACTED]"
	default:
		return "[REDACTED]"
	}
}

func maskEmail(value string) string {
	at := strings.IndexByte(value, '@')
	if at <= 0 {
		return "[REDACTED]"
	}
	local := value[:at]
	domain := value[at+1:]
	first := local[:1]
	return first + "***@" + domain
}

func maskName(value string) string {
	tokens := strings.Fields(value)
	masked := make([]string, len(tokens))
	for i, tok := range tokens {
		runes := []rune(tok)
		if len(runes) == 0 {
			masked[i] = "***"
			continue
		}
		masked[i] = string(runes[0]) + "***"
	}
	return strings.Join(masked, " ")
}

func maskIP(value string) string {
	octets := strings.Split(value, ".")
	if len(octets) != 4 {
		return "[REDACTED]"
	}
	return octets[0] + "." + octets[1] + ".***.***"
}

func lastN(digits string, n int) string {
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

// Redact walks a result tree (as decoded from JSON: map[string]any,
// []any, and scalars) and returns a deep copy with every detected PII
// value masked. Numbers, booleans, and nil pass through unchanged. The
// input is never mutated, and redacting an already-redacted tree is a
// no-op (idempotent).
func (s *Scanner) Redact(value any) any {
	redacted, changed := s.redactValue(value)
	if changed {
		s.recordRedaction()
	}
	return redacted
}

func (s *Scanner) redactValue(value any) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		changed := false
		for k, child := range v {
			newChild, didChange := s.redactValue(child)
			out[k] = newChild
			changed = changed || didChange
		}
		return out, changed
	case []any:
		out := make([]any, len(v))
		changed := false
		for i, child := range v {
			newChild, didChange := s.redactValue(child)
			out[i] = newChild
			changed = changed || didChange
		}
		return out, changed
	case string:
		detections := s.detectForRedaction(v)
		if len(detections) == 0 {
			return v, false
		}
		return maskText(v, detections), true
	default:
		// numbers, booleans, nil: pass through unchanged per spec.md §4.3
		return v, false
	}
}

// detectForRedaction mirrors ScanQuery's detector selection without
// touching the blocking counters, so Redact can be called independently
// of scan_query (e.g. over stored query results).
func (s *Scanner) detectForRedaction(text string) []Detection {
	if s.advanced {
		return detectAll(text, detectName, detectAddress)
	}
	return detectAll(text)
}
