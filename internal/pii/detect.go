package pii

import (
	"regexp"
	"strings"
)

// regexConfidence is the confidence assigned to every pattern-based hit,
// per spec.md §4.3.
const regexConfidence = 0.9

var (
	emailPattern  = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	ssnPattern    = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	ccPattern     = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	phonePattern  = regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-.\s])\d{3}[-.\s]\d{4}\b`)
	ipPattern     = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`)
	accountPattern = regexp.MustCompile(`\b\d{8,16}\b`)
	dobPattern    = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}-\d{1,2}-\d{2,4})\b`)
)

// Detector is a pluggable detection function; the base detectors below are
// pattern-based, and the optional NAME/ADDRESS detector (enabled by the
// advanced-PII toggle, spec.md §6) plugs in through the same interface.
type Detector func(text string) []Detection

// baseDetectors returns the canonical pattern-based detectors in the
// priority order spec.md §4.3 implies: more specific/higher-risk patterns
// run first so that e.g. an SSN isn't double-counted as an 8-16-digit
// ACCOUNT hit. detectAccount runs separately (see detectAll) since it
// needs to see what the earlier detectors already claimed.
func baseDetectors() []Detector {
	return []Detector{
		detectEmail,
		detectSSN,
		detectCreditCard,
		detectPhone,
		detectIP,
		detectDOB,
	}
}

// detectAll runs every base detector plus the account-number fallback,
// and any extra detectors supplied (e.g. NAME/ADDRESS when advanced
// detection is enabled).
func detectAll(text string, extra ...Detector) []Detection {
	var all []Detection
	for _, d := range baseDetectors() {
		all = append(all, d(text)...)
	}
	for _, d := range extra {
		all = append(all, d(text)...)
	}
	all = append(all, detectAccount(text, all)...)
	return all
}

func detectEmail(text string) []Detection {
	return matchAll(text, emailPattern, KindEmail)
}

func detectSSN(text string) []Detection {
	return matchAll(text, ssnPattern, KindSSN)
}

func detectCreditCard(text string) []Detection {
	var out []Detection
	for _, m := range ccPattern.FindAllStringIndex(text, -1) {
		value := text[m[0]:m[1]]
		digits := onlyDigits(value)
		if len(digits) < 13 || len(digits) > 19 {
			continue
		}
		out = append(out, Detection{Kind: KindCreditCard, Value: value, Start: m[0], End: m[1], Confidence: regexConfidence})
	}
	return out
}

func detectPhone(text string) []Detection {
	return matchAll(text, phonePattern, KindPhone)
}

func detectIP(text string) []Detection {
	return matchAll(text, ipPattern, KindIP)
}

func detectDOB(text string) []Detection {
	return matchAll(text, dobPattern, KindDOB)
}

// detectAccount claims 8-16 consecutive digit runs that no earlier
// detector has already claimed (spec.md §4.3: "not already classified").
func detectAccount(text string, claimed []Detection) []Detection {
	var out []Detection
	for _, m := range accountPattern.FindAllStringIndex(text, -1) {
		if overlapsAny(m[0], m[1], claimed) {
			continue
		}
		out = append(out, Detection{Kind: KindAccount, Value: text[m[0]:m[1]], Start: m[0], End: m[1], Confidence: regexConfidence})
	}
	return out
}

func matchAll(text string, re *regexp.Regexp, kind Kind) []Detection {
	var out []Detection
	for _, m := range re.FindAllStringIndex(text, -1) {
		out = append(out, Detection{Kind: kind, Value: text[m[0]:m[1]], Start: m[0], End: m[1], Confidence: regexConfidence})
	}
	return out
}

func overlapsAny(start, end int, detections []Detection) bool {
	for _, d := range detections {
		if start < d.End && end > d.Start {
			return true
		}
	}
	return false
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
