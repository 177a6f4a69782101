package pii

import "regexp"

// namePattern and addressPattern are coarse heuristics deliberately kept
// simple: they run only when advanced detection is explicitly enabled
// (spec.md §6, SQLSENTRY_ADVANCED_PII) because they are far noisier than
// the base patterns.
var (
	namePattern    = regexp.MustCompile(`\b[A-Z][a-z]+\s[A-Z][a-z]+\b`)
	addressPattern = regexp.MustCompile(`\b\d{1,5}\s[A-Z][a-zA-Z]*(?:\s[A-Z][a-zA-Z]*){0,3}\s(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way)\b`)
)

func detectName(text string) []Detection {
	return matchAll(text, namePattern, KindName)
}

func detectAddress(text string) []Detection {
	return matchAll(text, addressPattern, KindAddress)
}
