package pipeline

import "sqlsentry/internal/pii"

// Guardrails reshapes a live pii.Scanner's running counters into the
// guardrails-summary contract of spec.md §6.
func Guardrails(scanner *pii.Scanner) GuardrailsSummary {
	s := scanner.Summary()
	return GuardrailsSummary{
		BlockedQueries:  s.BlockedQueries,
		RedactedResults: s.RedactedResults,
		TotalDetections: s.TotalDetections,
	}
}
