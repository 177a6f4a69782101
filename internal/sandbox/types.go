// Package sandbox implements the CodeSandbox described in spec.md §4.5:
// a secure execution layer for analytics code synthesized by
// internal/analytics, with two isolation tiers (container / restricted
// interpreter) that auto-degrade and a fixed resource cap. The execution
// language is Go (idiomatic for this port; spec.md's Python framing is
// generalized per SPEC_FULL.md §C5), and generated snippets populate a
// package-level `result` variable read back from a `Tabular` context.
package sandbox

import "context"

// Tabular is the in-memory dataframe shape passed into and read back
// from sandboxed code: parallel columns of typed values.
type Tabular struct {
	Columns []string         `json:"columns"`
	Rows    [][]any          `json:"rows"`
}

// Tier identifies which isolation strategy executed a run.
type Tier string

const (
	TierContainer Tier = "container"
	TierRestricted Tier = "restricted"
)

// Result is the {success, result, output, error, visualization?} shape
// spec.md §4.5 requires.
type Result struct {
	Success       bool   `json:"success"`
	Result        any    `json:"result,omitempty"`
	Output        string `json:"output,omitempty"`
	Error         string `json:"error,omitempty"`
	Visualization any    `json:"visualization,omitempty"`
	TierUsed      Tier   `json:"tier_used"`
}

// Runner is satisfied by each isolation tier.
type Runner interface {
	Run(ctx context.Context, code string, inputs map[string]Tabular) Result
	Tier() Tier
}
