// Package healing implements the SelfHealingPipeline described in
// spec.md §4.7: a bounded generate->critique->correct loop run by three
// cooperating agents (Architect, Critic, Validator) that turns a query
// and its focused schema context into a validated SQLArtifact. This is
// the central algorithm of the port, directly generalizing the
// teacher's internal/core/self_healing.go retry/backoff/escalate
// structure onto SQL generation instead of file-edit retries.
package healing

// Status is an SQLArtifact's final validation verdict.
type Status string

const (
	StatusValid  Status = "valid"
	StatusUnsafe Status = "unsafe"
	StatusFailed Status = "failed"
)

// DefaultMaxAttempts is the generate->critique->correct loop bound a
// Pipeline uses when its MaxAttempts field is left unset, per spec.md
// §4.7 ("Let MAX_ATTEMPTS = 3"). spec.md §8 also names MAX_ATTEMPTS = 0
// as a configured boundary the Pipeline must honor (an immediate
// `failed` artifact, zero attempts spent), so the bound lives on
// Pipeline as a field rather than this fixed constant alone.
const DefaultMaxAttempts = 3

// ConfidenceFloor is the confidence assigned to a best-effort SQLArtifact
// on exhausted retries — spec.md §9's third Open Question, resolved to
// 0.5 per SPEC_FULL.md (the value spec.md §8's test suite assumes).
const ConfidenceFloor = 0.5

// SQLArtifact is the pipeline's immutable output, per spec.md §3.
// Invariant: if Status is unsafe, SQL must be empty and Confidence 0.
type SQLArtifact struct {
	SQL        string   `json:"sql,omitempty"`
	Attempts   int      `json:"attempts"`
	Confidence float64  `json:"confidence"`
	Agents     []string `json:"agents_involved"`
	Status     Status   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
}

// Forwardable reports whether the artifact's SQL may be passed to
// internal/sqlexec, per spec.md §3's invariant: only a `valid` verdict
// is forwardable.
func (a SQLArtifact) Forwardable() bool { return a.Status == StatusValid }

// VerdictStatus is the Critic's structured output tag.
type VerdictStatus string

const (
	VerdictOK     VerdictStatus = "ok"
	VerdictError  VerdictStatus = "error"
	VerdictUnsafe VerdictStatus = "unsafe"
)

// Verdict is the Critic's review of one generated SQL candidate.
type Verdict struct {
	Status         VerdictStatus `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	CorrectionPlan string        `json:"correction_plan,omitempty"`
	IsDML          bool          `json:"is_dml"`
	Confidence     float64       `json:"confidence"`
}
