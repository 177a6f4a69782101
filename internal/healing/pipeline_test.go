package healing

import (
	"context"
	"testing"
)

// scriptedArchitect returns the next SQL string in sqls on each call.
type scriptedArchitect struct {
	sqls  []string
	calls int
}

func (a *scriptedArchitect) Generate(ctx context.Context, query, focusedContext, feedback string) (string, error) {
	i := a.calls
	if i >= len(a.sqls) {
		i = len(a.sqls) - 1
	}
	a.calls++
	return a.sqls[i], nil
}

// scriptedCritic returns the next Verdict in verdicts on each call.
type scriptedCritic struct {
	verdicts []Verdict
	calls    int
}

func (c *scriptedCritic) Review(ctx context.Context, query, sql, focusedContext string) (Verdict, error) {
	i := c.calls
	if i >= len(c.verdicts) {
		i = len(c.verdicts) - 1
	}
	c.calls++
	return c.verdicts[i], nil
}

func TestPipeline_S1_SimpleSuccessFirstAttempt(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"SELECT id FROM users"}}
	crit := &scriptedCritic{verdicts: []Verdict{{Status: VerdictOK}}}
	p := New(arch, crit)

	artifact := p.Run(context.Background(), "how many users?", "table users(id)", []string{"users"})

	if artifact.Status != StatusValid {
		t.Fatalf("expected valid, got %s (%s)", artifact.Status, artifact.Reason)
	}
	if artifact.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", artifact.Attempts)
	}
	if artifact.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %f", artifact.Confidence)
	}
	if !artifact.Forwardable() {
		t.Fatal("expected forwardable artifact")
	}
}

func TestPipeline_S2_SelfHealsAfterOneCorrection(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"SELECT bad_col FROM users", "SELECT id FROM users"}}
	crit := &scriptedCritic{verdicts: []Verdict{
		{Status: VerdictError, CorrectionPlan: "bad_col does not exist, use id"},
		{Status: VerdictOK},
	}}
	p := New(arch, crit)

	artifact := p.Run(context.Background(), "how many users?", "table users(id)", []string{"users"})

	if artifact.Status != StatusValid {
		t.Fatalf("expected valid, got %s", artifact.Status)
	}
	if artifact.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", artifact.Attempts)
	}
	if artifact.Confidence != 0.90 {
		t.Fatalf("expected confidence 0.90, got %f", artifact.Confidence)
	}
}

func TestPipeline_S3_UnsafeBlocksImmediately(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"DELETE FROM users"}}
	crit := &scriptedCritic{verdicts: []Verdict{{Status: VerdictUnsafe, IsDML: true, ErrorMessage: "DML is not permitted"}}}
	p := New(arch, crit)

	artifact := p.Run(context.Background(), "delete all users", "table users(id)", []string{"users"})

	if artifact.Status != StatusUnsafe {
		t.Fatalf("expected unsafe, got %s", artifact.Status)
	}
	if artifact.SQL != "" {
		t.Fatal("expected empty SQL on unsafe verdict")
	}
	if artifact.Confidence != 0 {
		t.Fatal("expected zero confidence on unsafe verdict")
	}
	if artifact.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", artifact.Attempts)
	}
}

func TestPipeline_ExhaustsRetriesAndFloorsConfidence(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"SELECT a FROM t", "SELECT b FROM t", "SELECT c FROM t"}}
	crit := &scriptedCritic{verdicts: []Verdict{
		{Status: VerdictError, CorrectionPlan: "nope"},
		{Status: VerdictError, CorrectionPlan: "nope"},
		{Status: VerdictError, CorrectionPlan: "nope"},
	}}
	p := New(arch, crit)

	artifact := p.Run(context.Background(), "q", "table t(x)", []string{"t"})

	if artifact.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", artifact.Status)
	}
	if artifact.Attempts != DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxAttempts, artifact.Attempts)
	}
	if artifact.Confidence != ConfidenceFloor {
		t.Fatalf("expected confidence floor %f, got %f", ConfidenceFloor, artifact.Confidence)
	}
	if artifact.Forwardable() {
		t.Fatal("a failed artifact must not be forwardable")
	}
}

func TestPipeline_ValidatorRejectionTriggersRetryWithFeedback(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"SELECT * FROM other_table", "SELECT * FROM users"}}
	crit := &scriptedCritic{verdicts: []Verdict{{Status: VerdictOK}, {Status: VerdictOK}}}
	p := New(arch, crit)

	artifact := p.Run(context.Background(), "q", "table users(id)", []string{"users"})

	if artifact.Status != StatusValid {
		t.Fatalf("expected valid after validator-driven retry, got %s (%s)", artifact.Status, artifact.Reason)
	}
	if artifact.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", artifact.Attempts)
	}
}

func TestPipeline_AttemptsAlwaysWithinBounds(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"SELECT 1", "SELECT 1", "SELECT 1"}}
	crit := &scriptedCritic{verdicts: []Verdict{
		{Status: VerdictError, CorrectionPlan: "x"},
		{Status: VerdictError, CorrectionPlan: "x"},
		{Status: VerdictError, CorrectionPlan: "x"},
	}}
	p := New(arch, crit)

	artifact := p.Run(context.Background(), "q", "", nil)

	if artifact.Attempts < 1 || artifact.Attempts > DefaultMaxAttempts {
		t.Fatalf("attempts out of bounds: %d", artifact.Attempts)
	}
}

func TestPipeline_MaxAttemptsZeroFailsImmediately(t *testing.T) {
	arch := &scriptedArchitect{sqls: []string{"SELECT id FROM users"}}
	crit := &scriptedCritic{verdicts: []Verdict{{Status: VerdictOK}}}
	p := New(arch, crit)
	p.MaxAttempts = 0

	artifact := p.Run(context.Background(), "how many users?", "table users(id)", []string{"users"})

	if artifact.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", artifact.Status)
	}
	if artifact.Attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", artifact.Attempts)
	}
	if artifact.Forwardable() {
		t.Fatal("a MaxAttempts=0 artifact must not be forwardable")
	}
	if arch.calls != 0 {
		t.Fatalf("expected the architect never to be called, got %d calls", arch.calls)
	}
}

func TestPipeline_CancelledContextFailsFast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	arch := &scriptedArchitect{sqls: []string{"SELECT 1"}}
	crit := &scriptedCritic{verdicts: []Verdict{{Status: VerdictOK}}}
	p := New(arch, crit)

	artifact := p.Run(ctx, "q", "", nil)

	if artifact.Status != StatusFailed {
		t.Fatalf("expected failed on cancellation, got %s", artifact.Status)
	}
}
