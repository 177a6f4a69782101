package healing

import (
	"context"

	"golang.org/x/sync/errgroup"

	"sqlsentry/internal/logging"
)

// Pipeline runs the bounded generate->critique->correct loop of
// spec.md §4.7.
type Pipeline struct {
	Architect Architect
	Critic    Critic
	Validator Validator

	// MaxAttempts bounds the loop. Zero means "fail immediately without
	// generating anything", per spec.md §8's MAX_ATTEMPTS=0 boundary
	// case; New defaults it to DefaultMaxAttempts.
	MaxAttempts int
}

// New builds a Pipeline from the three cooperating agents/validator,
// defaulting MaxAttempts to DefaultMaxAttempts.
func New(architect Architect, critic Critic) *Pipeline {
	return &Pipeline{Architect: architect, Critic: critic, Validator: Validator{}, MaxAttempts: DefaultMaxAttempts}
}

// Run drives the loop for one query against focusedContext, gated by
// knownTables (the set of table names the focused context actually
// covers, for the Validator's table-scope check). Cancellation is
// checked between attempts, per spec.md §5.
func (p *Pipeline) Run(ctx context.Context, query, focusedContext string, knownTables []string) SQLArtifact {
	agents := []string{"architect", "critic", "validator"}
	var feedback, lastSQL string

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return SQLArtifact{Status: StatusFailed, Attempts: attempt, Confidence: ConfidenceFloor, Agents: agents, Reason: "cancelled: " + err.Error()}
		}

		sql, err := p.Architect.Generate(ctx, query, focusedContext, feedback)
		if err != nil {
			logging.Healing("architect failed on attempt %d: %v", attempt, err)
			feedback = "architect failed to generate SQL: " + err.Error()
			lastSQL = ""
			continue
		}
		lastSQL = sql

		verdict, safetyCheck, err := p.reviewAndPrescreen(ctx, query, sql, focusedContext, knownTables)
		if err != nil {
			logging.Healing("critic/validator failed on attempt %d: %v", attempt, err)
			feedback = err.Error()
			continue
		}

		if verdict.IsDML || verdict.Status == VerdictUnsafe {
			reason := verdict.ErrorMessage
			if reason == "" {
				reason = "critic flagged the statement as unsafe"
			}
			logging.Healing("attempt %d blocked as unsafe: %s", attempt, reason)
			return SQLArtifact{Status: StatusUnsafe, Attempts: attempt, Confidence: 0, Agents: agents, Reason: reason}
		}

		if verdict.Status == VerdictOK {
			if safetyCheck.ok {
				// 0.95 minus 0.05 per extra attempt, computed in hundredths
				// so that e.g. the second attempt yields exactly 0.90.
				confidence := float64(95-5*(attempt-1)) / 100
				logging.Healing("attempt %d succeeded, confidence=%.2f", attempt, confidence)
				return SQLArtifact{SQL: sql, Status: StatusValid, Attempts: attempt, Confidence: confidence, Agents: agents}
			}
			feedback = safetyCheck.reason
			logging.Healing("attempt %d rejected by validator: %s", attempt, safetyCheck.reason)
			continue
		}

		// VerdictError: retry with the critic's correction plan.
		feedback = verdict.CorrectionPlan
		if feedback == "" {
			feedback = verdict.ErrorMessage
		}
	}

	confidence := ConfidenceFloor
	reason := "exhausted retries"
	if p.MaxAttempts == 0 {
		reason = "max attempts configured to 0"
	}
	logging.Healing("exhausted %d attempts, returning best-effort SQL (not forwardable)", p.MaxAttempts)
	return SQLArtifact{SQL: lastSQL, Status: StatusFailed, Attempts: p.MaxAttempts, Confidence: confidence, Agents: agents, Reason: reason}
}

type validatorOutcome struct {
	ok     bool
	reason string
}

// reviewAndPrescreen runs the Critic's LLM-backed review concurrently
// with the Validator's local, LLM-independent safety prescreen (token
// gating, no I/O), bounding both under one cancellable group —
// generalizing the teacher's use of shared-cancellation concurrent calls
// in its own retry/escalate machinery (internal/core/self_healing.go) to
// this loop's two independent checks on the same candidate SQL.
func (p *Pipeline) reviewAndPrescreen(ctx context.Context, query, sql, focusedContext string, knownTables []string) (Verdict, validatorOutcome, error) {
	g, gctx := errgroup.WithContext(ctx)

	var verdict Verdict
	var prescreen validatorOutcome

	g.Go(func() error {
		v, err := p.Critic.Review(gctx, query, sql, focusedContext)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	g.Go(func() error {
		ok, reason := p.Validator.Check(sql, knownTables)
		prescreen = validatorOutcome{ok: ok, reason: reason}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Verdict{}, validatorOutcome{}, err
	}
	return verdict, prescreen, nil
}
