package healing

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"sqlsentry/internal/agent"
	"sqlsentry/internal/logging"
)

// Architect generates a SQL candidate for query given focused context
// and (on retries) feedback from the previous attempt.
type Architect interface {
	Generate(ctx context.Context, query, focusedContext, feedback string) (string, error)
}

// Critic reviews a generated SQL candidate and returns a structured
// Verdict.
type Critic interface {
	Review(ctx context.Context, query, sql, focusedContext string) (Verdict, error)
}

// AgentArchitect is the default Architect, backed by an agent.Agent
// whose LLM temperature is expected to be configured at <=0.2 per
// spec.md §4.7.
type AgentArchitect struct {
	Agent *agent.Agent
}

var codeFencePattern = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")

func (a AgentArchitect) Generate(ctx context.Context, query, focusedContext, feedback string) (string, error) {
	system := "You are a SQL author. Given a natural-language question, a focused schema context, and optional correction feedback, emit exactly one read-only SQL statement (SELECT or WITH) that answers the question. Respond with SQL only."
	user := fmt.Sprintf("Question: %s\n\nSchema context:\n%s", query, focusedContext)
	if feedback != "" {
		user += fmt.Sprintf("\n\nThe previous attempt was rejected: %s\nRevise accordingly.", feedback)
	}

	raw, err := a.Agent.LLM.Complete(ctx, system, user, 0, 0.2)
	if err != nil {
		return "", fmt.Errorf("architect: %w", err)
	}
	return extractSQL(raw), nil
}

func extractSQL(raw string) string {
	if m := codeFencePattern.FindStringSubmatch(raw); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// AgentCritic is the default Critic, backed by an agent.Agent whose LLM
// temperature is fixed at 0 per spec.md §4.7.
type AgentCritic struct {
	Agent *agent.Agent
}

func (c AgentCritic) Review(ctx context.Context, query, sql, focusedContext string) (Verdict, error) {
	system := `You are a deep SQL reviewer. Given a question, a focused schema context, and a candidate SQL statement, respond with ONLY a JSON object: {"status": "ok"|"error"|"unsafe", "error_message": string, "correction_plan": string, "is_dml": bool, "confidence": number between 0 and 1}. status=unsafe means the statement is DML/DDL or otherwise unsafe to run. status=error means the statement has a fixable problem; supply correction_plan. status=ok means the statement is ready to execute.`
	user := fmt.Sprintf("Question: %s\n\nSchema context:\n%s\n\nCandidate SQL:\n%s", query, focusedContext, sql)

	raw, err := c.Agent.LLM.Complete(ctx, system, user, 0, 0)
	if err != nil {
		return Verdict{}, fmt.Errorf("critic: %w", err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		logging.HealingDebug("critic returned unparseable verdict, treating as error: %v", err)
		return Verdict{Status: VerdictError, ErrorMessage: "critic response could not be parsed", CorrectionPlan: "retry with a simpler statement"}, nil
	}
	return verdict, nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func parseVerdict(raw string) (Verdict, error) {
	candidate := raw
	if m := jsonObjectPattern.FindString(raw); m != "" {
		candidate = m
	}
	var v Verdict
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return Verdict{}, fmt.Errorf("parsing critic verdict: %w", err)
	}
	return v, nil
}
