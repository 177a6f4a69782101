package pipeline

import (
	"context"
	"fmt"

	"sqlsentry/internal/analytics"
	"sqlsentry/internal/glossary"
	"sqlsentry/internal/healing"
	"sqlsentry/internal/logging"
	"sqlsentry/internal/pii"
	"sqlsentry/internal/research"
	"sqlsentry/internal/sandbox"
	"sqlsentry/internal/schema"
	"sqlsentry/internal/sqlexec"
)

// retrievalK is the default number of schema entries pulled into focused
// context per request, per spec.md §4.1's default top-k.
const retrievalK = 3

// Pipeline wires C1-C11 into the single request-serving flow spec.md §2
// describes. Every field is a narrow interface or concrete component
// already validated on its own; Pipeline only sequences them.
type Pipeline struct {
	PII       *pii.Scanner
	Schema    *schema.Index
	Glossary  *glossary.Glossary
	Healing   *healing.Pipeline
	SQL       *sqlexec.Executor
	Analytics *analytics.Planner
	Research  *research.Fetcher
}

// New constructs a Pipeline from its already-wired components. Research
// may be nil when no web-search key is configured, matching spec.md
// §6's "absence -> research returns empty" rule: Run degrades
// research-mode requests to research_performed=false rather than erroring.
func New(scanner *pii.Scanner, schemaIdx *schema.Index, gloss *glossary.Glossary, heal *healing.Pipeline, exec *sqlexec.Executor, planner *analytics.Planner, fetcher *research.Fetcher) *Pipeline {
	return &Pipeline{
		PII:       scanner,
		Schema:    schemaIdx,
		Glossary:  gloss,
		Healing:   heal,
		SQL:       exec,
		Analytics: planner,
		Research:  fetcher,
	}
}

// Run executes spec.md §2's flow: PIIScanner gates the query, SchemaIndex
// + BusinessGlossary assemble focused context, SelfHealingPipeline drives
// AgentRuntime to produce SQL, SQLExecutor runs it, PIIScanner masks the
// result, and (mode-dependent) AnalyticsPlanner or ResearchFetcher
// augment the response. Exactly one of the two return values is
// non-nil, per spec.md §6's mutually-exclusive success/error shapes.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, *ErrorResponse) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	scanResult, proceed := p.PII.ScanQuery(req.Query, false)
	if !proceed {
		return nil, &ErrorResponse{
			Error:      "query blocked by PII guardrail",
			Code:       CodePolicyViolation,
			RiskLevel:  string(scanResult.RiskLevel),
			Detections: detectionKinds(scanResult.Detections),
		}
	}

	focusedContext, knownTables, err := p.buildContext(ctx, req.Query)
	if err != nil {
		logging.Schema("focused context build failed: %v", err)
		return nil, &ErrorResponse{Error: "could not assemble schema context", Code: CodePermanentExternal, Details: err.Error()}
	}

	artifact := p.Healing.Run(ctx, req.Query, focusedContext, knownTables)
	if artifact.Status == healing.StatusUnsafe {
		return nil, &ErrorResponse{Error: "generated SQL was rejected as unsafe", Code: CodeUnsafeSQL, Details: artifact.Reason}
	}
	if !artifact.Forwardable() {
		return nil, &ErrorResponse{Error: "could not produce a validated SQL statement after retrying", Code: CodeTransient, Details: artifact.Reason}
	}

	outcome := p.SQL.Run(ctx, artifact.SQL, 0, 0)
	if outcome.Error != "" {
		return nil, &ErrorResponse{Error: outcome.Error, Code: CodePermanentExternal}
	}

	redactedCols, redactedRows, piiRedacted := p.redactResult(outcome.Result)

	resp := &Response{
		SQL:            artifact.SQL,
		Confidence:     artifact.Confidence,
		Attempts:       artifact.Attempts,
		AgentsInvolved: artifact.Agents,
		Data:           &QueryData{Columns: redactedCols, Rows: redactedRows},
		PIIRedacted:    piiRedacted,
	}

	switch req.Mode {
	case ModeAnalytics:
		p.augmentAnalytics(ctx, req.Query, resp)
	case ModeResearch:
		p.augmentResearch(ctx, req.Query, resp)
	default:
		if req.ForceResearch {
			p.augmentResearch(ctx, req.Query, resp)
		}
	}

	return resp, nil
}

func validateRequest(req Request) *ErrorResponse {
	if req.Query == "" {
		return &ErrorResponse{Error: "query must not be empty", Code: CodeUserInput}
	}
	switch req.Mode {
	case ModeStandard, ModeAnalytics, ModeResearch, "":
	default:
		return &ErrorResponse{Error: fmt.Sprintf("invalid mode: %q", req.Mode), Code: CodeUserInput}
	}
	return nil
}

// buildContext retrieves the query's relevant SchemaEntries, renders
// their DDLs, enriches the block with matching glossary terms, and
// collects the retrieved table names for the Validator's table-scope
// check, per spec.md §4.1/§4.2/§4.7.
func (p *Pipeline) buildContext(ctx context.Context, query string) (focusedContext string, knownTables []string, err error) {
	entries, err := p.Schema.Retrieve(ctx, query, retrievalK)
	if err != nil {
		return "", nil, err
	}

	base, err := p.Schema.BuildContext(ctx, query, retrievalK)
	if err != nil {
		return "", nil, err
	}

	enriched := base
	if p.Glossary != nil {
		enriched = p.Glossary.EnrichContext(query, base)
	}

	tables := make([]string, 0, len(entries))
	for _, e := range entries {
		tables = append(tables, e.TableName)
	}
	return enriched, tables, nil
}

// redactResult masks every PII hit in result's rows, per spec.md §4.3.
// An absent result (should not happen for a forwardable artifact, but
// defended against) yields an empty table.
func (p *Pipeline) redactResult(result *sqlexec.Result) (columns []string, rows [][]any, redacted bool) {
	if result == nil {
		return nil, nil, false
	}
	before := p.PII.Summary().RedactedResults
	out := make([][]any, len(result.Rows))
	for i, row := range result.Rows {
		out[i], _ = p.PII.Redact(any(row)).([]any)
	}
	after := p.PII.Summary().RedactedResults
	return result.Columns, out, after > before
}

// augmentAnalytics runs the AnalyticsPlanner over the already-fetched
// QueryData, per spec.md §4.8. A none-recipe classification leaves the
// response's analytics fields unset, matching "analytics is skipped".
func (p *Pipeline) augmentAnalytics(ctx context.Context, query string, resp *Response) {
	if p.Analytics == nil || resp.Data == nil {
		return
	}
	table := sandbox.Tabular{Columns: resp.Data.Columns, Rows: resp.Data.Rows}
	result := p.Analytics.Run(ctx, query, table, analytics.Params{})
	if result.Recipe == analytics.RecipeNone {
		return
	}
	resp.AnalyticsType = string(result.Recipe)
	resp.AnalysisResult = result
	resp.Visualization = result.Chart
}

// augmentResearch runs the ResearchFetcher alongside the internal
// findings already collected in resp, per spec.md §4.9. Research never
// errors; an unconfigured Fetcher degrades to research_performed=false.
func (p *Pipeline) augmentResearch(ctx context.Context, query string, resp *Response) {
	resp.InternalFindings = resp.Data
	if p.Research == nil {
		resp.ResearchPerformed = false
		return
	}
	external := p.Research.Search(ctx, query, research.ModeGeneral)
	resp.ExternalResearch = external
	resp.ResearchPerformed = len(external.Results) > 0
	resp.UnifiedInsights = unifyInsights(resp.Data, external)
}

// unifyInsights composes a short synthesis of internal row counts and
// external hit counts. Deeper narrative synthesis (an LLM call over both
// findings) is left to the embedding server, per spec.md §1's framing
// of report/insight templating as external glue.
func unifyInsights(internal *QueryData, external research.Summary) string {
	rows := 0
	if internal != nil {
		rows = len(internal.Rows)
	}
	if len(external.Results) == 0 {
		return fmt.Sprintf("%d internal row(s) found; no external research available", rows)
	}
	return fmt.Sprintf("%d internal row(s) found; %d external source(s) reviewed: %s", rows, len(external.Results), external.Summary)
}

func detectionKinds(detections []pii.Detection) []string {
	if len(detections) == 0 {
		return nil
	}
	out := make([]string, len(detections))
	for i, d := range detections {
		out[i] = string(d.Kind)
	}
	return out
}
