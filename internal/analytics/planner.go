package analytics

import (
	"context"
	"math/rand"
	"time"

	"sqlsentry/internal/logging"
	"sqlsentry/internal/sandbox"
)

// Planner is the AnalyticsPlanner of spec.md §4.8: it classifies a
// query's intent, resolves recipe parameters, synthesizes Go source for
// the chosen recipe, and runs it — through a sandbox.Runner when one is
// configured, falling back to an equivalent native computation
// otherwise (e.g. when no sandbox tier is wired, or the sandbox run
// fails or returns an unparseable payload).
type Planner struct {
	Sandbox sandbox.Runner
}

// New constructs a Planner. sb may be nil, in which case Run always
// computes recipes natively.
func New(sb sandbox.Runner) *Planner {
	return &Planner{Sandbox: sb}
}

// Run classifies query, resolves Params against table's columns, and
// produces the recipe's AnalysisResult plus its chart spec. Returns
// {Recipe: none, Success: true} when no recipe's keywords match, per
// spec.md §4.8 ("analytics is skipped").
func (p *Planner) Run(ctx context.Context, query string, table sandbox.Tabular, overrides Params) AnalysisResult {
	recipe := Classify(query)
	if recipe == RecipeNone {
		return AnalysisResult{Recipe: RecipeNone, Success: true}
	}

	params := resolveParams(query, table, recipe, overrides)

	var result AnalysisResult
	if p.Sandbox != nil {
		result = p.runSandboxed(ctx, recipe, params, table)
	} else {
		result = computeNative(recipe, params, table)
	}
	result.Chart = synthesizeChart(recipe, result)
	return result
}

// resolveParams fills in recipe-specific parameters from the query text
// and table shape, respecting any caller-supplied overrides (the
// simulation recipe's hypothetical variables are always API-supplied,
// per spec.md §4.8).
func resolveParams(query string, table sandbox.Tabular, recipe Recipe, overrides Params) Params {
	params := overrides
	switch recipe {
	case RecipeForecast:
		if params.HorizonDays == 0 {
			params.HorizonDays = ParseHorizonDaysExplicit(query)
		}
	case RecipeAnomaly:
		if params.Threshold == 0 {
			params.Threshold = 3
		}
	case RecipeSimulation:
		if params.Iterations == 0 {
			params.Iterations = 1000
		}
	}
	if params.TargetColumn == "" {
		params.TargetColumn = inferNumericColumn(table)
	}
	return params
}

// inferNumericColumn picks the first column containing at least one
// numeric cell, a simple stand-in for spec.md §4.8's "target column
// inferred from query" when the query doesn't name one explicitly.
func inferNumericColumn(table sandbox.Tabular) string {
	for _, col := range table.Columns {
		if len(sandbox.Column(table, col)) > 0 {
			return col
		}
	}
	if len(table.Columns) > 0 {
		return table.Columns[0]
	}
	return ""
}

// runSandboxed synthesizes code for recipe, executes it through the
// configured sandbox, and parses its result payload back into an
// AnalysisResult. Any failure — synthesis error, sandbox failure,
// unparseable payload — falls back to computeNative rather than
// propagating an error, per spec.md §4.5's never-raise boundary.
func (p *Planner) runSandboxed(ctx context.Context, recipe Recipe, params Params, table sandbox.Tabular) AnalysisResult {
	code, err := Synthesize(recipe, params)
	if err != nil {
		logging.Analytics("code synthesis failed for recipe %s: %v, falling back to native", recipe, err)
		return computeNative(recipe, params, table)
	}

	sres := p.Sandbox.Run(ctx, code, map[string]sandbox.Tabular{inputTableName: table})
	if !sres.Success {
		logging.Analytics("sandbox run failed for recipe %s: %s, falling back to native", recipe, sres.Error)
		return computeNative(recipe, params, table)
	}

	payload, ok := sres.Result.(map[string]any)
	if !ok {
		logging.Analytics("sandbox returned unparseable payload for recipe %s, falling back to native", recipe)
		return computeNative(recipe, params, table)
	}

	result, ok := convertSandboxResult(recipe, payload)
	if !ok {
		logging.AnalyticsDebug("sandbox payload for recipe %s missing expected keys, falling back to native", recipe)
		return computeNative(recipe, params, table)
	}
	return result
}

// computeNative runs the recipe's math directly in Go, bypassing the
// sandbox — used whenever no sandbox.Runner is configured or the
// sandboxed run didn't produce a usable payload.
func computeNative(recipe Recipe, params Params, table sandbox.Tabular) AnalysisResult {
	switch recipe {
	case RecipeForecast:
		return nativeForecast(params, table)
	case RecipeCorrelation:
		return nativeCorrelation(params, table)
	case RecipeAnomaly:
		return nativeAnomaly(params, table)
	case RecipeSummary:
		return nativeSummary(table)
	case RecipeSimulation:
		return nativeSimulation(params, table)
	default:
		return AnalysisResult{Recipe: recipe, Success: false, Error: "unknown recipe"}
	}
}

func nativeForecast(p Params, table sandbox.Tabular) AnalysisResult {
	series := sandbox.Column(table, p.TargetColumn)
	horizon := p.HorizonDays
	if horizon <= 0 {
		horizon = 30
	}
	forecast := movingAverageForecast(series, horizon)
	dates := make([]string, horizon)
	now := time.Now()
	for i := 0; i < horizon; i++ {
		dates[i] = now.AddDate(0, 0, i+1).Format("2006-01-02")
	}
	return AnalysisResult{
		Recipe:  RecipeForecast,
		Success: true,
		Forecast: &ForecastResult{
			Forecast:       forecast,
			Dates:          dates,
			Model:          "moving_average_7",
			Interpretation: "projection derived from a trailing 7-period moving average",
		},
	}
}

func nativeCorrelation(p Params, table sandbox.Tabular) AnalysisResult {
	target := sandbox.Column(table, p.TargetColumn)
	correlations := map[string]float64{}
	for _, col := range table.Columns {
		if col == p.TargetColumn {
			continue
		}
		other := sandbox.Column(table, col)
		if len(other) == len(target) && len(other) > 0 {
			correlations[col] = pearson(target, other)
		}
	}
	topFactors := rankByAbsValueDesc(correlations)
	return AnalysisResult{
		Recipe:  RecipeCorrelation,
		Success: true,
		Correlation: &CorrelationResult{
			Correlations: correlations,
			TopFactors:   topFactors,
			Methodology:  "pearson",
		},
	}
}

func rankByAbsValueDesc(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && absf(m[keys[j]]) > absf(m[keys[j-1]]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func nativeAnomaly(p Params, table sandbox.Tabular) AnalysisResult {
	threshold := p.Threshold
	if threshold == 0 {
		threshold = 3
	}
	series := sandbox.Column(table, p.TargetColumn)
	indices, values := zscoreAnomalies(series, threshold)
	return AnalysisResult{
		Recipe:  RecipeAnomaly,
		Success: true,
		Anomaly: &AnomalyResult{
			Anomalies:      indices,
			AnomalyValues:  values,
			ThresholdUsed:  threshold,
			Interpretation: "values more than the threshold's standard deviations from the mean",
		},
	}
}

func nativeSummary(table sandbox.Tabular) AnalysisResult {
	stats := map[string]ColumnStats{}
	outliers := map[string][]int{}
	missing := map[string]float64{}
	totalRows := len(table.Rows)

	for _, col := range table.Columns {
		series := sandbox.Column(table, col)
		if totalRows > 0 {
			missing[col] = float64(totalRows-len(series)) / float64(totalRows) * 100
		}
		if len(series) == 0 {
			continue
		}
		stats[col] = columnStats(series)
		idx, _ := zscoreAnomalies(series, 3)
		if len(idx) > 0 {
			outliers[col] = idx
		}
	}

	return AnalysisResult{
		Recipe:  RecipeSummary,
		Success: true,
		Summary: &SummaryResult{
			SummaryStats: stats,
			Outliers:     outliers,
			MissingData:  missing,
			KeyInsights:  "distribution computed per numeric column",
		},
	}
}

func nativeSimulation(p Params, table sandbox.Tabular) AnalysisResult {
	target := sandbox.Column(table, p.TargetColumn)
	baseline := mean(target)

	changePct := 0.0
	var sensitivity string
	for col, pct := range p.HypotheticalVariables {
		changePct = pct
		sensitivity = "target column recomputed by mean aggregation under perturbation of " + col
		break
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	distribution := monteCarlo(rng, baseline, changePct, p.Iterations)

	return AnalysisResult{
		Recipe:  RecipeSimulation,
		Success: true,
		Simulation: &SimulationResult{
			Baseline: baseline,
			Scenarios: Scenarios{
				Low:      percentile(distribution, 10),
				Expected: percentile(distribution, 50),
				High:     percentile(distribution, 90),
			},
			Distribution:        distribution,
			ConfidenceInterval:  [2]float64{percentile(distribution, 2.5), percentile(distribution, 97.5)},
			SensitivityAnalysis: sensitivity,
			Interpretation:      "Monte Carlo simulation over hypothetical variable perturbations",
		},
	}
}
