package analytics

import "fmt"

// inputTableName is the fixed key under which the SQL result dataframe
// is placed in the sandbox's input context, per spec.md §4.8's "reads
// input tables from the sandbox context" contract.
const inputTableName = "data"

// Synthesize emits the Go source for recipe's analysis, to be passed to
// internal/sandbox. The snippet reads inputTableName via the injected
// sandboxdata package and assigns its computed payload to a package-level
// `result` variable, per spec.md §4.8's code-synthesis requirement. The
// Planner parses the sandbox's result back into an AnalysisResult. The
// summary payload's summary_stats hold only count and mean per column,
// with an empty outliers map, and the simulation payload holds only
// baseline and distribution.
func Synthesize(recipe Recipe, params Params) (string, error) {
	switch recipe {
	case RecipeForecast:
		return synthesizeForecast(params), nil
	case RecipeCorrelation:
		return synthesizeCorrelation(params), nil
	case RecipeAnomaly:
		return synthesizeAnomaly(params), nil
	case RecipeSummary:
		return synthesizeSummary(params), nil
	case RecipeSimulation:
		return synthesizeSimulation(params), nil
	default:
		return "", fmt.Errorf("analytics: no code synthesis for recipe %q", recipe)
	}
}

func synthesizeForecast(p Params) string {
	return fmt.Sprintf(`package main

import (
	"time"

	"sandboxdata"
)

func movingAverage(series []float64, horizon int) []float64 {
	const window = 7
	working := append([]float64(nil), series...)
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		start := len(working) - window
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, v := range working[start:] {
			sum += v
		}
		avg := sum / float64(len(working[start:]))
		out[i] = avg
		working = append(working, avg)
	}
	return out
}

var result any

func init() {
	table := sandboxdata.Get(%q)
	series := sandboxdata.Column(table, %q)
	horizon := %d
	forecast := movingAverage(series, horizon)

	dates := make([]string, horizon)
	now := time.Now()
	for i := 0; i < horizon; i++ {
		dates[i] = now.AddDate(0, 0, i+1).Format("2006-01-02")
	}

	result = map[string]any{
		"forecast":       forecast,
		"dates":          dates,
		"model":          "moving_average_7",
		"interpretation": "projection derived from a trailing 7-period moving average",
	}
}
`, inputTableName, p.TargetColumn, p.HorizonDays)
}

func synthesizeCorrelation(p Params) string {
	return fmt.Sprintf(`package main

import "sandboxdata"

func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	var ma, mb float64
	for i := 0; i < n; i++ {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(n)
	mb /= float64(n)
	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / sqrt(va*vb)
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 32; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var result any

func init() {
	table := sandboxdata.Get(%q)
	target := sandboxdata.Column(table, %q)
	correlations := map[string]float64{}
	var topFactors []string
	for _, col := range table.Columns {
		if col == %q {
			continue
		}
		other := sandboxdata.Column(table, col)
		if len(other) == len(target) && len(other) > 0 {
			correlations[col] = pearson(target, other)
			topFactors = append(topFactors, col)
		}
	}
	// sort topFactors by |r| descending, insertion sort (small N expected)
	for i := 1; i < len(topFactors); i++ {
		for j := i; j > 0 && abs(correlations[topFactors[j]]) > abs(correlations[topFactors[j-1]]); j-- {
			topFactors[j], topFactors[j-1] = topFactors[j-1], topFactors[j]
		}
	}

	result = map[string]any{
		"correlations": correlations,
		"top_factors":  topFactors,
		"methodology":  "pearson",
	}
}
`, inputTableName, p.TargetColumn, p.TargetColumn)
}

func synthesizeAnomaly(p Params) string {
	return fmt.Sprintf(`package main

import "sandboxdata"

var result any

func init() {
	table := sandboxdata.Get(%q)
	series := sandboxdata.Column(table, %q)
	threshold := %f

	n := len(series)
	var indices []int
	var values []float64

	if n >= 2 {
		var sum float64
		for _, v := range series {
			sum += v
		}
		m := sum / float64(n)
		var sq float64
		for _, v := range series {
			d := v - m
			sq += d * d
		}
		sd := sq / float64(n-1)
		if sd > 0 {
			half := sd
			// Newton's method sqrt
			z := half
			for i := 0; i < 32 && z > 0; i++ {
				z -= (z*z - half) / (2 * z)
			}
			sd = z
		}

		if sd > 0 {
			for i, v := range series {
				z := (v - m) / sd
				if z < 0 {
					z = -z
				}
				if z > threshold {
					indices = append(indices, i)
					values = append(values, v)
				}
			}
		}
	}

	result = map[string]any{
		"anomalies":      indices,
		"anomaly_values": values,
		"threshold_used": threshold,
		"interpretation": "values more than the threshold's standard deviations from the mean",
	}
}
`, inputTableName, p.TargetColumn, p.Threshold)
}

func synthesizeSummary(p Params) string {
	return fmt.Sprintf(`package main

import "sandboxdata"

var result any

func init() {
	table := sandboxdata.Get(%q)
	stats := map[string]any{}
	missing := map[string]any{}
	for _, col := range table.Columns {
		series := sandboxdata.Column(table, col)
		totalRows := len(table.Rows)
		if totalRows > 0 {
			missing[col] = float64(totalRows-len(series)) / float64(totalRows) * 100
		}
		if len(series) == 0 {
			continue
		}
		var sum float64
		for _, v := range series {
			sum += v
		}
		mean := sum / float64(len(series))
		stats[col] = map[string]any{
			"count": len(series),
			"mean":  mean,
		}
	}
	result = map[string]any{
		"summary_stats": stats,
		"outliers":      map[string]any{},
		"missing_data":  missing,
		"key_insights":  "distribution computed per numeric column",
	}
}
`, inputTableName)
}

func synthesizeSimulation(p Params) string {
	return fmt.Sprintf(`package main

import (
	"math/rand"

	"sandboxdata"
)

var result any

func init() {
	table := sandboxdata.Get(%q)
	target := sandboxdata.Column(table, %q)
	var baseline float64
	for _, v := range target {
		baseline += v
	}
	if len(target) > 0 {
		baseline /= float64(len(target))
	}

	changePct := %f
	sd := changePct / 300
	if sd < 0 {
		sd = -sd
	}

	iterations := %d
	distribution := make([]float64, iterations)
	for i := 0; i < iterations; i++ {
		draw := rand.NormFloat64()*sd + changePct/100
		distribution[i] = baseline * (1 + draw)
	}

	result = map[string]any{
		"baseline":     baseline,
		"distribution": distribution,
	}
}
`, inputTableName, p.TargetColumn, firstHypotheticalPct(p), simulationIterations(p.Iterations))
}

func firstHypotheticalPct(p Params) float64 {
	for _, pct := range p.HypotheticalVariables {
		return pct
	}
	return 0
}

func simulationIterations(n int) int {
	if n <= 0 {
		return 1000
	}
	if n > 10000 {
		return 10000
	}
	return n
}
