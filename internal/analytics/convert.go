package analytics

// convertSandboxResult parses the map[string]any payload a sandboxed
// recipe run assigns to `result` back into a typed AnalysisResult.
// Returns ok=false if a required key is absent or of an unexpected
// shape, signaling the caller to fall back to native computation —
// yaegi's reflection-based Interface() can hand back []interface{}
// instead of []float64, so numeric slices are read defensively.
func convertSandboxResult(recipe Recipe, payload map[string]any) (AnalysisResult, bool) {
	switch recipe {
	case RecipeForecast:
		return convertForecast(payload)
	case RecipeCorrelation:
		return convertCorrelation(payload)
	case RecipeAnomaly:
		return convertAnomaly(payload)
	case RecipeSummary:
		return convertSummary(payload)
	case RecipeSimulation:
		return convertSimulation(payload)
	default:
		return AnalysisResult{}, false
	}
}

func asFloat64Slice(v any) ([]float64, bool) {
	switch xs := v.(type) {
	case []float64:
		return xs, true
	case []interface{}:
		out := make([]float64, 0, len(xs))
		for _, x := range xs {
			f, ok := toFloat64(x)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func asIntSlice(v any) ([]int, bool) {
	switch xs := v.(type) {
	case []int:
		return xs, true
	case []interface{}:
		out := make([]int, 0, len(xs))
		for _, x := range xs {
			f, ok := toFloat64(x)
			if !ok {
				return nil, false
			}
			out = append(out, int(f))
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch xs := v.(type) {
	case []string:
		return xs, true
	case []interface{}:
		out := make([]string, 0, len(xs))
		for _, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringFloatMap(v any) (map[string]float64, bool) {
	m, ok := v.(map[string]float64)
	if ok {
		return m, true
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(raw))
	for k, rv := range raw {
		f, ok := toFloat64(rv)
		if !ok {
			return nil, false
		}
		out[k] = f
	}
	return out, true
}

func convertForecast(p map[string]any) (AnalysisResult, bool) {
	forecast, ok := asFloat64Slice(p["forecast"])
	if !ok {
		return AnalysisResult{}, false
	}
	dates, ok := asStringSlice(p["dates"])
	if !ok {
		return AnalysisResult{}, false
	}
	return AnalysisResult{
		Recipe:  RecipeForecast,
		Success: true,
		Forecast: &ForecastResult{
			Forecast:       forecast,
			Dates:          dates,
			Model:          asString(p["model"]),
			Interpretation: asString(p["interpretation"]),
		},
	}, true
}

func convertCorrelation(p map[string]any) (AnalysisResult, bool) {
	correlations, ok := asStringFloatMap(p["correlations"])
	if !ok {
		return AnalysisResult{}, false
	}
	topFactors, _ := asStringSlice(p["top_factors"])
	return AnalysisResult{
		Recipe:  RecipeCorrelation,
		Success: true,
		Correlation: &CorrelationResult{
			Correlations: correlations,
			TopFactors:   topFactors,
			Methodology:  asString(p["methodology"]),
		},
	}, true
}

func convertAnomaly(p map[string]any) (AnalysisResult, bool) {
	indices, ok := asIntSlice(p["anomalies"])
	if !ok {
		return AnalysisResult{}, false
	}
	values, ok := asFloat64Slice(p["anomaly_values"])
	if !ok {
		return AnalysisResult{}, false
	}
	threshold, _ := toFloat64(p["threshold_used"])
	return AnalysisResult{
		Recipe:  RecipeAnomaly,
		Success: true,
		Anomaly: &AnomalyResult{
			Anomalies:      indices,
			AnomalyValues:  values,
			ThresholdUsed:  threshold,
			Interpretation: asString(p["interpretation"]),
		},
	}, true
}

func convertSummary(p map[string]any) (AnalysisResult, bool) {
	rawStats, ok := p["summary_stats"].(map[string]any)
	if !ok {
		return AnalysisResult{}, false
	}
	stats := map[string]ColumnStats{}
	for col, rv := range rawStats {
		rm, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		count, _ := toFloat64(rm["count"])
		meanVal, _ := toFloat64(rm["mean"])
		stats[col] = ColumnStats{Count: int(count), Mean: meanVal}
	}
	missing, _ := asStringFloatMap(p["missing_data"])
	return AnalysisResult{
		Recipe:  RecipeSummary,
		Success: true,
		Summary: &SummaryResult{
			SummaryStats: stats,
			Outliers:     map[string][]int{},
			MissingData:  missing,
			KeyInsights:  asString(p["key_insights"]),
		},
	}, true
}

func convertSimulation(p map[string]any) (AnalysisResult, bool) {
	distribution, ok := asFloat64Slice(p["distribution"])
	if !ok {
		return AnalysisResult{}, false
	}
	baseline, _ := toFloat64(p["baseline"])
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
			Distribution:       distribution,
			ConfidenceInterval: [2]float64{percentile(distribution, 2.5), percentile(distribution, 97.5)},
			Interpretation:     "Monte Carlo simulation over hypothetical variable perturbations",
		},
	}, true
}
