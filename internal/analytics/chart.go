package analytics

// synthesizeChart builds the provider-neutral {data, layout} chart
// specification spec.md §4.8 requires, choosing a chart type by
// recipe the way a human analyst would present each result.
func synthesizeChart(recipe Recipe, result AnalysisResult) *ChartSpec {
	switch recipe {
	case RecipeForecast:
		if result.Forecast == nil {
			return nil
		}
		return &ChartSpec{
			Type: ChartLine,
			Data: map[string]any{
				"x": result.Forecast.Dates,
				"y": result.Forecast.Forecast,
			},
			Layout: map[string]any{"title": "Forecast", "xaxis": "date", "yaxis": "value"},
		}
	case RecipeCorrelation:
		if result.Correlation == nil {
			return nil
		}
		return &ChartSpec{
			Type: ChartHeatmap,
			Data: map[string]any{"correlations": result.Correlation.Correlations},
			Layout: map[string]any{"title": "Correlation matrix"},
		}
	case RecipeAnomaly:
		if result.Anomaly == nil {
			return nil
		}
		return &ChartSpec{
			Type: ChartScatter,
			Data: map[string]any{
				"anomaly_indices": result.Anomaly.Anomalies,
				"anomaly_values":  result.Anomaly.AnomalyValues,
			},
			Layout: map[string]any{"title": "Anomalies"},
		}
	case RecipeSummary:
		if result.Summary == nil {
			return nil
		}
		return &ChartSpec{
			Type:   ChartBar,
			Data:   map[string]any{"summary_stats": result.Summary.SummaryStats},
			Layout: map[string]any{"title": "Summary statistics"},
		}
	case RecipeSimulation:
		if result.Simulation == nil {
			return nil
		}
		return &ChartSpec{
			Type:   ChartHistogram,
			Data:   map[string]any{"distribution": result.Simulation.Distribution},
			Layout: map[string]any{"title": "Simulation distribution"},
		}
	default:
		return nil
	}
}
