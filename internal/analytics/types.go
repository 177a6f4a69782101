// Package analytics implements the AnalyticsPlanner described in
// spec.md §4.8: intent detection over a query's tokens, five fixed
// recipe contracts, Go-source code synthesis targeting
// internal/sandbox, and provider-neutral chart-spec synthesis.
package analytics

// Recipe names a fixed analytics procedure, each with its own
// input/output contract.
type Recipe string

const (
	RecipeNone        Recipe = "none"
	RecipeForecast    Recipe = "forecast"
	RecipeCorrelation Recipe = "correlation"
	RecipeAnomaly     Recipe = "anomaly"
	RecipeSummary     Recipe = "summary"
	RecipeSimulation  Recipe = "simulation"
)

// Params carries the recipe-specific parameters parsed from the
// triggering query (or, for simulation, supplied directly by API
// callers — spec.md §4.8 notes simulation's hypothetical variables are
// "API only").
type Params struct {
	HorizonDays          int
	TargetColumn         string
	Threshold            float64
	Iterations           int
	HypotheticalVariables map[string]float64 // column -> change_pct
}

// ChartType is one of the five visualization shapes spec.md §4.8
// permits.
type ChartType string

const (
	ChartLine      ChartType = "line"
	ChartScatter   ChartType = "scatter"
	ChartBar       ChartType = "bar"
	ChartHeatmap   ChartType = "heatmap"
	ChartHistogram ChartType = "histogram"
)

// ChartSpec is the provider-neutral {data, layout} visualization object
// spec.md §4.8 requires.
type ChartSpec struct {
	Type   ChartType      `json:"type"`
	Data   map[string]any `json:"data"`
	Layout map[string]any `json:"layout"`
}

// AnalysisResult is the tagged-sum output of a recipe run: exactly one
// of the recipe-specific payload fields is populated, selected by
// Recipe, per spec.md §9's note that recipe results are tagged sum
// types rather than a class hierarchy.
type AnalysisResult struct {
	Recipe  Recipe `json:"recipe"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Forecast    *ForecastResult    `json:"forecast,omitempty"`
	Correlation *CorrelationResult `json:"correlation,omitempty"`
	Anomaly     *AnomalyResult     `json:"anomaly,omitempty"`
	Summary     *SummaryResult     `json:"summary,omitempty"`
	Simulation  *SimulationResult  `json:"simulation,omitempty"`

	Chart *ChartSpec `json:"chart,omitempty"`
}

// ForecastResult is the forecast recipe's output contract.
type ForecastResult struct {
	Forecast       []float64 `json:"forecast"`
	Dates          []string  `json:"dates"`
	Model          string    `json:"model"`
	Interpretation string    `json:"interpretation"`
}

// CorrelationResult is the correlation recipe's output contract.
type CorrelationResult struct {
	Correlations map[string]float64 `json:"correlations"`
	TopFactors   []string           `json:"top_factors"`
	Methodology  string             `json:"methodology"`
}

// AnomalyResult is the anomaly recipe's output contract.
type AnomalyResult struct {
	Anomalies      []int     `json:"anomalies"`
	AnomalyValues  []float64 `json:"anomaly_values"`
	ThresholdUsed  float64   `json:"threshold_used"`
	Interpretation string    `json:"interpretation"`
}

// ColumnStats is one column's entry in a SummaryResult.
type ColumnStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
}

// SummaryResult is the summary recipe's output contract.
type SummaryResult struct {
	SummaryStats map[string]ColumnStats `json:"summary_stats"`
	Outliers     map[string][]int       `json:"outliers"`
	MissingData  map[string]float64     `json:"missing_data"`
	KeyInsights  string                 `json:"key_insights"`
}

// Scenarios holds the P10/P50/P90 bands of a SimulationResult.
type Scenarios struct {
	Low      float64 `json:"low"`
	Expected float64 `json:"expected"`
	High     float64 `json:"high"`
}

// SimulationResult is the simulation recipe's Monte-Carlo output
// contract.
type SimulationResult struct {
	Baseline             float64   `json:"baseline"`
	Scenarios            Scenarios `json:"scenarios"`
	Distribution          []float64 `json:"distribution"`
	ConfidenceInterval    [2]float64 `json:"confidence_interval"`
	SensitivityAnalysis   string    `json:"sensitivity_analysis"`
	Interpretation        string    `json:"interpretation"`
}
