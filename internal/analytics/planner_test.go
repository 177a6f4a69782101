package analytics

import (
	"context"
	"testing"

	"sqlsentry/internal/sandbox"
)

func sampleTable() sandbox.Tabular {
	return sandbox.Tabular{
		Columns: []string{"day", "revenue", "visitors"},
		Rows: [][]any{
			{1, 100.0, 50.0},
			{2, 110.0, 55.0},
			{3, 105.0, 52.0},
			{4, 120.0, 60.0},
			{5, 130.0, 65.0},
			{6, 125.0, 62.0},
			{7, 140.0, 70.0},
			{8, 135.0, 68.0},
		},
	}
}

func TestPlanner_NoRecipeMatchSkipsAnalytics(t *testing.T) {
	p := New(nil)
	result := p.Run(context.Background(), "list all orders", sampleTable(), Params{})
	if result.Recipe != RecipeNone || !result.Success {
		t.Fatalf("expected skipped analytics, got %+v", result)
	}
}

func TestPlanner_NativeForecast(t *testing.T) {
	p := New(nil)
	result := p.Run(context.Background(), "forecast revenue for 5 days", sampleTable(), Params{TargetColumn: "revenue"})
	if result.Recipe != RecipeForecast || !result.Success {
		t.Fatalf("expected forecast success, got %+v", result)
	}
	if result.Forecast == nil || len(result.Forecast.Forecast) != 5 {
		t.Fatalf("expected 5-point forecast, got %+v", result.Forecast)
	}
	if result.Chart == nil || result.Chart.Type != ChartLine {
		t.Fatal("expected a line chart")
	}
}

func TestPlanner_NativeCorrelation(t *testing.T) {
	p := New(nil)
	result := p.Run(context.Background(), "correlation between revenue and visitors", sampleTable(), Params{TargetColumn: "revenue"})
	if result.Recipe != RecipeCorrelation || !result.Success {
		t.Fatalf("expected correlation success, got %+v", result)
	}
	if result.Correlation == nil || len(result.Correlation.Correlations) == 0 {
		t.Fatal("expected nonempty correlations")
	}
	if result.Chart == nil || result.Chart.Type != ChartHeatmap {
		t.Fatal("expected a heatmap chart")
	}
}

func TestPlanner_NativeAnomaly(t *testing.T) {
	table := sandbox.Tabular{
		Columns: []string{"value"},
		Rows: [][]any{
			{10.0}, {11.0}, {9.0}, {10.0}, {10.0}, {11.0}, {9.0}, {100.0},
		},
	}
	p := New(nil)
	result := p.Run(context.Background(), "find the outlier in this data", table, Params{TargetColumn: "value", Threshold: 2})
	if result.Recipe != RecipeAnomaly || !result.Success {
		t.Fatalf("expected anomaly success, got %+v", result)
	}
	if len(result.Anomaly.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", result.Anomaly.Anomalies)
	}
}

func TestPlanner_NativeSummary(t *testing.T) {
	p := New(nil)
	result := p.Run(context.Background(), "show me summary statistics", sampleTable(), Params{})
	if result.Recipe != RecipeSummary || !result.Success {
		t.Fatalf("expected summary success, got %+v", result)
	}
	if len(result.Summary.SummaryStats) == 0 {
		t.Fatal("expected nonempty summary stats")
	}
}

func TestPlanner_NativeSimulation(t *testing.T) {
	p := New(nil)
	params := Params{TargetColumn: "revenue", HypotheticalVariables: map[string]float64{"visitors": 10}, Iterations: 200}
	result := p.Run(context.Background(), "what if visitors increase", sampleTable(), params)
	if result.Recipe != RecipeSimulation || !result.Success {
		t.Fatalf("expected simulation success, got %+v", result)
	}
	if len(result.Simulation.Distribution) != 200 {
		t.Fatalf("expected 200 draws, got %d", len(result.Simulation.Distribution))
	}
	if result.Simulation.Scenarios.Low > result.Simulation.Scenarios.Expected ||
		result.Simulation.Scenarios.Expected > result.Simulation.Scenarios.High {
		t.Fatalf("expected low <= expected <= high, got %+v", result.Simulation.Scenarios)
	}
}

// stubRunner lets tests exercise the sandbox-backed path without yaegi.
type stubRunner struct {
	result sandbox.Result
}

func (s stubRunner) Run(ctx context.Context, code string, inputs map[string]sandbox.Tabular) sandbox.Result {
	return s.result
}
func (s stubRunner) Tier() sandbox.Tier { return sandbox.TierRestricted }

func TestPlanner_SandboxSuccessIsParsed(t *testing.T) {
	stub := stubRunner{result: sandbox.Result{
		Success: true,
		Result: map[string]any{
			"forecast":       []interface{}{1.0, 2.0, 3.0},
			"dates":          []interface{}{"2026-01-01", "2026-01-02", "2026-01-03"},
			"model":          "moving_average_7",
			"interpretation": "test",
		},
		TierUsed: sandbox.TierRestricted,
	}}
	p := New(stub)
	result := p.Run(context.Background(), "forecast revenue for 3 days", sampleTable(), Params{TargetColumn: "revenue"})
	if !result.Success || result.Forecast == nil || len(result.Forecast.Forecast) != 3 {
		t.Fatalf("expected parsed sandbox forecast, got %+v", result)
	}
}

func TestPlanner_SandboxFailureFallsBackToNative(t *testing.T) {
	stub := stubRunner{result: sandbox.Result{Success: false, Error: "boom"}}
	p := New(stub)
	result := p.Run(context.Background(), "forecast revenue for 5 days", sampleTable(), Params{TargetColumn: "revenue"})
	if !result.Success || result.Forecast == nil {
		t.Fatalf("expected native fallback result, got %+v", result)
	}
}

func TestPlanner_SandboxUnparseablePayloadFallsBackToNative(t *testing.T) {
	stub := stubRunner{result: sandbox.Result{Success: true, Result: "not a map"}}
	p := New(stub)
	result := p.Run(context.Background(), "forecast revenue for 5 days", sampleTable(), Params{TargetColumn: "revenue"})
	if !result.Success || result.Forecast == nil {
		t.Fatalf("expected native fallback result, got %+v", result)
	}
}

func TestSynthesize_UnknownRecipeErrors(t *testing.T) {
	if _, err := Synthesize(RecipeNone, Params{}); err == nil {
		t.Fatal("expected an error for RecipeNone")
	}
}

func TestSynthesize_ProducesResultAssignment(t *testing.T) {
	code, err := Synthesize(RecipeForecast, Params{TargetColumn: "revenue", HorizonDays: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code == "" {
		t.Fatal("expected nonempty synthesized source")
	}
}
