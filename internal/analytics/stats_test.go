package analytics

import (
	"math"
	"math/rand"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMovingAverageForecast(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7}
	out := movingAverageForecast(series, 3)
	if len(out) != 3 {
		t.Fatalf("expected 3 points, got %d", len(out))
	}
	if !approxEqual(out[0], 4.0, 0.0001) {
		t.Fatalf("expected first projection 4.0, got %f", out[0])
	}
}

func TestMovingAverageForecast_EmptySeries(t *testing.T) {
	if out := movingAverageForecast(nil, 5); out != nil {
		t.Fatalf("expected nil for empty series, got %v", out)
	}
}

func TestPearson_PerfectPositiveCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10}
	r := pearson(a, b)
	if !approxEqual(r, 1.0, 0.0001) {
		t.Fatalf("expected r=1.0, got %f", r)
	}
}

func TestPearson_PerfectNegativeCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{5, 4, 3, 2, 1}
	r := pearson(a, b)
	if !approxEqual(r, -1.0, 0.0001) {
		t.Fatalf("expected r=-1.0, got %f", r)
	}
}

func TestPearson_MismatchedLengthReturnsZero(t *testing.T) {
	if r := pearson([]float64{1, 2}, []float64{1}); r != 0 {
		t.Fatalf("expected 0, got %f", r)
	}
}

func TestZscoreAnomalies(t *testing.T) {
	series := []float64{10, 11, 9, 10, 10, 11, 9, 100}
	indices, values := zscoreAnomalies(series, 2)
	if len(indices) != 1 || indices[0] != 7 {
		t.Fatalf("expected single anomaly at index 7, got %v", indices)
	}
	if len(values) != 1 || values[0] != 100 {
		t.Fatalf("expected anomaly value 100, got %v", values)
	}
}

func TestZscoreAnomalies_NoVariance(t *testing.T) {
	indices, values := zscoreAnomalies([]float64{5, 5, 5, 5}, 3)
	if indices != nil || values != nil {
		t.Fatal("expected no anomalies when stddev is zero")
	}
}

func TestPercentile(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if p := percentile(xs, 50); !approxEqual(p, 5.5, 0.0001) {
		t.Fatalf("expected median 5.5, got %f", p)
	}
	if p := percentile(xs, 0); p != 1 {
		t.Fatalf("expected min 1, got %f", p)
	}
	if p := percentile(xs, 100); p != 10 {
		t.Fatalf("expected max 10, got %f", p)
	}
}

func TestColumnStats(t *testing.T) {
	stats := columnStats([]float64{1, 2, 3, 4, 5})
	if stats.Count != 5 {
		t.Fatalf("expected count 5, got %d", stats.Count)
	}
	if !approxEqual(stats.Mean, 3.0, 0.0001) {
		t.Fatalf("expected mean 3.0, got %f", stats.Mean)
	}
	if stats.Min != 1 || stats.Max != 5 {
		t.Fatalf("expected min/max 1/5, got %f/%f", stats.Min, stats.Max)
	}
}

func TestMonteCarlo_ProducesRequestedCountAndCapsAt10000(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	out := monteCarlo(rng, 100, 10, 12000)
	if len(out) != 10000 {
		t.Fatalf("expected cap of 10000, got %d", len(out))
	}
}

func TestMonteCarlo_DefaultsTo1000WhenNonPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	out := monteCarlo(rng, 100, 10, 0)
	if len(out) != 1000 {
		t.Fatalf("expected default 1000, got %d", len(out))
	}
}
