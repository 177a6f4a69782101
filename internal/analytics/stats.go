package analytics

import (
	"math"
	"math/rand"
	"sort"
)

// movingAverageForecast projects horizon future points from series
// using a trailing 7-period moving average, per spec.md §4.8's base
// model. Each projected point folds into the window used for the next,
// so a multi-point horizon gradually flattens toward the recent mean.
func movingAverageForecast(series []float64, horizon int) []float64 {
	const window = 7
	if len(series) == 0 || horizon <= 0 {
		return nil
	}

	working := append([]float64(nil), series...)
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		start := len(working) - window
		if start < 0 {
			start = 0
		}
		avg := mean(working[start:])
		out[i] = avg
		working = append(working, avg)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

// pearson computes the Pearson product-moment correlation coefficient
// between two equal-length numeric series.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	ma, mb := mean(a), mean(b)
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
	return cov / math.Sqrt(va*vb)
}

// zscoreAnomalies returns the indices of values whose absolute z-score
// exceeds threshold, along with the flagged values themselves.
func zscoreAnomalies(xs []float64, threshold float64) (indices []int, values []float64) {
	if len(xs) < 2 {
		return nil, nil
	}
	m, sd := mean(xs), stddev(xs)
	if sd == 0 {
		return nil, nil
	}
	for i, x := range xs {
		z := math.Abs((x - m) / sd)
		if z > threshold {
			indices = append(indices, i)
			values = append(values, x)
		}
	}
	return indices, values
}

// percentile computes the p-th percentile (0-100) of xs using linear
// interpolation between closest ranks; xs is sorted in place on a copy.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// columnStats computes the summary recipe's per-column statistics.
func columnStats(xs []float64) ColumnStats {
	return ColumnStats{
		Count: len(xs),
		Mean:  mean(xs),
		Std:   stddev(xs),
		Min:   minOf(xs),
		P25:   percentile(xs, 25),
		P50:   percentile(xs, 50),
		P75:   percentile(xs, 75),
		Max:   maxOf(xs),
	}
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// monteCarlo runs iterations draws of baseline perturbed by changePct
// (mean) with stddev |changePct|/300, per spec.md §4.8's simulation
// recipe, returning the full distribution. rng is injected so tests can
// seed it deterministically.
func monteCarlo(rng *rand.Rand, baseline, changePct float64, iterations int) []float64 {
	if iterations <= 0 {
		iterations = 1000
	}
	if iterations > 10000 {
		iterations = 10000
	}
	sd := math.Abs(changePct) / 300
	out := make([]float64, iterations)
	for i := 0; i < iterations; i++ {
		draw := rng.NormFloat64()*sd + changePct/100
		out[i] = baseline * (1 + draw)
	}
	return out
}
