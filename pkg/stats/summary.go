// Package stats computes the summary statistics rendered in performance
// reports: percentile aggregates over metric samples, pass/fail rates for
// binary metrics, and threshold verdicts.
package stats

import (
	"math"
	"sort"
)

// Summary holds the aggregate statistics for one series of metric samples.
// A zero Summary (Count == 0) is the well-defined result for an empty or
// entirely malformed input series.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"std_dev"`
}

// Compute calculates a Summary over the given samples.
// The input slice is not modified; an empty input yields a zero Summary.
func Compute(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sqDiff float64
	for _, v := range sorted {
		d := v - mean
		sqDiff += d * d
	}

	return Summary{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: Percentile(sorted, 50),
		P75:    Percentile(sorted, 75),
		P90:    Percentile(sorted, 90),
		P95:    Percentile(sorted, 95),
		P99:    Percentile(sorted, 99),
		StdDev: math.Sqrt(sqDiff / float64(len(sorted))),
	}
}

// Percentile returns the p-th percentile of an already sorted slice using
// linear interpolation between closest ranks, matching k6's own summary
// output. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Rate holds the aggregate of a 0/1 rate metric such as checks or
// http_req_failed.
type Rate struct {
	Passes int64   `json:"passes"`
	Fails  int64   `json:"fails"`
	Value  float64 `json:"value"` // fraction of non-zero samples, 0.0-1.0
}

// ComputeRate aggregates a k6 rate metric. k6 emits rate samples as 0 or 1;
// any non-zero sample counts toward the rate.
func ComputeRate(values []float64) Rate {
	var r Rate
	for _, v := range values {
		if v != 0 {
			r.Passes++
		} else {
			r.Fails++
		}
	}
	if total := r.Passes + r.Fails; total > 0 {
		r.Value = float64(r.Passes) / float64(total)
	}
	return r
}

// Total returns the number of samples behind the rate
func (r Rate) Total() int64 {
	return r.Passes + r.Fails
}

// Percent returns the rate as a percentage
func (r Rate) Percent() float64 {
	return r.Value * 100
}
