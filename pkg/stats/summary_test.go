package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{
			name:   "empty input yields zero summary",
			values: nil,
			want:   Summary{},
		},
		{
			name:   "single value",
			values: []float64{42},
			want: Summary{
				Count: 1, Min: 42, Max: 42, Mean: 42,
				Median: 42, P75: 42, P90: 42, P95: 42, P99: 42,
			},
		},
		{
			name:   "unsorted input",
			values: []float64{30, 10, 20},
			want: Summary{
				Count: 3, Min: 10, Max: 30, Mean: 20,
				Median: 20, P75: 25, P90: 28, P95: 29, P99: 29.6,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.values)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.Min, got.Min, 0.001)
			assert.InDelta(t, tt.want.Max, got.Max, 0.001)
			assert.InDelta(t, tt.want.Mean, got.Mean, 0.001)
			assert.InDelta(t, tt.want.Median, got.Median, 0.001)
			assert.InDelta(t, tt.want.P75, got.P75, 0.001)
			assert.InDelta(t, tt.want.P90, got.P90, 0.001)
			assert.InDelta(t, tt.want.P95, got.P95, 0.001)
			assert.InDelta(t, tt.want.P99, got.P99, 0.001)
		})
	}
}

func TestComputeDoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Compute(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestComputeStdDev(t *testing.T) {
	// Population stddev of {2,4,4,4,5,5,7,9} is exactly 2
	got := Compute([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.0, got.StdDev, 0.001)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{100, 200, 300, 400, 500}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"p0 is min", 0, 100},
		{"p100 is max", 100, 500},
		{"p50 interpolates to middle", 50, 300},
		{"p90 interpolates", 90, 460},
		{"negative clamps to min", -5, 100},
		{"over 100 clamps to max", 150, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 0.001)
		})
	}
}

func TestPercentileEmpty(t *testing.T) {
	assert.Zero(t, Percentile(nil, 95))
}

func TestComputeRate(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantPasses int64
		wantFails  int64
		wantValue  float64
	}{
		{"empty", nil, 0, 0, 0},
		{"all ones", []float64{1, 1, 1}, 3, 0, 1.0},
		{"all zeros", []float64{0, 0}, 0, 2, 0},
		{"mixed", []float64{1, 0, 1, 0}, 2, 2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRate(tt.values)
			assert.Equal(t, tt.wantPasses, got.Passes)
			assert.Equal(t, tt.wantFails, got.Fails)
			assert.InDelta(t, tt.wantValue, got.Value, 0.001)
		})
	}
}

func TestThresholdsEvaluate(t *testing.T) {
	thresholds := Thresholds{P95Ms: 1000, ErrorRate: 0.01}

	t.Run("passing run", func(t *testing.T) {
		duration := Compute([]float64{100, 200, 300})
		failed := ComputeRate([]float64{0, 0, 0})

		verdict := thresholds.Evaluate(duration, failed)
		assert.True(t, verdict.Passed)
		assert.Empty(t, verdict.Reasons)
	})

	t.Run("p95 over bound fails", func(t *testing.T) {
		duration := Compute([]float64{2000, 2100, 2200})
		failed := ComputeRate([]float64{0, 0, 0})

		verdict := thresholds.Evaluate(duration, failed)
		require.False(t, verdict.Passed)
		assert.Len(t, verdict.Reasons, 1)
		assert.Contains(t, verdict.Reasons[0], "p95")
	})

	t.Run("error rate over bound fails", func(t *testing.T) {
		duration := Compute([]float64{100, 100, 100, 100})
		failed := ComputeRate([]float64{1, 0, 0, 0}) // 25% failures

		verdict := thresholds.Evaluate(duration, failed)
		require.False(t, verdict.Passed)
		assert.Contains(t, verdict.Reasons[0], "error rate")
	})

	t.Run("no samples fails", func(t *testing.T) {
		verdict := thresholds.Evaluate(Summary{}, Rate{})
		require.False(t, verdict.Passed)
		assert.Contains(t, verdict.Reasons[0], "no duration samples")
	})

	t.Run("zero p95 bound disables duration check", func(t *testing.T) {
		open := Thresholds{P95Ms: 0, ErrorRate: 1.0}
		duration := Compute([]float64{99999})
		verdict := open.Evaluate(duration, Rate{})
		assert.True(t, verdict.Passed)
	})
}
