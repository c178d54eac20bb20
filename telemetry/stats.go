package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ScoreStats summarises a set of challenge scores.
type ScoreStats struct {
	Count  int
	Mean   float64
	StdDev float64
	P10    float64
	P50    float64
	P90    float64
}

// SummarizeScores computes mean, spread and empirical percentiles.
// Returns the zero value for an empty slice.
func SummarizeScores(scores []float64) ScoreStats {
	n := len(scores)
	if n == 0 {
		return ScoreStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	s := ScoreStats{
		Count: n,
		Mean:  stat.Mean(sorted, nil),
		P10:   stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:   stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
	if n > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s ScoreStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.StdDev),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
	)
}
