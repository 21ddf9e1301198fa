// Package telemetry provides per-stage timing, windowed simulation
// statistics, bookmarks for unusual windows, CSV output and JSON snapshots.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is one tick's worth of simulation measurements.
type Sample struct {
	Tick            int
	MaxDensityError float64
	MeanDensity     float64
	MaxSpeed        float64
	ConstraintError float64
}

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Liquids    int `csv:"liquids"`
	Solids     int `csv:"solids"`
	Statics    int `csv:"statics"`
	Conveyors  int `csv:"conveyors"`
	Constraint int `csv:"constraints"`

	// Per-tick maxima over the window
	DensityErrMean float64 `csv:"density_err_mean"`
	DensityErrStd  float64 `csv:"density_err_std"`
	DensityErrMax  float64 `csv:"density_err_max"`
	MaxSpeed       float64 `csv:"max_speed"`
	ConstraintErr  float64 `csv:"constraint_err"`
	MeanDensity    float64 `csv:"mean_density"`

	// Per-particle density error distribution at window end
	DensityErrP50 float64 `csv:"density_err_p50"`
	DensityErrP90 float64 `csv:"density_err_p90"`
	DensityErrP99 float64 `csv:"density_err_p99"`
}

// Percentile returns the p-th quantile of sorted, p in [0,1], using the
// empirical CDF. It returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// DistributionStats returns mean and p50/p90/p99 of values. values is not
// modified.
func DistributionStats(values []float64) (mean, p50, p90, p99 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Mean(sorted, nil), Percentile(sorted, 0.50), Percentile(sorted, 0.90), Percentile(sorted, 0.99)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("liquids", s.Liquids),
		slog.Int("solids", s.Solids),
		slog.Int("statics", s.Statics),
		slog.Float64("density_err_mean", s.DensityErrMean),
		slog.Float64("density_err_std", s.DensityErrStd),
		slog.Float64("density_err_max", s.DensityErrMax),
		slog.Float64("density_err_p90", s.DensityErrP90),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("constraint_err", s.ConstraintErr),
		slog.Float64("mean_density", s.MeanDensity),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"liquids", s.Liquids,
		"density_err_mean", s.DensityErrMean,
		"density_err_max", s.DensityErrMax,
		"density_err_p90", s.DensityErrP90,
		"max_speed", s.MaxSpeed,
		"constraint_err", s.ConstraintErr,
	)
}
