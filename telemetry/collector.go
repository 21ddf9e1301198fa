package telemetry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Counts are the particle and body totals reported with each window.
type Counts struct {
	Liquids     int
	Solids      int
	Statics     int
	Conveyors   int
	Constraints int
}

// Collector accumulates per-tick samples within a window and produces
// WindowStats.
type Collector struct {
	windowTicks int32
	dt          float32

	windowStartTick int32
	densityErr      []float64
	meanDensity     []float64
	maxSpeed        float64
	constraintErr   float64
}

// NewCollector creates a collector flushing every windowTicks ticks.
// dt converts ticks to simulated seconds.
func NewCollector(windowTicks int, dt float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: int32(windowTicks),
		dt:          dt,
		densityErr:  make([]float64, 0, windowTicks),
		meanDensity: make([]float64, 0, windowTicks),
	}
}

// Record adds one tick's sample to the current window.
func (c *Collector) Record(s Sample) {
	c.densityErr = append(c.densityErr, s.MaxDensityError)
	c.meanDensity = append(c.meanDensity, s.MeanDensity)
	c.maxSpeed = max(c.maxSpeed, s.MaxSpeed)
	c.constraintErr = max(c.constraintErr, s.ConstraintError)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 { return c.windowTicks }

// Flush produces a WindowStats and resets the window. particleErrors are the
// per-particle density errors at the current tick, used for percentiles.
func (c *Collector) Flush(currentTick int32, counts Counts, particleErrors []float64) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Liquids:    counts.Liquids,
		Solids:     counts.Solids,
		Statics:    counts.Statics,
		Conveyors:  counts.Conveyors,
		Constraint: counts.Constraints,

		MaxSpeed:      c.maxSpeed,
		ConstraintErr: c.constraintErr,
	}

	if len(c.densityErr) > 0 {
		stats.DensityErrMean, stats.DensityErrStd = stat.MeanStdDev(c.densityErr, nil)
		if len(c.densityErr) == 1 {
			stats.DensityErrStd = 0
		}
		stats.DensityErrMax = floats.Max(c.densityErr)
		stats.MeanDensity = stat.Mean(c.meanDensity, nil)
	}
	_, stats.DensityErrP50, stats.DensityErrP90, stats.DensityErrP99 = DistributionStats(particleErrors)

	c.windowStartTick = currentTick
	c.densityErr = c.densityErr[:0]
	c.meanDensity = c.meanDensity[:0]
	c.maxSpeed = 0
	c.constraintErr = 0

	return stats
}

// StartAt begins the current window at tick, used when resuming a run.
func (c *Collector) StartAt(tick int32) { c.windowStartTick = tick }
