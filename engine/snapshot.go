package engine

import (
	"math"

	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/telemetry"
)

// Snapshot is a copy of the committed particle state. Valid is false until
// the first step has completed.
type Snapshot struct {
	Tick       int
	Valid      bool
	Positions  []float32
	Velocities []float32
	Phases     []particles.Phase
}

// Snapshot copies the host state. It is consistent only between steps.
func (e *Engine) Snapshot() Snapshot {
	h := &e.state.Host
	return Snapshot{
		Tick:       e.tick,
		Valid:      e.tick > 0,
		Positions:  append([]float32(nil), h.Pos...),
		Velocities: append([]float32(nil), h.Vel...),
		Phases:     append([]particles.Phase(nil), h.Phase...),
	}
}

// StepStats summarizes the state after the last step.
type StepStats struct {
	Tick            int
	Liquids         int
	MaxDensityError float64 // max |rho/rho0 - 1| over liquid particles
	MeanDensity     float64 // mean liquid density
	MaxSpeed        float64
	ConstraintError float64 // max |d - rest| over distance constraints
}

// Stats computes StepStats from the last step's density and the host state.
func (e *Engine) Stats() StepStats {
	s := StepStats{Tick: e.tick}
	h := &e.state.Host

	var densitySum float64
	for i := 0; i < e.n; i++ {
		if sp := float64(particles.Vec(h.Vel, i).Len()); sp > s.MaxSpeed {
			s.MaxSpeed = sp
		}
		if !h.Phase[i].IsLiquid() {
			continue
		}
		s.Liquids++
		densitySum += float64(e.fluid.Density[i])
		if de := math.Abs(float64(e.fluid.DensityError(i))); de > s.MaxDensityError {
			s.MaxDensityError = de
		}
	}
	if s.Liquids > 0 {
		s.MeanDensity = densitySum / float64(s.Liquids)
	}
	s.ConstraintError = float64(e.distance.MaxError(h.Pos))
	return s
}

// Sample converts the stats into a telemetry sample.
func (s StepStats) Sample() telemetry.Sample {
	return telemetry.Sample{
		Tick:            s.Tick,
		MaxDensityError: s.MaxDensityError,
		MeanDensity:     s.MeanDensity,
		MaxSpeed:        s.MaxSpeed,
		ConstraintError: s.ConstraintError,
	}
}

// DensityError returns rho/rho0 - 1 for particle i from the last step, or 0
// if i is not liquid.
func (e *Engine) DensityError(i int) float32 {
	if !e.state.Host.Phase[i].IsLiquid() {
		return 0
	}
	return e.fluid.DensityError(i)
}

// DensityErrors returns |rho/rho0 - 1| for every liquid particle from the
// last step.
func (e *Engine) DensityErrors() []float64 {
	out := make([]float64, 0, e.n)
	for i := 0; i < e.n; i++ {
		if e.state.Host.Phase[i].IsLiquid() {
			out = append(out, math.Abs(float64(e.fluid.DensityError(i))))
		}
	}
	return out
}
