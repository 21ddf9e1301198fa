// Package engine runs the fixed per-tick PBD pipeline over the particle
// state: predict, grid rebuild, fluid and contact corrections, the host
// distance solve, velocity reconstruction, vorticity and viscosity.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/grid"
	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/solver"
	"github.com/pthm-cable/pbd/sph"
	"github.com/pthm-cable/pbd/telemetry"
)

// ErrEngineFailed is returned by Step once an executor failure has left the
// engine in an undefined state. The engine must be rebuilt.
var ErrEngineFailed = errors.New("engine failed")

// Engine owns the particle state, the grid and the solvers.
type Engine struct {
	cfg  *config.Config
	exec compute.Executor
	n    int

	dt        float32
	gravity   mgl32.Vec3
	clamp     bool
	boundsMin mgl32.Vec3
	boundsMax mgl32.Vec3

	state    *particles.State
	grid     *grid.Grid
	kernels  sph.Kernels
	fluid    *solver.Fluid
	contact  *solver.Contact
	distance *solver.DistanceSet
	vort     *solver.Vorticity

	iterations int
	stiffness  float32

	// Per-tick scratch, zeroed at the start of every step
	corr []float32
	dvel []float32

	perf   *telemetry.PerfCollector
	tick   int
	failed error
}

// New builds an engine for cfg.Particles.Count particles. All configuration
// problems are reported here as *config.ConfigurationError.
func New(cfg *config.Config, exec compute.Executor) (*Engine, error) {
	c := cfg.Clone()
	c.ComputeDerived()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	n := c.Particles.Count
	h := c.Derived.H32
	if c.Derived.ContactDist > h {
		return nil, fmt.Errorf("creating engine: %w", &config.ConfigurationError{
			Field:  "particles.radius",
			Reason: fmt.Sprintf("contact distance %g exceeds interaction radius %g", c.Derived.ContactDist, h),
		})
	}
	g, err := grid.New(c.Grid, h, n)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	kernels := sph.New(h)
	radius := float32(c.Particles.Radius)
	e := &Engine{
		cfg:        c,
		exec:       exec,
		n:          n,
		dt:         c.Derived.DT32,
		gravity:    mgl32.Vec3(c.Derived.Gravity32),
		clamp:      c.Physics.ClampBounds,
		boundsMin:  mgl32.Vec3(c.Derived.WorldMin).Add(mgl32.Vec3{radius, radius, radius}),
		boundsMax:  mgl32.Vec3(c.Derived.WorldMax).Sub(mgl32.Vec3{radius, radius, radius}),
		state:      particles.New(n),
		grid:       g,
		kernels:    kernels,
		fluid:      solver.NewFluid(solver.FluidParamsFromConfig(c.Fluid, c.Particles.Mass), kernels, g, n),
		contact:    solver.NewContact(g, c.Derived.ContactDist, n),
		distance:   solver.NewDistanceSet(n),
		vort:       solver.NewVorticity(kernels, float32(c.Fluid.Vorticity), float32(c.Fluid.Viscosity), g, n),
		iterations: c.Distance.Iterations,
		stiffness:  float32(c.Distance.Stiffness),
		corr:       make([]float32, 3*n),
		dvel:       make([]float32, 3*n),
		perf:       telemetry.NewPerfCollector(c.Telemetry.PerfCollectorWindow, exec.Name()),
	}

	slog.Info("engine created",
		"particles", n,
		"cells", g.CellCount(),
		"backend", exec.Name(),
		"h", h,
		"dt", e.dt,
		"rest_density", c.Fluid.RestDensity,
	)
	return e, nil
}

// Len returns the particle count.
func (e *Engine) Len() int { return e.n }

// Config returns the engine's copy of the configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Tick returns the number of completed steps.
func (e *Engine) Tick() int { return e.tick }

// Perf returns the per-stage timing collector.
func (e *Engine) Perf() *telemetry.PerfCollector { return e.perf }

// SetParticle sets a particle's initial state. Changes reach the device at
// the start of the next step.
func (e *Engine) SetParticle(id int, pos, vel mgl32.Vec3, phase particles.Phase) error {
	return e.state.SetParticle(id, pos, vel, phase)
}

// SetInverseMass overrides the inverse mass of a movable particle.
func (e *Engine) SetInverseMass(id int, w float32) error {
	return e.state.SetInverseMass(id, w)
}

// Position returns the committed host position of particle id.
func (e *Engine) Position(id int) mgl32.Vec3 { return e.state.Position(id) }

// Velocity returns the committed host velocity of particle id.
func (e *Engine) Velocity(id int) mgl32.Vec3 { return e.state.Velocity(id) }

// Phase returns the phase of particle id.
func (e *Engine) Phase(id int) particles.Phase { return e.state.Host.Phase[id] }

// AddDistanceConstraint joins a and b at their current distance.
func (e *Engine) AddDistanceConstraint(a, b int) error {
	return e.distance.AddFromPositions(e.state.Host.Pos, a, b)
}

// AddDistanceConstraintRest joins a and b at an explicit rest length.
func (e *Engine) AddDistanceConstraintRest(a, b int, rest float32) error {
	return e.distance.Add(a, b, rest)
}

// DistanceConstraints returns the number of registered distance constraints.
func (e *Engine) DistanceConstraints() int { return e.distance.Len() }

// Constraints returns the registered distance constraints. The slice is
// owned by the engine.
func (e *Engine) Constraints() []solver.DistanceConstraint { return e.distance.Constraints() }

// Backend returns the executor name.
func (e *Engine) Backend() string { return e.exec.Name() }

// SetTick overrides the completed step count, used when resuming from a
// snapshot.
func (e *Engine) SetTick(tick int) { e.tick = tick }

// Step advances the simulation by one tick. shift is a uniform displacement
// along x applied to every non-static particle after velocity
// reconstruction, so it does not show up as velocity.
func (e *Engine) Step(shift float32) error {
	if e.failed != nil {
		return fmt.Errorf("%w: %v", ErrEngineFailed, e.failed)
	}

	p := e.perf
	p.StartTick()
	defer p.EndTick()

	dev := &e.state.Device

	p.StartPhase(telemetry.StagePush)
	e.state.PushDirty()
	if err := e.dispatch(telemetry.StagePush, 3*e.n, clearKernel{a: e.corr, b: e.dvel}); err != nil {
		return err
	}

	p.StartPhase(telemetry.StagePredict)
	if err := e.dispatch(telemetry.StagePredict, e.n, predictKernel{
		pos: dev.Pos, vel: dev.Vel, est: dev.Est, phase: dev.Phase,
		gravity: e.gravity, dt: e.dt,
	}); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageGrid)
	if err := e.solve(telemetry.StageGrid, e.grid.Rebuild(e.exec, dev.Est)); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageDensity)
	if err := e.solve(telemetry.StageDensity, e.fluid.ComputeDensityLambda(e.exec, dev)); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageFluid)
	if err := e.solve(telemetry.StageFluid, e.fluid.ComputeCorrection(e.exec, dev, e.corr)); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageContact)
	if err := e.solve(telemetry.StageContact, e.contact.ComputeCorrection(e.exec, dev, e.corr)); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageApply)
	if err := e.dispatch(telemetry.StageApply, e.n, applyCorrectionKernel{
		est: dev.Est, corr: e.corr, phase: dev.Phase,
		clamp: e.clamp, min: e.boundsMin, max: e.boundsMax,
	}); err != nil {
		return err
	}

	// Synchronous round-trip: the host solve sees this tick's corrected
	// estimates and the device sees its result before velocity reconstruction.
	p.StartPhase(telemetry.StageDistance)
	e.state.PullEst()
	p.CountItems(telemetry.StageDistance, e.iterations*e.distance.Len())
	e.distance.Solve(e.state.Host.Est, e.state.Host.InvMass, e.iterations, e.stiffness)
	e.state.PushEst()

	p.StartPhase(telemetry.StageCommit)
	if err := e.dispatch(telemetry.StageCommit, e.n, commitKernel{
		pos: dev.Pos, vel: dev.Vel, est: dev.Est, phase: dev.Phase,
		invDT: 1 / e.dt, shift: shift,
	}); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageVorticity)
	if err := e.solve(telemetry.StageVorticity, e.vort.ComputeCurl(e.exec, dev)); err != nil {
		return err
	}
	if err := e.solve(telemetry.StageVorticity, e.vort.ComputeCorrection(e.exec, dev, e.dvel, e.dt)); err != nil {
		return err
	}

	p.StartPhase(telemetry.StageVelocity)
	blas32.Axpy(1,
		blas32.Vector{N: len(e.dvel), Inc: 1, Data: e.dvel},
		blas32.Vector{N: len(dev.Vel), Inc: 1, Data: dev.Vel},
	)

	p.StartPhase(telemetry.StageReadback)
	e.state.PullPosVel()

	e.tick++
	return nil
}

func (e *Engine) dispatch(stage string, n int, k compute.Kernel) error {
	e.perf.CountItems(stage, n)
	return e.check(stage, e.exec.Dispatch(n, k))
}

// solve records a per-particle solver pass run by stage.
func (e *Engine) solve(stage string, err error) error {
	e.perf.CountItems(stage, e.n)
	return e.check(stage, err)
}

// check latches the first failure; later steps refuse to run.
func (e *Engine) check(stage string, err error) error {
	if err == nil {
		return nil
	}
	e.failed = err
	slog.Error("step failed", "tick", e.tick, "stage", stage, "backend", e.exec.Name(), "error", err)
	return fmt.Errorf("%w: stage %s: %w", ErrEngineFailed, stage, err)
}
