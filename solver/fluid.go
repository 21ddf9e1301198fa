// Package solver contains the constraint and velocity solvers run by the
// engine each tick: density constraints for liquids, contact constraints for
// solids, host-side distance constraints, and vorticity/viscosity smoothing.
//
// Parallel solvers are written in gather form: each work item computes and
// writes only its own particle's correction, so results never depend on the
// order in which items run.
package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/grid"
	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/sph"
)

// FluidParams are the Position-Based Fluids constants.
type FluidParams struct {
	RestDensity  float32
	Mass         float32
	Relaxation   float32
	TensileK     float32
	TensileN     float32
	TensileDQ    float32
	ClampDensity bool
}

// FluidParamsFromConfig converts the YAML config section.
func FluidParamsFromConfig(cfg config.FluidConfig, mass float64) FluidParams {
	return FluidParams{
		RestDensity:  float32(cfg.RestDensity),
		Mass:         float32(mass),
		Relaxation:   float32(cfg.Relaxation),
		TensileK:     float32(cfg.TensileK),
		TensileN:     float32(cfg.TensileN),
		TensileDQ:    float32(cfg.TensileDQ),
		ClampDensity: cfg.ClampDensity,
	}
}

// Fluid computes density, lambda and the density correction for liquid
// particles. Density and Lambda are overwritten for every particle each
// tick; non-liquid particles get zero lambda.
type Fluid struct {
	Params  FluidParams
	Kernels sph.Kernels

	grid    *grid.Grid
	wq      float32 // poly6 at the tensile reference distance
	Density []float32
	Lambda  []float32
}

// NewFluid creates a fluid solver for n particles.
func NewFluid(params FluidParams, kernels sph.Kernels, g *grid.Grid, n int) *Fluid {
	return &Fluid{
		Params:  params,
		Kernels: kernels,
		grid:    g,
		wq:      kernels.WDist(params.TensileDQ * kernels.H),
		Density: make([]float32, n),
		Lambda:  make([]float32, n),
	}
}

// ComputeDensityLambda evaluates density at every particle and the Lagrange
// multiplier at every liquid particle.
func (f *Fluid) ComputeDensityLambda(exec compute.Executor, dev *particles.Arrays) error {
	return exec.Dispatch(len(f.Density), densityLambdaKernel{f: f, est: dev.Est, phase: dev.Phase})
}

// ComputeCorrection adds the density correction of every liquid particle to corr.
func (f *Fluid) ComputeCorrection(exec compute.Executor, dev *particles.Arrays, corr []float32) error {
	return exec.Dispatch(len(f.Density), fluidCorrectionKernel{f: f, est: dev.Est, phase: dev.Phase, corr: corr})
}

// DensityError returns rho_i/rho0 - 1 for particle i from the last evaluation.
func (f *Fluid) DensityError(i int) float32 {
	return f.Density[i]/f.Params.RestDensity - 1
}

type densityLambdaKernel struct {
	f     *Fluid
	est   []float32
	phase []particles.Phase
}

func (k densityLambdaKernel) Run(start, end int) {
	f := k.f
	p := &f.Params
	scale := p.Mass / p.RestDensity
	for i := start; i < end; i++ {
		var rho, sumSq float32
		var gradI mgl32.Vec3
		f.grid.ForEachNeighbor(i, k.est, func(j int, d mgl32.Vec3, r2 float32) {
			rho += p.Mass * f.Kernels.W(r2)
			if j == i {
				return
			}
			g := f.Kernels.GradSpiky(d).Mul(scale)
			gradI = gradI.Add(g)
			sumSq += g.Dot(g)
		})
		f.Density[i] = rho

		if !k.phase[i].IsLiquid() {
			f.Lambda[i] = 0
			continue
		}
		c := rho/p.RestDensity - 1
		if p.ClampDensity && c < 0 {
			c = 0
		}
		sumSq += gradI.Dot(gradI)
		f.Lambda[i] = -c / (sumSq + p.Relaxation)
	}
}

type fluidCorrectionKernel struct {
	f     *Fluid
	est   []float32
	phase []particles.Phase
	corr  []float32
}

func (k fluidCorrectionKernel) Run(start, end int) {
	f := k.f
	p := &f.Params
	invRho := 1 / p.RestDensity
	tensile := p.TensileK != 0 && f.wq > 0
	n := float64(p.TensileN)
	for i := start; i < end; i++ {
		if !k.phase[i].IsLiquid() {
			continue
		}
		li := f.Lambda[i]
		var dp mgl32.Vec3
		f.grid.ForEachNeighbor(i, k.est, func(j int, d mgl32.Vec3, r2 float32) {
			if j == i {
				return
			}
			var scorr float32
			if tensile {
				ratio := float64(f.Kernels.W(r2) / f.wq)
				scorr = -p.TensileK * float32(math.Pow(ratio, n))
			}
			dp = dp.Add(f.Kernels.GradSpiky(d).Mul(li + f.Lambda[j] + scorr))
		})
		particles.AddVec(k.corr, i, dp.Mul(invRho*p.Mass))
	}
}
