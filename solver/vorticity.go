package solver

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/grid"
	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/sph"
)

// Vorticity computes vorticity confinement and XSPH viscosity for liquid
// particles as a velocity correction.
type Vorticity struct {
	Kernels     sph.Kernels
	Confinement float32 // epsilon
	Viscosity   float32 // XSPH c

	grid  *grid.Grid
	Omega []float32 // per-particle curl, 3 floats each
}

// NewVorticity creates the solver for n particles.
func NewVorticity(kernels sph.Kernels, confinement, viscosity float32, g *grid.Grid, n int) *Vorticity {
	return &Vorticity{
		Kernels:     kernels,
		Confinement: confinement,
		Viscosity:   viscosity,
		grid:        g,
		Omega:       make([]float32, 3*n),
	}
}

// ComputeCurl evaluates the vorticity at every particle from the committed
// positions and reconstructed velocities. Non-liquid particles get zero.
func (v *Vorticity) ComputeCurl(exec compute.Executor, dev *particles.Arrays) error {
	return exec.Dispatch(len(v.Omega)/3, curlKernel{v: v, pos: dev.Pos, vel: dev.Vel, phase: dev.Phase})
}

// ComputeCorrection adds confinement (scaled by dt) and XSPH viscosity to dvel.
// ComputeCurl must have completed first.
func (v *Vorticity) ComputeCorrection(exec compute.Executor, dev *particles.Arrays, dvel []float32, dt float32) error {
	return exec.Dispatch(len(v.Omega)/3, confinementKernel{v: v, pos: dev.Pos, vel: dev.Vel, phase: dev.Phase, dvel: dvel, dt: dt})
}

type curlKernel struct {
	v     *Vorticity
	pos   []float32
	vel   []float32
	phase []particles.Phase
}

func (k curlKernel) Run(start, end int) {
	v := k.v
	for i := start; i < end; i++ {
		if !k.phase[i].IsLiquid() {
			particles.SetVec(v.Omega, i, mgl32.Vec3{})
			continue
		}
		vi := particles.Vec(k.vel, i)
		var omega mgl32.Vec3
		v.grid.ForEachNeighbor(i, k.pos, func(j int, d mgl32.Vec3, r2 float32) {
			if j == i || !k.phase[j].IsLiquid() {
				return
			}
			vij := particles.Vec(k.vel, j).Sub(vi)
			omega = omega.Add(v.Kernels.GradSpiky(d).Cross(vij))
		})
		particles.SetVec(v.Omega, i, omega)
	}
}

type confinementKernel struct {
	v     *Vorticity
	pos   []float32
	vel   []float32
	phase []particles.Phase
	dvel  []float32
	dt    float32
}

func (k confinementKernel) Run(start, end int) {
	v := k.v
	for i := start; i < end; i++ {
		if !k.phase[i].IsLiquid() {
			continue
		}
		vi := particles.Vec(k.vel, i)
		omegaI := particles.Vec(v.Omega, i)
		magI := omegaI.Len()

		var eta, visc mgl32.Vec3
		v.grid.ForEachNeighbor(i, k.pos, func(j int, d mgl32.Vec3, r2 float32) {
			if j == i || !k.phase[j].IsLiquid() {
				return
			}
			magJ := particles.Vec(v.Omega, j).Len()
			eta = eta.Add(v.Kernels.GradSpiky(d).Mul(magJ - magI))
			visc = visc.Add(particles.Vec(k.vel, j).Sub(vi).Mul(v.Kernels.W(r2)))
		})

		dv := visc.Mul(v.Viscosity)
		if l := eta.Len(); l > 1e-6 && v.Confinement != 0 {
			force := eta.Mul(1 / l).Cross(omegaI).Mul(v.Confinement)
			dv = dv.Add(force.Mul(k.dt))
		}
		particles.AddVec(k.dvel, i, dv)
	}
}
