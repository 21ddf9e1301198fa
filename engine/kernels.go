package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/particles"
)

type clearKernel struct {
	a, b []float32
}

func (k clearKernel) Run(start, end int) {
	clear(k.a[start:end])
	clear(k.b[start:end])
}

// predictKernel integrates gravity and writes the estimate. Static
// particles only copy their position.
type predictKernel struct {
	pos, vel, est []float32
	phase         []particles.Phase
	gravity       mgl32.Vec3
	dt            float32
}

func (k predictKernel) Run(start, end int) {
	for i := start; i < end; i++ {
		p := particles.Vec(k.pos, i)
		if !k.phase[i].IsMovable() {
			particles.SetVec(k.est, i, p)
			continue
		}
		v := particles.Vec(k.vel, i).Add(k.gravity.Mul(k.dt))
		particles.SetVec(k.vel, i, v)
		particles.SetVec(k.est, i, p.Add(v.Mul(k.dt)))
	}
}

// applyCorrectionKernel consumes the correction accumulator.
type applyCorrectionKernel struct {
	est, corr []float32
	phase     []particles.Phase
	clamp     bool
	min, max  mgl32.Vec3
}

func (k applyCorrectionKernel) Run(start, end int) {
	for i := start; i < end; i++ {
		if !k.phase[i].IsMovable() {
			continue
		}
		p := particles.Vec(k.est, i).Add(particles.Vec(k.corr, i))
		if k.clamp {
			for axis := 0; axis < 3; axis++ {
				p[axis] = mgl32.Clamp(p[axis], k.min[axis], k.max[axis])
			}
		}
		particles.SetVec(k.est, i, p)
	}
}

// commitKernel reconstructs velocity from the position change, commits the
// estimate and applies the world shift.
type commitKernel struct {
	pos, vel, est []float32
	phase         []particles.Phase
	invDT         float32
	shift         float32
}

func (k commitKernel) Run(start, end int) {
	for i := start; i < end; i++ {
		if !k.phase[i].IsMovable() {
			continue
		}
		est := particles.Vec(k.est, i)
		particles.SetVec(k.vel, i, est.Sub(particles.Vec(k.pos, i)).Mul(k.invDT))
		est[0] += k.shift
		particles.SetVec(k.pos, i, est)
	}
}
