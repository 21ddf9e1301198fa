package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/particles"
)

// ErrDegenerateGeometry is returned for constraints between coincident
// particles; the solve divides by the current distance.
var ErrDegenerateGeometry = errors.New("degenerate distance constraint")

// minRestLength is the shortest accepted rest length.
const minRestLength = 1e-6

// DistanceConstraint keeps two particles at a fixed rest length.
type DistanceConstraint struct {
	A, B int
	Rest float32
}

// DistanceSet is the host-resident constraint list. It is built once during
// setup and solved sequentially, in list order, every tick.
type DistanceSet struct {
	n           int
	constraints []DistanceConstraint
}

// NewDistanceSet creates an empty set for particle ids in [0,n).
func NewDistanceSet(n int) *DistanceSet {
	return &DistanceSet{n: n}
}

// Add registers a constraint with a precomputed rest length.
func (s *DistanceSet) Add(a, b int, rest float32) error {
	if a < 0 || a >= s.n || b < 0 || b >= s.n {
		return fmt.Errorf("constraint (%d,%d): %w", a, b, particles.ErrIndexOutOfRange)
	}
	if a == b {
		return fmt.Errorf("constraint (%d,%d) joins a particle to itself: %w", a, b, ErrDegenerateGeometry)
	}
	if !(rest >= minRestLength) {
		return fmt.Errorf("constraint (%d,%d) rest length %g: %w", a, b, rest, ErrDegenerateGeometry)
	}
	s.constraints = append(s.constraints, DistanceConstraint{A: a, B: b, Rest: rest})
	return nil
}

// AddFromPositions registers a constraint whose rest length is the current
// distance between a and b in pos.
func (s *DistanceSet) AddFromPositions(pos []float32, a, b int) error {
	if a < 0 || a >= s.n || b < 0 || b >= s.n {
		return fmt.Errorf("constraint (%d,%d): %w", a, b, particles.ErrIndexOutOfRange)
	}
	rest := particles.Vec(pos, a).Sub(particles.Vec(pos, b)).Len()
	return s.Add(a, b, rest)
}

// Len returns the number of constraints.
func (s *DistanceSet) Len() int { return len(s.constraints) }

// Constraints returns the constraint list. Callers must not modify it.
func (s *DistanceSet) Constraints() []DistanceConstraint { return s.constraints }

// SubstepStiffness converts stiffness k for one application into the per-pass
// value that gives the same net correction after iters passes.
func SubstepStiffness(k float32, iters int) float32 {
	if iters <= 1 || k <= 0 || k >= 1 {
		return clampUnit(k)
	}
	return float32(1 - math.Pow(1-float64(k), 1/float64(iters)))
}

func clampUnit(k float32) float32 {
	if k < 0 {
		return 0
	}
	if k > 1 {
		return 1
	}
	return k
}

// Solve runs iters Gauss-Seidel passes over the list at the converted
// stiffness. Each correction is applied before the next constraint is read.
func (s *DistanceSet) Solve(est, invMass []float32, iters int, k float32) {
	kp := SubstepStiffness(k, iters)
	for it := 0; it < iters; it++ {
		s.Pass(est, invMass, kp)
	}
}

// Pass applies every constraint once with per-pass stiffness kp.
func (s *DistanceSet) Pass(est, invMass []float32, kp float32) {
	for _, c := range s.constraints {
		w1, w2 := invMass[c.A], invMass[c.B]
		wsum := w1 + w2
		if wsum == 0 {
			continue
		}
		p1 := particles.Vec(est, c.A)
		p2 := particles.Vec(est, c.B)
		d := p1.Sub(p2)
		dist := d.Len()
		if dist < minRestLength {
			continue
		}
		n := d.Mul(1 / dist)
		delta := (dist - c.Rest) * kp / wsum
		particles.AddVec(est, c.A, n.Mul(-w1*delta))
		particles.AddVec(est, c.B, n.Mul(w2*delta))
	}
}

// MaxError returns the largest |distance - rest| over all constraints.
func (s *DistanceSet) MaxError(pos []float32) float32 {
	var worst float32
	for _, c := range s.constraints {
		d := particles.Vec(pos, c.A).Sub(particles.Vec(pos, c.B)).Len()
		e := mgl32.Abs(d - c.Rest)
		if e > worst {
			worst = e
		}
	}
	return worst
}
