// Package sph provides the smoothing kernels used by the fluid solvers.
package sph

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Kernels holds poly6 and spiky coefficients for a fixed interaction radius.
type Kernels struct {
	H     float32
	H2    float32
	Poly6 float32 // 315 / (64 pi h^9)
	Spiky float32 // -45 / (pi h^6)
}

// New precomputes kernel coefficients for radius h.
func New(h float32) Kernels {
	h64 := float64(h)
	return Kernels{
		H:     h,
		H2:    h * h,
		Poly6: float32(315.0 / (64.0 * math.Pi * math.Pow(h64, 9))),
		Spiky: float32(-45.0 / (math.Pi * math.Pow(h64, 6))),
	}
}

// W evaluates poly6 at squared distance r2.
func (k Kernels) W(r2 float32) float32 {
	if r2 > k.H2 || r2 < 0 {
		return 0
	}
	d := k.H2 - r2
	return k.Poly6 * d * d * d
}

// WDist evaluates poly6 at distance r.
func (k Kernels) WDist(r float32) float32 {
	return k.W(r * r)
}

// GradSpiky is the spiky kernel gradient for the separation d = p_i - p_j.
// It points from p_i towards p_j and vanishes at r = 0 and r >= h.
func (k Kernels) GradSpiky(d mgl32.Vec3) mgl32.Vec3 {
	r2 := d.Dot(d)
	if r2 >= k.H2 || r2 <= 1e-12 {
		return mgl32.Vec3{}
	}
	r := float32(math.Sqrt(float64(r2)))
	s := k.H - r
	return d.Mul(k.Spiky * s * s / r)
}

// LatticeDensity returns the density a particle sees at the centre of an
// infinite cubic lattice with the given spacing. Useful for picking a rest
// density that matches an authored block of liquid.
func (k Kernels) LatticeDensity(spacing, mass float32) float32 {
	if spacing <= 0 {
		return 0
	}
	steps := int(math.Ceil(float64(k.H / spacing)))
	var rho float32
	for x := -steps; x <= steps; x++ {
		for y := -steps; y <= steps; y++ {
			for z := -steps; z <= steps; z++ {
				d := mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(spacing)
				rho += mass * k.W(d.Dot(d))
			}
		}
	}
	return rho
}
