package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/sph"
)

// KernelParams holds the fluid settings the preview edits.
type KernelParams struct {
	Radius    float32 `yaml:"radius"`
	Spacing   float32 `yaml:"-"`
	Mass      float32 `yaml:"-"`
	TensileK  float32 `yaml:"tensile_k"`
	TensileN  float32 `yaml:"tensile_n"`
	TensileDQ float32 `yaml:"tensile_dq"`
}

// ParamsFromConfig reads the initial preview values from cfg.
func ParamsFromConfig(cfg *config.Config) KernelParams {
	return KernelParams{
		Radius:    float32(cfg.Fluid.Radius),
		Spacing:   float32(cfg.Scene.Spacing),
		Mass:      float32(cfg.Particles.Mass),
		TensileK:  float32(cfg.Fluid.TensileK),
		TensileN:  float32(cfg.Fluid.TensileN),
		TensileDQ: float32(cfg.Fluid.TensileDQ),
	}
}

// Curves are kernel profiles sampled over r in [0, h]. Each curve is
// normalized by its own peak so they share one plot.
type Curves struct {
	R        []float32
	Poly6    []float32
	Spiky    []float32 // |grad W_spiky|
	Tensile  []float32 // -s_corr / k
	PeakW    float32
	PeakGrad float32
}

// SampleCurves evaluates the kernels at n evenly spaced radii.
func SampleCurves(p KernelParams, n int) Curves {
	k := sph.New(p.Radius)
	c := Curves{
		R:       make([]float32, n),
		Poly6:   make([]float32, n),
		Spiky:   make([]float32, n),
		Tensile: make([]float32, n),
	}
	wq := k.WDist(p.TensileDQ * p.Radius)
	for i := 0; i < n; i++ {
		r := p.Radius * float32(i) / float32(max(n-1, 1))
		c.R[i] = r
		c.Poly6[i] = k.WDist(r)
		c.Spiky[i] = k.GradSpiky(mgl32.Vec3{r, 0, 0}).Len()
		if wq > 0 {
			c.Tensile[i] = float32(math.Pow(float64(c.Poly6[i]/wq), float64(p.TensileN)))
		}
		c.PeakW = max(c.PeakW, c.Poly6[i])
		c.PeakGrad = max(c.PeakGrad, c.Spiky[i])
	}
	normalize(c.Poly6)
	normalize(c.Spiky)
	normalize(c.Tensile)
	return c
}

func normalize(v []float32) {
	var peak float32
	for _, x := range v {
		peak = max(peak, x)
	}
	if peak == 0 {
		return
	}
	for i := range v {
		v[i] /= peak
	}
}

// RestDensity is the density a particle sees inside a lattice authored at
// the preview spacing.
func RestDensity(p KernelParams) float32 {
	return sph.New(p.Radius).LatticeDensity(p.Spacing, p.Mass)
}

// NeighborCount is the number of lattice neighbors within h, excluding the
// particle itself.
func NeighborCount(p KernelParams) int {
	if p.Spacing <= 0 {
		return 0
	}
	steps := int(math.Ceil(float64(p.Radius / p.Spacing)))
	h2 := p.Radius * p.Radius
	count := 0
	for x := -steps; x <= steps; x++ {
		for y := -steps; y <= steps; y++ {
			for z := -steps; z <= steps; z++ {
				d := mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(p.Spacing)
				if d.Dot(d) <= h2 {
					count++
				}
			}
		}
	}
	return count - 1
}
