package solver

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/sph"
)

func testFluidParams() FluidParams {
	return FluidParams{
		RestDensity: 1,
		Mass:        1,
		Relaxation:  0.01,
		TensileDQ:   0.2,
		TensileN:    4,
	}
}

func TestFluidPushesCrowdedParticlesApart(t *testing.T) {
	f := newFixture(t, []seed{
		{pos: mgl32.Vec3{0, 0, 0}, phase: particles.Liquid()},
		{pos: mgl32.Vec3{0.5, 0, 0}, phase: particles.Liquid()},
	})
	f.sync(t)

	fl := NewFluid(testFluidParams(), sph.New(1), f.grid, 2)
	dev := &f.state.Device
	if err := fl.ComputeDensityLambda(f.exec, dev); err != nil {
		t.Fatal(err)
	}
	if fl.DensityError(0) <= 0 {
		t.Fatalf("density error = %v, expected over-dense pair", fl.DensityError(0))
	}
	if fl.Lambda[0] >= 0 || fl.Lambda[1] >= 0 {
		t.Fatalf("lambda = %v, want negative for compressed particles", fl.Lambda)
	}

	if err := fl.ComputeCorrection(f.exec, dev, f.corr); err != nil {
		t.Fatal(err)
	}
	c0, c1 := f.correction(0), f.correction(1)
	if c0.X() >= 0 || c1.X() <= 0 {
		t.Errorf("corrections %v, %v do not separate the pair", c0, c1)
	}
	if !vecNear(c0, c1.Mul(-1), 1e-6) {
		t.Errorf("corrections not antisymmetric: %v vs %v", c0, c1)
	}
}

func TestFluidClampDensity(t *testing.T) {
	tests := []struct {
		name       string
		clamp      bool
		wantLambda func(float32) bool
	}{
		{name: "clamped", clamp: true, wantLambda: func(l float32) bool { return l == 0 }},
		{name: "unclamped", clamp: false, wantLambda: func(l float32) bool { return l > 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, []seed{{pos: mgl32.Vec3{0, 0, 0}, phase: particles.Liquid()}})
			f.sync(t)

			params := testFluidParams()
			params.RestDensity = 10
			params.ClampDensity = tc.clamp
			fl := NewFluid(params, sph.New(1), f.grid, 1)
			if err := fl.ComputeDensityLambda(f.exec, &f.state.Device); err != nil {
				t.Fatal(err)
			}
			if !tc.wantLambda(fl.Lambda[0]) {
				t.Errorf("lambda = %v", fl.Lambda[0])
			}
		})
	}
}

func TestFluidIgnoresNonLiquidTargets(t *testing.T) {
	f := newFixture(t, []seed{
		{pos: mgl32.Vec3{0, 0, 0}, phase: particles.Liquid()},
		{pos: mgl32.Vec3{0.4, 0, 0}, phase: particles.Static()},
		{pos: mgl32.Vec3{0, 0.4, 0}, phase: particles.Solid(1)},
	})
	f.sync(t)

	fl := NewFluid(testFluidParams(), sph.New(1), f.grid, 3)
	dev := &f.state.Device
	if err := fl.ComputeDensityLambda(f.exec, dev); err != nil {
		t.Fatal(err)
	}
	if fl.Lambda[1] != 0 || fl.Lambda[2] != 0 {
		t.Errorf("non-liquid lambda = %v, %v", fl.Lambda[1], fl.Lambda[2])
	}

	// Boundary particles still count toward liquid density.
	alone := sph.New(1).W(0)
	if fl.Density[0] <= alone {
		t.Errorf("density %v does not include boundary neighbors (self only %v)", fl.Density[0], alone)
	}

	if err := fl.ComputeCorrection(f.exec, dev, f.corr); err != nil {
		t.Fatal(err)
	}
	if f.correction(1) != (mgl32.Vec3{}) || f.correction(2) != (mgl32.Vec3{}) {
		t.Errorf("fluid wrote corrections to non-liquid particles: %v %v", f.correction(1), f.correction(2))
	}
	if c := f.correction(0); c.X() >= 0 || c.Y() >= 0 {
		t.Errorf("liquid correction %v should point away from the boundary", c)
	}
}

func TestDefaultFluidPullsUnderDenseParticlesTogether(t *testing.T) {
	f := newFixture(t, []seed{
		{pos: mgl32.Vec3{0, 0, 0}, phase: particles.Liquid()},
		{pos: mgl32.Vec3{0.5, 0, 0}, phase: particles.Liquid()},
	})
	f.sync(t)

	params := FluidParamsFromConfig(config.Defaults().Fluid, 1)
	if params.ClampDensity {
		t.Fatal("density clamp enabled by default")
	}
	kernels := sph.New(1)
	fl := NewFluid(params, kernels, f.grid, 2)
	if err := fl.ComputeDensityLambda(f.exec, &f.state.Device); err != nil {
		t.Fatal(err)
	}
	if fl.DensityError(0) >= 0 {
		t.Fatalf("density error = %v, expected an under-dense pair", fl.DensityError(0))
	}

	// One neighbor each: |grad_j C|^2 and |grad_i C|^2 are the same term.
	g := kernels.GradSpiky(mgl32.Vec3{-0.5, 0, 0}).Mul(params.Mass / params.RestDensity)
	want := -fl.DensityError(0) / (2*g.Dot(g) + params.Relaxation)
	for i := range 2 {
		if l := fl.Lambda[i]; l <= 0 || !near(l, want, 1e-6) {
			t.Errorf("lambda[%d] = %v, want %v", i, l, want)
		}
	}

	if err := fl.ComputeCorrection(f.exec, &f.state.Device, f.corr); err != nil {
		t.Fatal(err)
	}
	if c0, c1 := f.correction(0), f.correction(1); c0.X() <= 0 || c1.X() >= 0 {
		t.Errorf("corrections %v, %v do not pull the pair together", c0, c1)
	}
}

func TestTensileTermIsRepulsive(t *testing.T) {
	seeds := []seed{
		{pos: mgl32.Vec3{0, 0, 0}, phase: particles.Liquid()},
		{pos: mgl32.Vec3{0.9, 0, 0}, phase: particles.Liquid()},
	}

	run := func(k float32) mgl32.Vec3 {
		f := newFixture(t, seeds)
		f.sync(t)
		params := testFluidParams()
		params.RestDensity = 100
		params.ClampDensity = true
		params.TensileK = k
		fl := NewFluid(params, sph.New(1), f.grid, 2)
		if err := fl.ComputeDensityLambda(f.exec, &f.state.Device); err != nil {
			t.Fatal(err)
		}
		if err := fl.ComputeCorrection(f.exec, &f.state.Device, f.corr); err != nil {
			t.Fatal(err)
		}
		return f.correction(0)
	}

	if c := run(0); c != (mgl32.Vec3{}) {
		t.Fatalf("under-dense clamped pair moved without tensile term: %v", c)
	}
	if c := run(0.1); c.X() >= 0 {
		t.Errorf("tensile correction %v should push particle 0 away from 1", c)
	}
}
