package renderer

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/particles"
)

func TestRampEndpoints(t *testing.T) {
	tests := []struct {
		name string
		t    float32
		want rl.Color
	}{
		{"low", 0, rl.Color{R: 0, G: 80, B: 255, A: 255}},
		{"below range", -3, rl.Color{R: 0, G: 80, B: 255, A: 255}},
		{"high", 1, rl.Color{R: 255, G: 0, B: 0, A: 255}},
		{"above range", 9, rl.Color{R: 255, G: 0, B: 0, A: 255}},
		{"mid", 0.5, rl.Color{R: 0, G: 255, B: 0, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ramp(tt.t); got != tt.want {
				t.Errorf("Ramp(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestColorModes(t *testing.T) {
	f := &Frame{
		Positions:  make([]float32, 9),
		Velocities: []float32{0, 0, 0, 10, 0, 0, 10, 0, 0},
		Phases:     []particles.Phase{particles.Liquid(), particles.Liquid(), particles.Static()},
		DensityErr: []float32{-0.2, 0, 0},
	}
	r := NewParticleRenderer(0.1)

	if got := r.Color(f, 0); got != PhaseColor(particles.Liquid()) {
		t.Errorf("phase mode color = %v", got)
	}

	r.Mode = ColorBySpeed
	if got := r.Color(f, 1); got != Ramp(1) {
		t.Errorf("fast particle = %v, want saturated", got)
	}
	if got := r.Color(f, 2); got != PhaseColor(particles.Static()) {
		t.Errorf("static particle colored by speed: %v", got)
	}

	r.Mode = ColorByDensity
	if got := r.Color(f, 0); got != Ramp(1) {
		t.Errorf("compressed particle = %v, want saturated", got)
	}
	if got := r.Color(f, 1); got != Ramp(0) {
		t.Errorf("rest particle = %v, want cool", got)
	}
}

func TestVisibleFilters(t *testing.T) {
	r := NewParticleRenderer(0.1)
	r.ShowSolid = false

	if !r.Visible(particles.Liquid()) || r.Visible(particles.Solid(1)) || !r.Visible(particles.Static()) {
		t.Error("visibility flags not applied per phase")
	}
}

func TestSolidGroupsDiffer(t *testing.T) {
	if PhaseColor(particles.Solid(1)) == PhaseColor(particles.Solid(2)) {
		t.Error("adjacent solid groups share a color")
	}
}
