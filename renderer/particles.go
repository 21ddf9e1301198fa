// Package renderer draws the particle volume with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/particles"
)

// ColorMode picks how particles are tinted.
type ColorMode int

const (
	ColorByPhase ColorMode = iota
	ColorBySpeed
	ColorByDensity
)

// Frame is the particle data for one draw. DensityErr may be nil unless
// the mode is ColorByDensity.
type Frame struct {
	Positions  []float32
	Velocities []float32
	Phases     []particles.Phase
	DensityErr []float32
}

// ParticleRenderer renders simulation particles as spheres.
type ParticleRenderer struct {
	Radius float32
	Mode   ColorMode

	// Which phases to draw
	ShowLiquid, ShowSolid, ShowStatic bool

	// MaxSpeed and MaxDensityErr saturate the gradient color modes.
	MaxSpeed      float32
	MaxDensityErr float32
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer(radius float32) *ParticleRenderer {
	return &ParticleRenderer{
		Radius:        radius,
		ShowLiquid:    true,
		ShowSolid:     true,
		ShowStatic:    true,
		MaxSpeed:      2,
		MaxDensityErr: 0.05,
	}
}

// Visible reports whether particles of phase ph are drawn.
func (r *ParticleRenderer) Visible(ph particles.Phase) bool {
	switch ph.Kind() {
	case particles.PhaseLiquid:
		return r.ShowLiquid
	case particles.PhaseSolid:
		return r.ShowSolid
	default:
		return r.ShowStatic
	}
}

// Color returns the tint for particle i of f.
func (r *ParticleRenderer) Color(f *Frame, i int) rl.Color {
	ph := f.Phases[i]
	switch r.Mode {
	case ColorBySpeed:
		if ph.IsMovable() {
			speed := particles.Vec(f.Velocities, i).Len()
			return Ramp(speed / r.MaxSpeed)
		}
	case ColorByDensity:
		if ph.IsLiquid() && f.DensityErr != nil {
			return Ramp(float32(math.Abs(float64(f.DensityErr[i]))) / r.MaxDensityErr)
		}
	}
	return PhaseColor(ph)
}

// Draw renders every visible particle. Must be called inside BeginMode3D.
func (r *ParticleRenderer) Draw(f *Frame) {
	for i, ph := range f.Phases {
		if !r.Visible(ph) {
			continue
		}
		p := particles.Vec(f.Positions, i)
		pos := rl.Vector3{X: p.X(), Y: p.Y(), Z: p.Z()}
		if ph.IsStatic() {
			// cheap and reads as ground
			rl.DrawCubeV(pos, rl.Vector3{X: 2 * r.Radius, Y: 2 * r.Radius, Z: 2 * r.Radius}, r.Color(f, i))
			continue
		}
		rl.DrawSphereEx(pos, r.Radius, 6, 8, r.Color(f, i))
	}
}

// PhaseColor is the default tint for each phase. Solid groups get distinct
// hues.
func PhaseColor(ph particles.Phase) rl.Color {
	switch ph.Kind() {
	case particles.PhaseLiquid:
		return rl.Color{R: 60, G: 140, B: 230, A: 255}
	case particles.PhaseSolid:
		hue := float32(ph.Group()%12) * 30
		return rl.ColorFromHSV(hue+15, 0.65, 0.9)
	default:
		return rl.Color{R: 110, G: 110, B: 115, A: 255}
	}
}

// Ramp maps t in [0,1] from cool blue through green to red. t is clamped.
func Ramp(t float32) rl.Color {
	t = mgl32.Clamp(t, 0, 1)
	if math.IsNaN(float64(t)) {
		t = 1
	}
	if t < 0.5 {
		u := t * 2
		return rl.Color{R: 0, G: uint8(80 + 175*u), B: uint8(255 * (1 - u)), A: 255}
	}
	u := (t - 0.5) * 2
	return rl.Color{R: uint8(255 * u), G: uint8(255 * (1 - u)), B: 0, A: 255}
}
