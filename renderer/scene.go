package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/camera"
	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/solver"
)

// Camera3D converts an orbit camera to raylib's camera.
func Camera3D(c *camera.Orbit) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec(c.Eye()),
		Target:     vec(c.Target),
		Up:         vec(c.Up()),
		Fovy:       c.FovY,
		Projection: rl.CameraPerspective,
	}
}

func vec(v mgl32.Vec3) rl.Vector3 { return rl.Vector3{X: v.X(), Y: v.Y(), Z: v.Z()} }

// DrawBounds draws the box [lo, hi] as wireframe.
func DrawBounds(lo, hi mgl32.Vec3) {
	center := lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo)
	rl.DrawCubeWiresV(vec(center), vec(size), rl.Color{R: 90, G: 100, B: 110, A: 255})
}

// DrawConstraints draws each distance constraint as a line between its
// endpoints' current positions.
func DrawConstraints(constraints []solver.DistanceConstraint, pos []float32) {
	col := rl.Color{R: 240, G: 200, B: 80, A: 160}
	for _, c := range constraints {
		rl.DrawLine3D(vec(particles.Vec(pos, c.A)), vec(particles.Vec(pos, c.B)), col)
	}
}
