// Package camera provides an orbit camera for viewing the particle volume.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit is a camera circling a target point at a given distance.
// Yaw rotates about +Y, Pitch tilts toward it; both are in radians.
type Orbit struct {
	// Target is the point the camera looks at
	Target mgl32.Vec3

	Yaw, Pitch float32
	Distance   float32

	// FovY is the vertical field of view in degrees
	FovY float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Distance constraints
	MinDistance, MaxDistance float32

	home pose
}

// pose is the placement Reset returns to.
type pose struct {
	Target     mgl32.Vec3
	Yaw, Pitch float32
	Distance   float32
}

// maxPitch keeps the camera off the poles where the up vector degenerates.
const maxPitch = 89 * math.Pi / 180

// New creates a camera framing the box [lo, hi] from a raised three-quarter view.
func New(viewportW, viewportH float32, lo, hi mgl32.Vec3) *Orbit {
	extent := hi.Sub(lo).Len()
	if extent <= 0 {
		extent = 1
	}
	c := &Orbit{
		Target:      lo.Add(hi).Mul(0.5),
		Yaw:         mgl32.DegToRad(35),
		Pitch:       mgl32.DegToRad(25),
		Distance:    extent * 1.2,
		FovY:        45,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: extent * 0.05,
		MaxDistance: extent * 6,
	}
	c.home = pose{Target: c.Target, Yaw: c.Yaw, Pitch: c.Pitch, Distance: c.Distance}
	return c
}

// Eye returns the camera position in world coordinates.
func (c *Orbit) Eye() mgl32.Vec3 {
	return c.Target.Add(c.forward().Mul(-c.Distance))
}

// forward is the unit view direction, from eye to target.
func (c *Orbit) forward() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		-cp * float32(math.Sin(float64(c.Yaw))),
		-float32(math.Sin(float64(c.Pitch))),
		-cp * float32(math.Cos(float64(c.Yaw))),
	}
}

// Up is the world up axis used for the view matrix.
func (c *Orbit) Up() mgl32.Vec3 { return mgl32.Vec3{0, 1, 0} }

// Rotate orbits the camera by the given yaw and pitch deltas in radians.
// Pitch is clamped short of straight up or down.
func (c *Orbit) Rotate(dyaw, dpitch float32) {
	c.Yaw = wrapAngle(c.Yaw + dyaw)
	c.Pitch = mgl32.Clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Pan moves the target in the view plane by the given delta in screen pixels.
func (c *Orbit) Pan(dx, dy float32) {
	right := c.forward().Cross(c.Up()).Normalize()
	up := right.Cross(c.forward())

	// world units per pixel at the target depth
	scale := 2 * c.Distance * float32(math.Tan(float64(mgl32.DegToRad(c.FovY)/2))) / c.ViewportH
	c.Target = c.Target.Add(right.Mul(-dx * scale)).Add(up.Mul(dy * scale))
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Orbit) SetDistance(d float32) {
	c.Distance = mgl32.Clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor; factor > 1 moves closer.
func (c *Orbit) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Resize updates viewport dimensions.
func (c *Orbit) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the pose it was created with.
func (c *Orbit) Reset() {
	c.Target = c.home.Target
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
	c.Distance = c.home.Distance
}

// View returns the world-to-camera matrix.
func (c *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, c.Up())
}

// Projection returns the perspective matrix for the current viewport.
func (c *Orbit) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	far := c.Distance + c.MaxDistance
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.MinDistance*0.1, far)
}

// WorldToScreen projects a world point to screen pixels, origin top-left.
// ok is false for points behind the camera.
func (c *Orbit) WorldToScreen(p mgl32.Vec3) (sx, sy float32, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	sx = (ndc.X() + 1) * 0.5 * c.ViewportW
	sy = (1 - ndc.Y()) * 0.5 * c.ViewportH
	return sx, sy, true
}

// IsVisible returns true if a sphere at p with the given radius could be
// on screen (conservative check for culling).
func (c *Orbit) IsVisible(p mgl32.Vec3, radius float32) bool {
	sx, sy, ok := c.WorldToScreen(p)
	if !ok {
		return false
	}
	// pixel radius at the sphere's depth
	depth := p.Sub(c.Eye()).Dot(c.forward())
	if depth <= 0 {
		return false
	}
	pr := radius / (depth * float32(math.Tan(float64(mgl32.DegToRad(c.FovY)/2)))) * c.ViewportH / 2
	return sx >= -pr && sx <= c.ViewportW+pr && sy >= -pr && sy <= c.ViewportH+pr
}

// wrapAngle wraps a to [-pi, pi].
func wrapAngle(a float32) float32 {
	r := float32(math.Mod(float64(a)+math.Pi, 2*math.Pi))
	if r < 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}
