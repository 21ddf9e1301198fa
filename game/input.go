package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyN) && g.paused {
		g.stepOnce = true
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < ui.MaxSpeed {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.showPerf = !g.showPerf
	}

	if key := rl.GetKeyPressed(); key != 0 {
		g.overlays.HandleKey(key)
	}

	g.handleCameraInput()
}

// handleCameraInput orbits with the right mouse button, pans with the
// middle button and zooms with the wheel.
func (g *Game) handleCameraInput() {
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		g.camera.Rotate(-delta.X*0.005, delta.Y*0.005)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		g.camera.Pan(delta.X, delta.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.handleInspectClick()
	}
}

// handleInspectClick picks a particle under the cursor unless the click
// landed on the controls panel.
func (g *Game) handleInspectClick() {
	m := rl.GetMousePosition()
	if g.controls.Contains(m.X, m.Y) {
		return
	}
	s := g.engine.Snapshot()
	g.inspector.HandleClick(m.X, m.Y, g.camera, s.Positions, s.Phases, g.particles.Visible)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	g.camera.Resize(float32(w), float32(h))
	g.bg.Resize(int32(w), int32(h))
	g.inspector.Resize(int32(w), int32(h))
	g.stats.SetPosition(int32(w)-250, 10)
	g.perfPanel.SetPosition(int32(w)-250, 250)
}
