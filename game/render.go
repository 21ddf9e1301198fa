package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/camera"
	"github.com/pthm-cable/pbd/inspector"
	"github.com/pthm-cable/pbd/renderer"
	"github.com/pthm-cable/pbd/telemetry"
	"github.com/pthm-cable/pbd/ui"
)

const controlsLegend = "Space pause | N step | < > speed | LMB inspect | RMB orbit | MMB pan | Wheel zoom | Home reset | Tab panel | F3 perf"

// initViewer creates the camera, renderers and panels. The raylib window
// must already be open.
func (g *Game) initViewer() {
	w, h := float32(g.cfg.Screen.Width), float32(g.cfg.Screen.Height)
	lo, hi := mgl32.Vec3(g.cfg.Derived.WorldMin), mgl32.Vec3(g.cfg.Derived.WorldMax)

	g.camera = camera.New(w, h, lo, hi)
	g.particles = renderer.NewParticleRenderer(float32(g.cfg.Particles.Radius))
	g.bg = renderer.NewBackgroundRenderer(int32(w), int32(h), 40, 48, 60)
	g.overlays = ui.DefaultOverlays()
	g.controls = ui.NewControlsPanel(10, 80, 220)
	g.controls.MaxConveyorSpeed = float32(max(2, 2*math.Abs(g.cfg.Scene.ConveyorSpeed)))
	g.hud = ui.NewHUD()
	g.stats = ui.NewStatsPanel(int32(w)-250, 10, 240)
	g.perfPanel = ui.NewPerfPanel(int32(w)-250, 250)
	g.inspector = inspector.NewInspector(int32(w), int32(h))
}

// Update handles input and advances the simulation by the current speed.
func (g *Game) Update() {
	g.handleInput()

	if g.paused && !g.stepOnce {
		return
	}
	steps := g.stepsPerUpdate
	if g.paused {
		steps = 1
		g.stepOnce = false
	}
	for i := 0; i < steps; i++ {
		if err := g.step(); err != nil {
			return
		}
	}
}

// Draw renders the frame.
func (g *Game) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	g.bg.Draw()
	g.syncOverlays()

	s := g.engine.Snapshot()
	g.frame.Positions = s.Positions
	g.frame.Velocities = s.Velocities
	g.frame.Phases = s.Phases
	if g.particles.Mode == renderer.ColorByDensity {
		g.frame.DensityErr = g.frame.DensityErr[:0]
		for i := range s.Phases {
			g.frame.DensityErr = append(g.frame.DensityErr, g.engine.DensityError(i))
		}
	}

	rl.BeginMode3D(renderer.Camera3D(g.camera))
	g.particles.Draw(&g.frame)
	g.inspector.DrawHighlight(g.engine, g.particles.Radius)
	if g.overlays.Has(ui.OverlayConstraints) {
		renderer.DrawConstraints(g.engine.Constraints(), s.Positions)
	}
	if g.overlays.Has(ui.OverlayBounds) {
		renderer.DrawBounds(mgl32.Vec3(g.cfg.Derived.WorldMin), mgl32.Vec3(g.cfg.Derived.WorldMax))
	}
	rl.EndMode3D()

	g.drawUI()
}

// syncOverlays maps overlay toggles onto the particle renderer.
func (g *Game) syncOverlays() {
	g.particles.ShowLiquid = g.overlays.Has(ui.OverlayLiquid)
	g.particles.ShowSolid = g.overlays.Has(ui.OverlaySolid)
	g.particles.ShowStatic = g.overlays.Has(ui.OverlayStatic)
	switch {
	case g.overlays.Has(ui.OverlaySpeed):
		g.particles.Mode = renderer.ColorBySpeed
	case g.overlays.Has(ui.OverlayDensity):
		g.particles.Mode = renderer.ColorByDensity
	default:
		g.particles.Mode = renderer.ColorByPhase
	}
}

func (g *Game) drawUI() {
	g.hud.Draw(ui.HUDData{
		Title:   "PBD Particles",
		Backend: g.engine.Backend(),
		Tick:    g.engine.Tick(),
		Speed:   g.stepsPerUpdate,
		FPS:     rl.GetFPS(),
		Paused:  g.paused,
		Failed:  g.err != nil,
	})

	state := ui.ControlState{
		Paused:        g.paused,
		Speed:         g.stepsPerUpdate,
		ConveyorSpeed: g.scene.Conveyors.Speed(),
	}
	g.controls.Draw(&state, &g.overlays)
	g.paused = state.Paused
	g.stepOnce = g.stepOnce || state.StepOnce
	g.stepsPerUpdate = state.Speed
	if state.ConveyorSpeed != g.scene.Conveyors.Speed() {
		g.scene.Conveyors.SetSpeed(state.ConveyorSpeed)
	}
	if state.ResetCamera {
		g.camera.Reset()
	}

	st := g.engine.Stats()
	c := g.counts()
	g.stats.Draw(ui.StatsData{
		Liquids:         c.Liquids,
		Solids:          c.Solids,
		Statics:         c.Statics,
		Constraints:     c.Constraints,
		MaxDensityError: float32(st.MaxDensityError),
		MeanDensity:     float32(st.MeanDensity),
		RestDensity:     float32(g.cfg.Fluid.RestDensity),
		MaxSpeed:        float32(st.MaxSpeed),
		ConstraintError: float32(st.ConstraintError),
	})

	if g.showPerf {
		g.perfPanel.Draw(perfPanelData(g.engine.Perf().Stats()))
	}

	g.inspector.Draw(g.engine)

	g.hud.DrawControls(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()), controlsLegend)
}

func perfPanelData(ps telemetry.PerfStats) ui.PerfPanelData {
	data := ui.PerfPanelData{
		Backend:  ps.Backend,
		Total:    ps.MeanTick,
		P95:      ps.P95Tick,
		Transfer: ps.Transfer,
		Stages:   make([]ui.PerfStage, len(ps.Stages)),
	}
	for i, st := range ps.Stages {
		data.Stages[i] = ui.PerfStage{Name: st.Name, Mean: st.Mean, Items: st.Items}
	}
	return data
}
