// Package game wires the scene, the engine and telemetry into a run loop,
// either headless or with a raylib viewer.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/camera"
	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/engine"
	"github.com/pthm-cable/pbd/inspector"
	"github.com/pthm-cable/pbd/renderer"
	"github.com/pthm-cable/pbd/scene"
	"github.com/pthm-cable/pbd/telemetry"
	"github.com/pthm-cable/pbd/ui"
)

// Options configures a run.
type Options struct {
	Seed           int64
	LogStats       bool
	SnapshotDir    string
	SnapshotEvery  int // ticks between periodic snapshots (0 = bookmarks only)
	OutputDir      string
	Resume         string // snapshot file to restore after populating the scene
	Headless       bool
	StepsPerUpdate int
}

// Game holds the complete run state.
type Game struct {
	cfg  *config.Config
	opts Options

	scene  *scene.Scene
	exec   compute.Executor
	engine *engine.Engine

	// Telemetry
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)

	// State
	paused         bool
	stepOnce       bool
	stepsPerUpdate int
	err            error

	// Viewer, nil when headless
	camera    *camera.Orbit
	particles *renderer.ParticleRenderer
	bg        *renderer.BackgroundRenderer
	overlays  ui.OverlaySet
	controls  *ui.ControlsPanel
	hud       *ui.HUD
	stats     *ui.StatsPanel
	perfPanel *ui.PerfPanel
	inspector *inspector.Inspector
	frame     renderer.Frame
	showPerf  bool
}

// NewGameWithOptions builds the scene and the engine from cfg.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	cfg = cfg.Clone()
	sc := scene.New(cfg)
	cfg.Particles.Count = sc.ParticleCount()
	cfg.ComputeDerived()

	exec, err := compute.New(cfg.Executor)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(cfg, exec)
	if err != nil {
		exec.Close()
		return nil, err
	}
	if err := sc.Populate(e); err != nil {
		exec.Close()
		return nil, fmt.Errorf("populating scene: %w", err)
	}
	if opts.Seed != 0 {
		jitterFluid(e, sc, rand.New(rand.NewSource(opts.Seed)), float32(cfg.Scene.Spacing)*0.01)
	}

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	g := &Game{
		cfg:              e.Config(),
		opts:             opts,
		scene:            sc,
		exec:             exec,
		engine:           e,
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		stepsPerUpdate:   opts.StepsPerUpdate,
	}

	if opts.Resume != "" {
		if err := g.resume(opts.Resume); err != nil {
			g.Unload()
			return nil, err
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.Unload()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(g.cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if !opts.Headless {
		g.initViewer()
	}
	return g, nil
}

// jitterFluid nudges liquid particles by up to amp along each axis so the
// initial lattice is not perfectly symmetric.
func jitterFluid(e *engine.Engine, sc *scene.Scene, rng *rand.Rand, amp float32) {
	for _, b := range sc.Bodies() {
		if b.Kind != scene.KindFluid {
			continue
		}
		for id := b.First; id < b.First+b.Count; id++ {
			d := mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}.Mul(2 * amp)
			// ids come from the scene layout, so they are in range
			_ = e.SetParticle(id, e.Position(id).Add(d), e.Velocity(id), e.Phase(id))
		}
	}
}

// SetStatsCallback registers a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 { return int32(g.engine.Tick()) }

// Engine returns the underlying engine.
func (g *Game) Engine() *engine.Engine { return g.engine }

// Scene returns the scene layout.
func (g *Game) Scene() *scene.Scene { return g.scene }

// Err returns the fatal step error, if any.
func (g *Game) Err() error { return g.err }

// Unload releases the executor and closes output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.outputManager = nil
	if g.exec != nil {
		g.exec.Close()
		g.exec = nil
	}
}
