package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/telemetry"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Grid.Resolution = [3]int{10, 10, 10}
	cfg.Grid.CellWidth = 0.1
	cfg.Grid.Origin = [3]float64{0, 0, 0}
	cfg.Fluid.Radius = 0.1
	cfg.Particles.Radius = 0.025
	cfg.Executor.Backend = "serial"
	cfg.Telemetry.StatsWindow = 5
	cfg.Scene = config.SceneConfig{
		FluidBlock:    [3]int{3, 3, 3},
		FluidOrigin:   [3]float64{0.3, 0.3, 0.3},
		SphereCenter:  [3]float64{0.7, 0.5, 0.5},
		SphereRadius:  0.1,
		FloorSize:     [2]int{4, 5},
		Spacing:       0.05,
		ConveyorSpeed: 0.2,
	}
	cfg.ComputeDerived()
	return cfg
}

func TestHeadlessRunWritesOutput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	snapDir := filepath.Join(t.TempDir(), "snaps")

	g, err := NewGameWithOptions(testConfig(), Options{
		Seed:           7,
		Headless:       true,
		OutputDir:      outDir,
		SnapshotDir:    snapDir,
		SnapshotEvery:  10,
		StepsPerUpdate: 5,
	})
	if err != nil {
		t.Fatal(err)
	}

	var windows []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) { windows = append(windows, s) })

	for i := 0; i < 4; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	g.Unload()

	if g.Tick() != 20 {
		t.Errorf("tick = %d, want 20", g.Tick())
	}
	if len(windows) != 4 {
		t.Fatalf("flushed %d windows, want 4", len(windows))
	}
	last := windows[3]
	if last.WindowEndTick != 20 || last.Liquids != 27 || last.Conveyors != 1 || last.Constraint == 0 {
		t.Errorf("last window = %+v", last)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 5 {
		t.Errorf("telemetry.csv has %d lines, want header + 4", len(lines))
	}
	if _, err := os.Stat(filepath.Join(outDir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
	for _, name := range []string{"snapshot_10.json", "snapshot_20.json"} {
		if _, err := os.Stat(filepath.Join(snapDir, name)); err != nil {
			t.Errorf("periodic snapshot missing: %v", err)
		}
	}
}

func TestResumeRestoresState(t *testing.T) {
	cfg := testConfig()

	g, err := NewGameWithOptions(cfg, Options{Headless: true, StepsPerUpdate: 12})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	path, err := telemetry.SaveSnapshot(g.createSnapshot(nil), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	g.Unload()

	resumed, err := NewGameWithOptions(cfg, Options{Headless: true, Resume: path})
	if err != nil {
		t.Fatal(err)
	}
	defer resumed.Unload()

	if resumed.Tick() != 12 {
		t.Errorf("resumed tick = %d, want 12", resumed.Tick())
	}
	for i := 0; i < g.Engine().Len(); i++ {
		if resumed.Engine().Position(i) != g.Engine().Position(i) {
			t.Fatalf("particle %d at %v, want %v", i, resumed.Engine().Position(i), g.Engine().Position(i))
		}
		if resumed.Engine().Phase(i) != g.Engine().Phase(i) {
			t.Fatalf("particle %d phase %v, want %v", i, resumed.Engine().Phase(i), g.Engine().Phase(i))
		}
	}
	if err := resumed.UpdateHeadless(); err != nil {
		t.Fatalf("stepping after resume: %v", err)
	}
}

func TestResumeRejectsMismatchedScene(t *testing.T) {
	small := testConfig()
	small.Scene.FluidBlock = [3]int{2, 2, 2}

	g, err := NewGameWithOptions(small, Options{Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	path, err := telemetry.SaveSnapshot(g.createSnapshot(nil), t.TempDir())
	g.Unload()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewGameWithOptions(testConfig(), Options{Headless: true, Resume: path}); err == nil {
		t.Error("expected error resuming a snapshot from a different scene")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Physics.DT = 0
	if _, err := NewGameWithOptions(cfg, Options{Headless: true}); err == nil {
		t.Error("expected configuration error")
	}
}
