package game

import (
	"log/slog"
)

// UpdateHeadless runs StepsPerUpdate ticks without touching raylib.
// It returns the first step error.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// step advances one tick: conveyor shift, engine step, then telemetry.
func (g *Game) step() error {
	if g.err != nil {
		return g.err
	}

	shift := g.scene.Conveyors.Update(g.cfg.Derived.DT32)
	if err := g.engine.Step(shift); err != nil {
		g.err = err
		slog.Error("simulation stopped", "tick", g.engine.Tick(), "error", err)
		return err
	}

	g.collector.Record(g.engine.Stats().Sample())
	g.flushTelemetry()

	if every := g.opts.SnapshotEvery; every > 0 && g.opts.SnapshotDir != "" && g.engine.Tick()%every == 0 {
		g.saveSnapshot(nil)
	}
	return nil
}
