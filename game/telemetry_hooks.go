package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/pbd/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.counts(), g.engine.DensityErrors())
	perfStats := g.engine.Perf().Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		slog.Info("perf", "window", perfStats)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		if g.opts.SnapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// counts tallies particles by phase along with conveyors and constraints.
func (g *Game) counts() telemetry.Counts {
	c := telemetry.Counts{
		Conveyors:   g.scene.Conveyors.Len(),
		Constraints: g.engine.DistanceConstraints(),
	}
	for i := 0; i < g.engine.Len(); i++ {
		ph := g.engine.Phase(i)
		switch {
		case ph.IsLiquid():
			c.Liquids++
		case ph.IsSolid():
			c.Solids++
		default:
			c.Statics++
		}
	}
	return c
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.Tick())
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	s := g.engine.Snapshot()
	snapshot := telemetry.NewSnapshot(int32(s.Tick), s.Positions, s.Velocities, s.Phases)
	snapshot.Seed = g.opts.Seed
	snapshot.Bookmark = bookmark
	return snapshot
}

// resume restores particle state and the tick counter from a snapshot. The
// scene must already be populated so constraints exist.
func (g *Game) resume(path string) error {
	snapshot, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if len(snapshot.Particles) != g.engine.Len() {
		return fmt.Errorf("resuming from %s: snapshot has %d particles, scene has %d",
			path, len(snapshot.Particles), g.engine.Len())
	}
	if err := snapshot.Apply(g.engine); err != nil {
		return fmt.Errorf("resuming from %s: %w", path, err)
	}
	g.engine.SetTick(int(snapshot.Tick))
	g.collector = telemetry.NewCollector(g.cfg.Telemetry.StatsWindow, g.cfg.Derived.DT32)
	g.collector.StartAt(snapshot.Tick)

	slog.Info("resumed from snapshot", "path", path, "tick", snapshot.Tick)
	return nil
}
