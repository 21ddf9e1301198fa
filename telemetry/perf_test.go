package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorStageTiming(t *testing.T) {
	pc := NewPerfCollector(10, "serial")

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(StageGrid)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(StageFluid)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Backend != "serial" || stats.Ticks != 5 {
		t.Errorf("backend, ticks = %q, %d", stats.Backend, stats.Ticks)
	}
	if stats.MeanTick <= 0 || stats.P95Tick < stats.MeanTick/2 {
		t.Errorf("mean %v, p95 %v", stats.MeanTick, stats.P95Tick)
	}
	grid, _ := stats.Stage(StageGrid)
	fluid, _ := stats.Stage(StageFluid)
	if grid.Mean <= 0 || fluid.Share <= grid.Share {
		t.Errorf("fluid %.1f%% should exceed grid %.1f%%", fluid.Share, grid.Share)
	}
	if idle, _ := stats.Stage(StageContact); idle.Mean != 0 {
		t.Errorf("untimed stage has mean %v", idle.Mean)
	}
}

func TestPerfCollectorCountsItems(t *testing.T) {
	pc := NewPerfCollector(4, "pool")

	for _, n := range []int{100, 300} {
		pc.StartTick()
		pc.StartPhase(StageVorticity)
		// Curl and confinement are separate dispatches.
		pc.CountItems(StageVorticity, n)
		pc.CountItems(StageVorticity, n)
		pc.CountItems("unknown", n)
		pc.EndTick()
	}

	v, ok := pc.Stats().Stage(StageVorticity)
	if !ok || v.Items != 400 {
		t.Errorf("vorticity items = %v, want mean of 200 and 600", v.Items)
	}
	if _, ok := pc.Stats().Stage("unknown"); ok {
		t.Error("unknown stage reported")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(3, "serial")

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(StagePredict)
		pc.CountItems(StagePredict, 10*(i+1))
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Ticks != 3 {
		t.Fatalf("ticks = %d, want the window size", stats.Ticks)
	}
	// The window holds ticks 3, 4 and 5.
	if p, _ := stats.Stage(StagePredict); p.Items != 40 {
		t.Errorf("predict items = %v, want 40", p.Items)
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollectorTransfer(t *testing.T) {
	pc := NewPerfCollector(2, "serial")

	pc.StartTick()
	pc.StartPhase(StagePush)
	time.Sleep(200 * time.Microsecond)
	pc.StartPhase(StageDistance)
	time.Sleep(200 * time.Microsecond)
	pc.StartPhase(StageReadback)
	time.Sleep(200 * time.Microsecond)
	pc.EndTick()

	stats := pc.Stats()
	push, _ := stats.Stage(StagePush)
	back, _ := stats.Stage(StageReadback)
	if stats.Transfer != push.Mean+back.Mean {
		t.Errorf("transfer = %v, want push %v + readback %v", stats.Transfer, push.Mean, back.Mean)
	}
	if stats.TransferShare <= 0 || stats.TransferShare >= 100 {
		t.Errorf("transfer share = %v", stats.TransferShare)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	stats := NewPerfCollector(0, "serial").Stats()

	if stats.MeanTick != 0 || stats.Ticks != 0 {
		t.Errorf("empty collector: mean %v, ticks %d", stats.MeanTick, stats.Ticks)
	}
	if len(stats.Stages) != len(Stages) {
		t.Errorf("got %d stage entries, want %d", len(stats.Stages), len(Stages))
	}
}

func TestPerfStatsRows(t *testing.T) {
	s := PerfStats{
		Backend:       "pool",
		MeanTick:      2000 * time.Microsecond,
		Transfer:      100 * time.Microsecond,
		TransferShare: 5,
		Stages: []StageStats{
			{Name: StagePush, Mean: 50 * time.Microsecond, Share: 2.5, Items: 300},
			{Name: StageGrid, Mean: 400 * time.Microsecond, Share: 20, Items: 100},
		},
	}
	rows := s.Rows(120)

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want stages + transfer + tick", len(rows))
	}
	for _, r := range rows {
		if r.WindowEnd != 120 || r.Backend != "pool" {
			t.Errorf("row %q: window %d backend %q", r.Stage, r.WindowEnd, r.Backend)
		}
	}
	if rows[1].Stage != StageGrid || rows[1].MeanUS != 400 || rows[1].Items != 100 {
		t.Errorf("grid row = %+v", rows[1])
	}
	if rows[2].Stage != RowTransfer || rows[2].MeanUS != 100 || rows[2].Pct != 5 {
		t.Errorf("transfer row = %+v", rows[2])
	}
	if rows[3].Stage != RowTick || rows[3].MeanUS != 2000 || rows[3].Pct != 100 {
		t.Errorf("tick row = %+v", rows[3])
	}
}

func TestStagesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range append(Stages, RowTransfer, RowTick) {
		if seen[s] {
			t.Fatalf("duplicate stage %q", s)
		}
		seen[s] = true
	}
}
