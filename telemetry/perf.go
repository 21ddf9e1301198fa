package telemetry

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stage names for the simulation step, in pipeline order.
const (
	StagePush      = "push"
	StagePredict   = "predict"
	StageGrid      = "grid"
	StageDensity   = "density"
	StageFluid     = "fluid"
	StageContact   = "contact"
	StageApply     = "apply"
	StageDistance  = "distance"
	StageCommit    = "commit"
	StageVorticity = "vorticity"
	StageVelocity  = "velocity"
	StageReadback  = "readback"
)

// Stages lists every stage name in pipeline order.
var Stages = []string{
	StagePush, StagePredict, StageGrid, StageDensity, StageFluid, StageContact,
	StageApply, StageDistance, StageCommit, StageVorticity, StageVelocity, StageReadback,
}

// Pseudo-stages that appear in perf rows next to the real ones.
const (
	RowTransfer = "transfer"
	RowTick     = "tick"
)

var stageIndex = func() map[string]int {
	m := make(map[string]int, len(Stages))
	for i, s := range Stages {
		m[s] = i
	}
	return m
}()

// transferStage reports whether a stage moves particle buffers between host
// and device. The distance stage also runs the host solve, so it is not
// counted.
func transferStage(i int) bool {
	return Stages[i] == StagePush || Stages[i] == StageReadback
}

type stageSample struct {
	dur   time.Duration
	items int
}

type tickSample struct {
	total  time.Duration
	stages []stageSample
}

// PerfCollector times each pipeline stage and counts the items it dispatched,
// keeping the last window ticks.
type PerfCollector struct {
	backend string
	ring    []tickSample
	next    int
	filled  int

	cur       tickSample
	tickStart time.Time
	mark      time.Time
	stage     int
}

// NewPerfCollector returns a collector for the named executor backend.
// window below 1 means 60 ticks.
func NewPerfCollector(window int, backend string) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{backend: backend, ring: make([]tickSample, window), stage: -1}
	for i := range p.ring {
		p.ring[i].stages = make([]stageSample, len(Stages))
	}
	p.cur.stages = make([]stageSample, len(Stages))
	return p
}

// StartTick begins a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.mark = p.tickStart
	p.stage = -1
	clear(p.cur.stages)
}

// StartPhase closes the running stage and starts timing stage. Unknown names
// stop timing until the next known stage.
func (p *PerfCollector) StartPhase(stage string) {
	now := time.Now()
	p.closeStage(now)
	i, ok := stageIndex[stage]
	if !ok {
		i = -1
	}
	p.stage = i
}

// CountItems adds n dispatched work items to stage for the current tick.
func (p *PerfCollector) CountItems(stage string, n int) {
	if i, ok := stageIndex[stage]; ok {
		p.cur.stages[i].items += n
	}
}

// EndTick closes the running stage and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closeStage(now)
	p.stage = -1

	slot := &p.ring[p.next]
	slot.total = now.Sub(p.tickStart)
	copy(slot.stages, p.cur.stages)

	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

func (p *PerfCollector) closeStage(now time.Time) {
	if p.stage >= 0 {
		p.cur.stages[p.stage].dur += now.Sub(p.mark)
	}
	p.mark = now
}

// StageStats summarizes one stage over the window.
type StageStats struct {
	Name  string
	Mean  time.Duration
	Share float64 // percent of the mean tick
	Items float64 // mean work items dispatched per tick
}

// PerfStats summarizes the window.
type PerfStats struct {
	Backend        string
	Ticks          int
	MeanTick       time.Duration
	P95Tick        time.Duration
	TicksPerSecond float64

	// Transfer is the mean time spent moving buffers between host and device.
	Transfer      time.Duration
	TransferShare float64

	Stages []StageStats // pipeline order
}

// Stats aggregates the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Backend: p.backend, Ticks: p.filled, Stages: make([]StageStats, len(Stages))}
	for i, name := range Stages {
		s.Stages[i].Name = name
	}
	if p.filled == 0 {
		return s
	}

	ticks := make([]float64, p.filled)
	durs := make([]float64, p.filled)
	items := make([]float64, p.filled)
	var transfer float64
	for i := 0; i < p.filled; i++ {
		ticks[i] = float64(p.ring[i].total)
		for j := range Stages {
			if transferStage(j) {
				transfer += float64(p.ring[i].stages[j].dur)
			}
		}
	}
	mean := stat.Mean(ticks, nil)
	sort.Float64s(ticks)

	s.MeanTick = time.Duration(mean)
	s.P95Tick = time.Duration(Percentile(ticks, 0.95))
	s.Transfer = time.Duration(transfer / float64(p.filled))
	if mean > 0 {
		s.TicksPerSecond = float64(time.Second) / mean
		s.TransferShare = 100 * float64(s.Transfer) / mean
	}

	for j := range Stages {
		for i := 0; i < p.filled; i++ {
			durs[i] = float64(p.ring[i].stages[j].dur)
			items[i] = float64(p.ring[i].stages[j].items)
		}
		st := &s.Stages[j]
		st.Mean = time.Duration(stat.Mean(durs, nil))
		st.Items = stat.Mean(items, nil)
		if mean > 0 {
			st.Share = 100 * float64(st.Mean) / mean
		}
	}
	return s
}

// Stage returns the summary for a stage name.
func (s PerfStats) Stage(name string) (StageStats, bool) {
	i, ok := stageIndex[name]
	if !ok || i >= len(s.Stages) {
		return StageStats{}, false
	}
	return s.Stages[i], true
}

// LogValue implements slog.LogValuer. Stages under one percent of the tick
// are left out.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("backend", s.Backend),
		slog.Int64("mean_tick_us", s.MeanTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Float64(RowTransfer+"_pct", round1(s.TransferShare)),
	}
	for _, st := range s.Stages {
		if st.Share >= 1 {
			attrs = append(attrs, slog.Float64(st.Name+"_pct", round1(st.Share)))
		}
	}
	return slog.GroupValue(attrs...)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// PerfRow is one line of perf.csv: a stage, the transfer aggregate or the
// whole tick, for one stats window.
type PerfRow struct {
	WindowEnd int32   `csv:"window_end"`
	Backend   string  `csv:"backend"`
	Stage     string  `csv:"stage"`
	MeanUS    float64 `csv:"mean_us"`
	Pct       float64 `csv:"pct"`
	Items     float64 `csv:"items"`
}

// Rows flattens the summary into perf.csv rows: one per stage in pipeline
// order, then transfer, then tick.
func (s PerfStats) Rows(windowEnd int32) []PerfRow {
	us := func(d time.Duration) float64 { return float64(d) / float64(time.Microsecond) }
	rows := make([]PerfRow, 0, len(s.Stages)+2)
	for _, st := range s.Stages {
		rows = append(rows, PerfRow{
			WindowEnd: windowEnd, Backend: s.Backend, Stage: st.Name,
			MeanUS: us(st.Mean), Pct: st.Share, Items: st.Items,
		})
	}
	tickPct := 0.0
	if s.MeanTick > 0 {
		tickPct = 100
	}
	return append(rows,
		PerfRow{WindowEnd: windowEnd, Backend: s.Backend, Stage: RowTransfer, MeanUS: us(s.Transfer), Pct: s.TransferShare},
		PerfRow{WindowEnd: windowEnd, Backend: s.Backend, Stage: RowTick, MeanUS: us(s.MeanTick), Pct: tickPct},
	)
}
