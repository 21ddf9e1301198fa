package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	Backend string
	Tick    int
	Speed   int
	FPS     int32
	Paused  bool
	Failed  bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d | Backend: %s", data.Tick, data.Speed, data.FPS, data.Backend),
		10, 35, 16, rl.LightGray,
	)

	statusText, statusColor := "Running", rl.Yellow
	switch {
	case data.Failed:
		statusText, statusColor = "ENGINE FAILED", rl.Red
	case data.Paused:
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 55, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// StatsData is what the stats panel shows about the last step.
type StatsData struct {
	Liquids         int
	Solids          int
	Statics         int
	Constraints     int
	MaxDensityError float32
	MeanDensity     float32
	RestDensity     float32
	MaxSpeed        float32
	ConstraintError float32
}

// StatsSections describes the stats panel layout.
func StatsSections() []SectionDescriptor {
	stats := func(d any) StatsData { return d.(StatsData) }
	return []SectionDescriptor{
		{
			ID:    "particles",
			Title: "Particles",
			Fields: []FieldDescriptor{
				{ID: "liquids", Label: "Liquid", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", stats(d).Liquids) }},
				{ID: "solids", Label: "Solid", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", stats(d).Solids) }},
				{ID: "statics", Label: "Static", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", stats(d).Statics) }},
				{ID: "constraints", Label: "Constraints", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", stats(d).Constraints) }},
			},
		},
		{
			ID:      "fluid",
			Title:   "Fluid",
			Visible: func(d any) bool { return stats(d).Liquids > 0 },
			Fields: []FieldDescriptor{
				{ID: "density_err", Label: "Max density err", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 0.1},
					Getter: func(d any) float32 { return stats(d).MaxDensityError }},
				{ID: "mean_density", Label: "Mean density", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return stats(d).MeanDensity }},
				{ID: "rest_density", Label: "Rest density", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return stats(d).RestDensity }},
			},
		},
		{
			ID:    "motion",
			Title: "Motion",
			Fields: []FieldDescriptor{
				{ID: "max_speed", Label: "Max speed", Widget: WidgetText, Format: "%.3f",
					Getter: func(d any) float32 { return stats(d).MaxSpeed }},
				{ID: "constraint_err", Label: "Constraint err", Widget: WidgetText, Format: "%.4f",
					Visible: func(d any) bool { return stats(d).Constraints > 0 },
					Getter:  func(d any) float32 { return stats(d).ConstraintError }},
			},
		},
	}
}

// StatsPanel renders the simulation statistics panel.
type StatsPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		sections: StatsSections(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the stats panel.
func (s *StatsPanel) Draw(data StatsData) int32 {
	r := s.renderer
	padding := r.Theme.Padding

	r.DrawPanel(s.x, s.y, s.width, 230)

	y := s.y + padding
	for _, sec := range s.sections {
		y = r.DrawSection(s.x+padding, y, sec, data, s.width-padding*2)
	}
	return y
}

// PerfStage is one stage line of the perf panel.
type PerfStage struct {
	Name  string
	Mean  time.Duration
	Items float64
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	Backend  string
	Total    time.Duration
	P95      time.Duration
	Transfer time.Duration
	Stages   []PerfStage // pipeline order
}

// PerfPanel renders the per-stage performance panel.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x, y := p.x, p.y

	rl.DrawText("Stage Performance ("+data.Backend+")", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick %s  p95 %s", data.Total.Round(time.Microsecond), data.P95.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("Transfer %s %5.1f%%", data.Transfer.Round(time.Microsecond), sharePct(data.Transfer, data.Total)), x, y, 12, rl.SkyBlue)
	y += 16

	for _, st := range data.Stages {
		pct := sharePct(st.Mean, data.Total)
		rl.DrawText(
			fmt.Sprintf("%-10s %7s %5.1f%% %7s", st.Name, st.Mean.Round(time.Microsecond), pct, itemsText(st.Items)),
			x, y, 12, shareColor(pct),
		)
		y += 14
	}
}

func sharePct(d, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(d) / float64(total) * 100
}

func shareColor(pct float64) rl.Color {
	switch {
	case pct > 20:
		return rl.Red
	case pct > 10:
		return rl.Orange
	}
	return rl.LightGray
}

// itemsText abbreviates a per-tick dispatch count.
func itemsText(n float64) string {
	switch {
	case n <= 0:
		return "-"
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fk", n/1e3)
	}
	return fmt.Sprintf("%.0f", n)
}
