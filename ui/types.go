// Package ui draws the viewer's 2D panels: the HUD line, the stats and perf
// panels, and the playback/overlay controls. Stats fields are declared as
// descriptors so panels lay themselves out from data.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType selects how a field is drawn.
type WidgetType int

const (
	WidgetText WidgetType = iota // Formatted value
	WidgetBar                    // Fill over Range
)

// FieldRange is the span a bar fills over.
type FieldRange struct {
	Min, Max float32
}

// FieldDescriptor describes one stats line.
type FieldDescriptor struct {
	ID         string            // Stable key, used by tests
	Label      string            // Display label
	Widget     WidgetType        // How to render
	Format     string            // Printf format for Getter values
	Range      FieldRange        // Value range for bars
	Visible    func(any) bool    // nil means always shown
	Getter     func(any) float32 // Numeric value
	TextGetter func(any) string  // Preformatted value, wins over Getter
}

// SectionDescriptor is a titled group of fields.
type SectionDescriptor struct {
	ID      string
	Title   string
	Fields  []FieldDescriptor
	Visible func(any) bool // nil means always shown
}

// Theme holds panel colors and metrics.
type Theme struct {
	PanelBg, PanelBorder            rl.Color
	SectionHeader                   rl.Color
	LabelColor, ValueColor          rl.Color
	BarBg, BarFill, BarFillHigh     rl.Color
	Padding, LineHeight, LabelWidth int32
	BarHeight                       int32
	FontSize, HeaderFontSize        int32
}

// DefaultTheme is a dark panel with water-blue bars; a full bar turns orange.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 14, G: 20, B: 28, A: 235},
		PanelBorder:    rl.Color{R: 52, G: 74, B: 96, A: 255},
		SectionHeader:  rl.Color{R: 120, G: 200, B: 255, A: 255},
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 32, G: 38, B: 46, A: 255},
		BarFill:        rl.Color{R: 60, G: 140, B: 220, A: 255},
		BarFillHigh:    rl.Orange,
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     120,
		BarHeight:      10,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
