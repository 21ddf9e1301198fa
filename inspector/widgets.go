package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg   = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorBarHigh = rl.Color{R: 200, G: 90, B: 80, A: 255}
	ColorText    = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim = rl.Color{R: 150, G: 150, B: 150, A: 255}
)

// DrawField renders one field with its widget and returns the height used.
func DrawField(x, y int32, f Field) int32 {
	switch f.Widget {
	case WidgetBar:
		if v, ok := GetFloatValue(f.Value); ok {
			return DrawBar(x, y, f.Name, v, f.Options)
		}
	}
	return DrawLabel(x, y, f.Name, f.Value, f.Options)
}

// DrawLabel renders a text value.
func DrawLabel(x, y int32, name string, value any, options map[string]string) int32 {
	text := FormatValue(value, options["fmt"])
	rl.DrawText(name+":", x, y, 14, ColorTextDim)
	rl.DrawText(text, x+90, y, 14, ColorText)
	return 20
}

// DrawBar renders a horizontal bar of |value| against the max option.
// The fill turns red when the value saturates.
func DrawBar(x, y int32, name string, value float32, options map[string]string) int32 {
	ratio := BarRatio(value, GetMax(options))

	barWidth := int32(120)
	barHeight := int32(14)

	rl.DrawText(name+":", x, y, 14, ColorTextDim)

	barX := x + 90
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)
	fill := ColorBarFill
	if ratio >= 1 {
		fill = ColorBarHigh
	}
	rl.DrawRectangle(barX, y, int32(float32(barWidth)*ratio), barHeight, fill)
	rl.DrawText(fmt.Sprintf("%.3f", value), barX+barWidth+5, y, 14, ColorTextDim)

	return 20
}

// BarRatio maps |value| onto [0, 1] of maxVal.
func BarRatio(value, maxVal float32) float32 {
	if value < 0 {
		value = -value
	}
	return min(value/maxVal, 1)
}
