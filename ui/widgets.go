package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws panels and fields in one theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a bordered panel background.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSection draws the visible fields of sd under its title and returns the
// Y position below it.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}
	t := r.Theme
	if sd.Title != "" {
		rl.DrawText(sd.Title, x, y, t.HeaderFontSize, t.SectionHeader)
		y += t.LineHeight
	}
	for _, fd := range sd.Fields {
		if fd.Visible != nil && !fd.Visible(data) {
			continue
		}
		rl.DrawText(fd.Label+":", x, y, t.FontSize, t.LabelColor)
		if fd.Widget == WidgetBar {
			y = r.drawBar(x+t.LabelWidth, y, fieldValue(fd, data), fd.Range, width-t.LabelWidth)
			continue
		}
		rl.DrawText(FieldText(fd, data), x+t.LabelWidth, y, t.FontSize, t.ValueColor)
		y += t.LineHeight
	}
	return y + 4
}

// drawBar fills a bar for value over rng with the value printed after it.
// A full bar uses the high color.
func (r *Renderer) drawBar(x, y int32, value float32, rng FieldRange, width int32) int32 {
	t := r.Theme
	ratio := barRatio(value, rng)
	w := width - 50

	fill := t.BarFill
	if ratio >= 1 {
		fill = t.BarFillHigh
	}
	rl.DrawRectangle(x, y+2, w, t.BarHeight, t.BarBg)
	rl.DrawRectangle(x, y+2, int32(float32(w)*ratio), t.BarHeight, fill)
	rl.DrawText(fmt.Sprintf("%.3f", value), x+w+5, y, t.FontSize, t.ValueColor)
	return y + t.LineHeight + 2
}

// barRatio maps value into [0, 1] over rng.
func barRatio(value float32, rng FieldRange) float32 {
	span := rng.Max - rng.Min
	if span <= 0 {
		return 0
	}
	return min(max((value-rng.Min)/span, 0), 1)
}

func fieldValue(fd FieldDescriptor, data any) float32 {
	if fd.Getter == nil {
		return 0
	}
	return fd.Getter(data)
}

// FieldText formats a text field's value.
func FieldText(fd FieldDescriptor, data any) string {
	if fd.TextGetter != nil {
		return fd.TextGetter(data)
	}
	if fd.Getter != nil {
		return fmt.Sprintf(fd.Format, fd.Getter(data))
	}
	return ""
}
