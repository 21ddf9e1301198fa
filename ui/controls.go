package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState is the viewer state the controls panel reads and edits.
type ControlState struct {
	Paused        bool
	StepOnce      bool // advance one tick while paused
	Speed         int  // ticks per frame
	ConveyorSpeed float32
	ResetCamera   bool
}

// MaxSpeed is the largest ticks-per-frame multiplier.
const MaxSpeed = 10

// ControlsPanel renders the left-side panel with playback controls and
// overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32 // last drawn height
	visible  bool

	// MaxConveyorSpeed bounds the conveyor slider in both directions.
	MaxConveyorSpeed float32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer:         NewRenderer(),
		x:                x,
		y:                y,
		width:            width,
		visible:          true,
		MaxConveyorSpeed: 2,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies on the visible panel.
func (c *ControlsPanel) Contains(mx, my float32) bool {
	if !c.visible {
		return false
	}
	x, y := int32(mx), int32(my)
	return x >= c.x && x <= c.x+c.width && y >= c.y && y <= c.y+c.height
}

// Draw renders the controls panel, writing user edits into state.
// Returns the Y position below the panel.
func (c *ControlsPanel) Draw(state *ControlState, overlays *OverlaySet) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	totalItems := int(numOverlays) + len(OverlayGroups) // one header per group
	panelHeight := int32(totalItems)*lineHeight + padding*4 + 150
	c.height = panelHeight
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding
	inner := float32(c.width - padding*2)

	rl.DrawText("Playback", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	half := (inner - 6) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 22}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: 22}, "Step") {
		state.StepOnce = true
	}
	y += 30

	rl.DrawText(fmt.Sprintf("Speed %dx", state.Speed), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	speed := gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 16}, "", "", float32(state.Speed), 1, MaxSpeed)
	state.Speed = clampSpeed(int(speed + 0.5))
	y += 24

	rl.DrawText(fmt.Sprintf("Conveyor %.2f", state.ConveyorSpeed), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	state.ConveyorSpeed = gui.SliderBar(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 16}, "", "",
		state.ConveyorSpeed, -c.MaxConveyorSpeed, c.MaxConveyorSpeed)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 22}, "Reset Camera") {
		state.ResetCamera = true
	}
	y += 30

	for _, group := range OverlayGroups {
		rl.DrawText(categoryLabel(group), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, o := range OverlaysIn(group) {
			enabled := overlays.Has(o)
			if gui.CheckBox(rl.Rectangle{X: x, Y: float32(y + 1), Width: 12, Height: 12}, o.Label(), enabled) != enabled {
				overlays.Toggle(o)
			}
			y += lineHeight
		}
		y += 4
	}

	return y
}

func clampSpeed(s int) int {
	if s < 1 {
		return 1
	}
	if s > MaxSpeed {
		return MaxSpeed
	}
	return s
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

func categoryLabel(group string) string {
	switch group {
	case GroupPhases:
		return "Phases"
	case GroupColor:
		return "Color"
	case GroupDebug:
		return "Debug"
	}
	return group
}
