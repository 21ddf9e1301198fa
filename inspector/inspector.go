// Package inspector lets the viewer pick a particle and shows its state
// in a panel built from struct tags.
package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/camera"
	"github.com/pthm-cable/pbd/particles"
)

// Panel dimensions
const (
	PanelWidth   = 300
	PanelPadding = 10
	HeaderHeight = 30

	// HitRadius is the pick tolerance in pixels around a particle center.
	HitRadius = 8
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorHighlight   = rl.Color{R: 255, G: 230, B: 80, A: 255}
)

// ParticleInfo is the state shown for the selected particle.
type ParticleInfo struct {
	ID         int        `inspect:"label"`
	Phase      string     `inspect:"label"`
	Group      uint16     `inspect:"label"`
	Position   mgl32.Vec3 `inspect:"vec,fmt:%.3f"`
	Velocity   mgl32.Vec3 `inspect:"vec,fmt:%.3f"`
	Speed      float32    `inspect:"bar,max:2"`
	DensityErr float32    `inspect:"bar,max:0.05,name:Density err"`
}

// Source supplies particle state to the inspector.
type Source interface {
	Len() int
	Position(id int) mgl32.Vec3
	Velocity(id int) mgl32.Vec3
	Phase(id int) particles.Phase
	DensityError(id int) float32
}

// Pick returns the particle whose screen projection lies closest to
// (mx, my) within HitRadius pixels. Particles rejected by visible are
// skipped; visible may be nil. pos is a flat xyz buffer.
func Pick(cam *camera.Orbit, pos []float32, phases []particles.Phase, visible func(particles.Phase) bool, mx, my float32) (int, bool) {
	best, bestDist := -1, float32(HitRadius*HitRadius)
	for i := range phases {
		if visible != nil && !visible(phases[i]) {
			continue
		}
		sx, sy, ok := cam.WorldToScreen(particles.Vec(pos, i))
		if !ok {
			continue
		}
		dx, dy := sx-mx, sy-my
		if d := dx*dx + dy*dy; d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// Describe gathers the displayed state of particle id.
func Describe(src Source, id int) ParticleInfo {
	ph := src.Phase(id)
	vel := src.Velocity(id)
	return ParticleInfo{
		ID:         id,
		Phase:      ph.Kind().String(),
		Group:      ph.Group(),
		Position:   src.Position(id),
		Velocity:   vel,
		Speed:      vel.Len(),
		DensityErr: src.DensityError(id),
	}
}

// Inspector manages particle selection and panel rendering.
type Inspector struct {
	selected    int
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates an inspector with its panel at the bottom right.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	ins := &Inspector{}
	ins.Resize(screenWidth, screenHeight)
	return ins
}

// Resize repositions the panel for a new screen size.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.panelX = screenWidth - PanelWidth - 10
	ins.panelY = screenHeight - 260
}

// Selected returns the selected particle, if any.
func (ins *Inspector) Selected() (int, bool) { return ins.selected, ins.hasSelected }

// Select marks id as selected.
func (ins *Inspector) Select(id int) {
	ins.selected = id
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() { ins.hasSelected = false }

// InPanel reports whether a screen point lies on the open panel.
func (ins *Inspector) InPanel(mx, my float32) bool {
	if !ins.hasSelected {
		return false
	}
	x, y := int32(mx), int32(my)
	return x >= ins.panelX && x <= ins.panelX+PanelWidth && y >= ins.panelY
}

// HandleClick processes a left click at (mx, my). Clicking the close button
// or empty space deselects; clicks on the panel are ignored.
func (ins *Inspector) HandleClick(mx, my float32, cam *camera.Orbit, pos []float32, phases []particles.Phase, visible func(particles.Phase) bool) {
	if ins.hasSelected {
		closeX := ins.panelX + PanelWidth - 25
		closeY := ins.panelY + 5
		if int32(mx) >= closeX && int32(mx) <= closeX+20 && int32(my) >= closeY && int32(my) <= closeY+20 {
			ins.Deselect()
			return
		}
		if ins.InPanel(mx, my) {
			return
		}
	}

	if id, ok := Pick(cam, pos, phases, visible, mx, my); ok {
		ins.Select(id)
		return
	}
	ins.Deselect()
}

// DrawHighlight marks the selected particle in world space. Call inside
// BeginMode3D.
func (ins *Inspector) DrawHighlight(src Source, radius float32) {
	if !ins.hasSelected || ins.selected >= src.Len() {
		return
	}
	p := src.Position(ins.selected)
	rl.DrawSphereWires(rl.Vector3{X: p.X(), Y: p.Y(), Z: p.Z()}, radius*1.6, 6, 8, ColorHighlight)
}

// Draw renders the panel for the selected particle.
func (ins *Inspector) Draw(src Source) {
	if !ins.hasSelected || ins.selected >= src.Len() {
		return
	}
	info := Describe(src, ins.selected)
	fields := ExtractFields(info)

	x, y := ins.panelX, ins.panelY
	height := HeaderHeight + PanelPadding*2 + int32(len(fields))*20
	rl.DrawRectangle(x, y, PanelWidth, height, ColorPanelBg)
	rl.DrawRectangleLines(x, y, PanelWidth, height, ColorPanelBorder)
	rl.DrawRectangle(x, y, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(fmt.Sprintf("Particle #%d", info.ID), x+PanelPadding, y+7, 18, ColorHeaderText)

	closeX := x + PanelWidth - 25
	rl.DrawRectangle(closeX, y+5, 20, 20, ColorCloseBtn)
	rl.DrawText("x", closeX+6, y+7, 16, ColorHeaderText)

	fy := y + HeaderHeight + PanelPadding
	for _, f := range fields {
		fy += DrawField(x+PanelPadding, fy, f)
	}
}
