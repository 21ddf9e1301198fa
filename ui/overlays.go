package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Overlay is a viewer toggle.
type Overlay uint8

const (
	OverlayLiquid Overlay = iota
	OverlaySolid
	OverlayStatic
	OverlaySpeed
	OverlayDensity
	OverlayConstraints
	OverlayBounds
	numOverlays
)

// Overlay groups, in display order.
const (
	GroupPhases = "phases"
	GroupColor  = "color"
	GroupDebug  = "debug"
)

// OverlayGroups lists the groups in display order.
var OverlayGroups = []string{GroupPhases, GroupColor, GroupDebug}

type overlayInfo struct {
	name  string
	key   int32
	label string
	group string
}

var overlayTable = [numOverlays]overlayInfo{
	OverlayLiquid:      {"Liquid", rl.KeyOne, "1", GroupPhases},
	OverlaySolid:       {"Solid", rl.KeyTwo, "2", GroupPhases},
	OverlayStatic:      {"Static", rl.KeyThree, "3", GroupPhases},
	OverlaySpeed:       {"Speed", rl.KeyV, "V", GroupColor},
	OverlayDensity:     {"Density Error", rl.KeyE, "E", GroupColor},
	OverlayConstraints: {"Constraints", rl.KeyC, "C", GroupDebug},
	OverlayBounds:      {"Grid Bounds", rl.KeyB, "B", GroupDebug},
}

// Name is the display name.
func (o Overlay) Name() string { return overlayTable[o].name }

// Label is the display name with the toggle key.
func (o Overlay) Label() string { return overlayTable[o].name + " [" + overlayTable[o].label + "]" }

// Group returns the overlay's group.
func (o Overlay) Group() string { return overlayTable[o].group }

// OverlaysIn returns the overlays of a group in table order.
func OverlaysIn(group string) []Overlay {
	var out []Overlay
	for o := Overlay(0); o < numOverlays; o++ {
		if overlayTable[o].group == group {
			out = append(out, o)
		}
	}
	return out
}

// OverlaySet is the set of enabled overlays. At most one overlay of the
// color group is enabled at a time.
type OverlaySet uint32

// DefaultOverlays draws every phase and the grid bounds.
func DefaultOverlays() OverlaySet {
	return OverlaySet(0).with(OverlayLiquid).with(OverlaySolid).with(OverlayStatic).with(OverlayBounds)
}

func (s OverlaySet) with(o Overlay) OverlaySet { return s | 1<<o }

// Has reports whether o is enabled.
func (s OverlaySet) Has(o Overlay) bool { return s&(1<<o) != 0 }

// Set enables or disables o. Enabling a color overlay disables the others.
func (s *OverlaySet) Set(o Overlay, on bool) {
	if o >= numOverlays {
		return
	}
	if !on {
		*s &^= 1 << o
		return
	}
	if o.Group() == GroupColor {
		for _, other := range OverlaysIn(GroupColor) {
			*s &^= 1 << other
		}
	}
	*s |= 1 << o
}

// Toggle flips o and returns its new state.
func (s *OverlaySet) Toggle(o Overlay) bool {
	s.Set(o, !s.Has(o))
	return s.Has(o)
}

// HandleKey toggles the overlay bound to key. ok is false for unbound keys.
func (s *OverlaySet) HandleKey(key int32) (o Overlay, on, ok bool) {
	for o := Overlay(0); o < numOverlays; o++ {
		if overlayTable[o].key == key {
			return o, s.Toggle(o), true
		}
	}
	return 0, false, false
}
