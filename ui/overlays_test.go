package ui

import (
	"reflect"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayDefaults(t *testing.T) {
	s := DefaultOverlays()

	for o := Overlay(0); o < numOverlays; o++ {
		want := o == OverlayLiquid || o == OverlaySolid || o == OverlayStatic || o == OverlayBounds
		if s.Has(o) != want {
			t.Errorf("%s enabled = %v, want %v", o.Name(), s.Has(o), want)
		}
	}
	if got := OverlaysIn(GroupPhases); !reflect.DeepEqual(got, []Overlay{OverlayLiquid, OverlaySolid, OverlayStatic}) {
		t.Errorf("phases = %v", got)
	}
	total := 0
	for _, g := range OverlayGroups {
		total += len(OverlaysIn(g))
	}
	if total != int(numOverlays) {
		t.Errorf("groups cover %d overlays, want %d", total, numOverlays)
	}
}

func TestOverlayColorGroupIsExclusive(t *testing.T) {
	s := DefaultOverlays()

	s.Toggle(OverlaySpeed)
	if !s.Has(OverlaySpeed) {
		t.Fatal("speed not enabled")
	}
	s.Toggle(OverlayDensity)
	if s.Has(OverlaySpeed) || !s.Has(OverlayDensity) {
		t.Error("enabling density should disable speed")
	}
	if !s.Has(OverlayLiquid) {
		t.Error("color toggle touched another group")
	}

	// Disabling does not re-enable the other
	s.Set(OverlayDensity, false)
	if s.Has(OverlaySpeed) {
		t.Error("speed re-enabled")
	}
}

func TestOverlayHandleKey(t *testing.T) {
	s := DefaultOverlays()

	o, on, ok := s.HandleKey(rl.KeyOne)
	if !ok || o != OverlayLiquid || on {
		t.Errorf("HandleKey(1) = %v, %v, %v; want liquid, false, true", o, on, ok)
	}
	if _, _, ok := s.HandleKey(rl.KeyZ); ok {
		t.Error("unbound key toggled an overlay")
	}
	before := s
	s.Set(numOverlays, true)
	if s != before {
		t.Error("out of range overlay changed the set")
	}
	if got := OverlayDensity.Label(); got != "Density Error [E]" {
		t.Errorf("Label() = %q", got)
	}
}
