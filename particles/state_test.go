package particles

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPhaseVariants(t *testing.T) {
	tests := []struct {
		name    string
		phase   Phase
		kind    PhaseKind
		movable bool
		group   uint16
	}{
		{name: "liquid", phase: Liquid(), kind: PhaseLiquid, movable: true},
		{name: "solid", phase: Solid(7), kind: PhaseSolid, movable: true, group: 7},
		{name: "static", phase: Static(), kind: PhaseStatic, movable: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.phase.Kind() != tc.kind {
				t.Errorf("Kind() = %v, want %v", tc.phase.Kind(), tc.kind)
			}
			if tc.phase.IsMovable() != tc.movable {
				t.Errorf("IsMovable() = %v, want %v", tc.phase.IsMovable(), tc.movable)
			}
			if tc.phase.Group() != tc.group {
				t.Errorf("Group() = %d, want %d", tc.phase.Group(), tc.group)
			}
		})
	}

	if !Solid(3).SameBody(Solid(3)) {
		t.Error("solids in the same group should be the same body")
	}
	if Solid(3).SameBody(Solid(4)) || Liquid().SameBody(Liquid()) {
		t.Error("SameBody only holds for solids sharing a group")
	}
}

func TestSetParticleStaticHasZeroInverseMass(t *testing.T) {
	s := New(2)
	if err := s.SetParticle(0, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, Static()); err != nil {
		t.Fatal(err)
	}
	if s.Host.InvMass[0] != 0 {
		t.Errorf("static inverse mass = %f, want 0", s.Host.InvMass[0])
	}
	if err := s.SetInverseMass(0, 2); err == nil {
		t.Error("expected error setting inverse mass on a static particle")
	}

	// Re-authoring a static particle as solid restores a usable mass.
	if err := s.SetParticle(0, mgl32.Vec3{}, mgl32.Vec3{}, Solid(1)); err != nil {
		t.Fatal(err)
	}
	if s.Host.InvMass[0] != 1 {
		t.Errorf("solid inverse mass = %f, want 1", s.Host.InvMass[0])
	}
}

func TestSetParticleOutOfRange(t *testing.T) {
	s := New(3)
	for _, id := range []int{-1, 3, 100} {
		err := s.SetParticle(id, mgl32.Vec3{}, mgl32.Vec3{}, Liquid())
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("id %d: expected ErrIndexOutOfRange, got %v", id, err)
		}
	}
}

func TestPushDirtyMirrorsHost(t *testing.T) {
	s := New(4)
	for i := 0; i < 4; i++ {
		p := mgl32.Vec3{float32(i), float32(2 * i), float32(3 * i)}
		if err := s.SetParticle(i, p, mgl32.Vec3{1, 0, 0}, Liquid()); err != nil {
			t.Fatal(err)
		}
	}
	if s.Dirty() == 0 {
		t.Fatal("expected dirty buffers after authoring")
	}

	s.PushDirty()

	if s.Dirty() != 0 {
		t.Errorf("dirty set not cleared: %b", s.Dirty())
	}
	for i := 0; i < 4; i++ {
		if Vec(s.Device.Pos, i) != s.Position(i) {
			t.Errorf("device pos %d = %v, want %v", i, Vec(s.Device.Pos, i), s.Position(i))
		}
		if Vec(s.Device.Est, i) != s.Position(i) {
			t.Errorf("device est %d not seeded from position", i)
		}
		if s.Device.Phase[i] != Liquid() {
			t.Errorf("device phase %d = %v", i, s.Device.Phase[i])
		}
	}
}

func TestEstRoundTrip(t *testing.T) {
	s := New(2)
	s.PushDirty()

	SetVec(s.Device.Est, 1, mgl32.Vec3{4, 5, 6})
	s.PullEst()
	if Vec(s.Host.Est, 1) != (mgl32.Vec3{4, 5, 6}) {
		t.Fatalf("PullEst did not copy device estimate: %v", Vec(s.Host.Est, 1))
	}

	AddVec(s.Host.Est, 1, mgl32.Vec3{1, 1, 1})
	s.PushEst()
	if Vec(s.Device.Est, 1) != (mgl32.Vec3{5, 6, 7}) {
		t.Fatalf("PushEst did not copy host estimate: %v", Vec(s.Device.Est, 1))
	}
}
