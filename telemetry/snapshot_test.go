package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/particles"
)

type recordingSetter struct {
	pos    map[int]mgl32.Vec3
	vel    map[int]mgl32.Vec3
	phases map[int]particles.Phase
}

func newRecordingSetter() *recordingSetter {
	return &recordingSetter{
		pos:    map[int]mgl32.Vec3{},
		vel:    map[int]mgl32.Vec3{},
		phases: map[int]particles.Phase{},
	}
}

func (r *recordingSetter) SetParticle(id int, pos, vel mgl32.Vec3, phase particles.Phase) error {
	r.pos[id] = pos
	r.vel[id] = vel
	r.phases[id] = phase
	return nil
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	pos := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8}
	vel := []float32{0.5, 0, 0, 0, -1, 0, 0, 0, 0}
	phases := []particles.Phase{particles.Liquid(), particles.Solid(3), particles.Static()}

	snapshot := NewSnapshot(1000, pos, vel, phases)
	snapshot.Seed = 42
	snapshot.Bookmark = &Bookmark{
		Type:        BookmarkDensitySpike,
		Tick:        1000,
		Description: "Test bookmark",
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if want := "snapshot_1000_density_spike.json"; filepath.Base(path) != want {
		t.Errorf("file name = %s, want %s", filepath.Base(path), want)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != SnapshotVersion || loaded.Seed != 42 || loaded.Tick != 1000 {
		t.Errorf("header = v%d seed %d tick %d", loaded.Version, loaded.Seed, loaded.Tick)
	}
	if len(loaded.Particles) != 3 {
		t.Fatalf("particles = %d, want 3", len(loaded.Particles))
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkDensitySpike {
		t.Errorf("bookmark not preserved: %+v", loaded.Bookmark)
	}

	dst := newRecordingSetter()
	if err := loaded.Apply(dst); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for i, ph := range phases {
		if dst.phases[i] != ph {
			t.Errorf("particle %d phase = %v, want %v", i, dst.phases[i], ph)
		}
		if dst.pos[i] != particles.Vec(pos, i) {
			t.Errorf("particle %d pos = %v, want %v", i, dst.pos[i], particles.Vec(pos, i))
		}
		if dst.vel[i] != particles.Vec(vel, i) {
			t.Errorf("particle %d vel = %v, want %v", i, dst.vel[i], particles.Vec(vel, i))
		}
	}
}

func TestSnapshotFilenameWithoutBookmark(t *testing.T) {
	s := NewSnapshot(5, make([]float32, 3), make([]float32, 3), []particles.Phase{particles.Liquid()})
	path, err := SaveSnapshot(s, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "snapshot_5.json" {
		t.Errorf("file name = %s", filepath.Base(path))
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "tick": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); !errors.Is(err, ErrSnapshotVersion) {
		t.Errorf("expected ErrSnapshotVersion, got %v", err)
	}
}

func TestApplyRejectsUnknownPhase(t *testing.T) {
	s := &Snapshot{
		Version:   SnapshotVersion,
		Particles: []ParticleState{{ID: 0, Phase: "plasma"}},
	}
	err := s.Apply(newRecordingSetter())
	if err == nil || !strings.Contains(err.Error(), "plasma") {
		t.Errorf("expected unknown phase error, got %v", err)
	}
}
