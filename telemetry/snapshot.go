package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/particles"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot holds the committed particle state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Tick    int32 `json:"tick"`

	Particles []ParticleState `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ParticleState holds one particle's state.
type ParticleState struct {
	ID    int        `json:"id"`
	Phase string     `json:"phase"`
	Group uint16     `json:"group,omitempty"`
	Pos   [3]float32 `json:"pos"`
	Vel   [3]float32 `json:"vel"`
}

// ParticleSetter is implemented by anything a snapshot can be restored into.
type ParticleSetter interface {
	SetParticle(id int, pos, vel mgl32.Vec3, phase particles.Phase) error
}

// NewSnapshot builds a snapshot from flat xyz position and velocity buffers.
func NewSnapshot(tick int32, pos, vel []float32, phases []particles.Phase) *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		Tick:      tick,
		Particles: make([]ParticleState, len(phases)),
	}
	for i, ph := range phases {
		s.Particles[i] = ParticleState{
			ID:    i,
			Phase: ph.Kind().String(),
			Group: ph.Group(),
			Pos:   particles.Vec(pos, i),
			Vel:   particles.Vec(vel, i),
		}
	}
	return s
}

// ParsePhase converts a snapshot phase name and group back into a Phase.
func ParsePhase(kind string, group uint16) (particles.Phase, error) {
	switch kind {
	case particles.PhaseLiquid.String():
		return particles.Liquid(), nil
	case particles.PhaseSolid.String():
		return particles.Solid(group), nil
	case particles.PhaseStatic.String():
		return particles.Static(), nil
	}
	return particles.Phase{}, fmt.Errorf("unknown phase %q", kind)
}

// Apply writes every particle in the snapshot into dst.
func (s *Snapshot) Apply(dst ParticleSetter) error {
	for _, p := range s.Particles {
		ph, err := ParsePhase(p.Phase, p.Group)
		if err != nil {
			return fmt.Errorf("particle %d: %w", p.ID, err)
		}
		if err := dst.SetParticle(p.ID, p.Pos, p.Vel, ph); err != nil {
			return fmt.Errorf("particle %d: %w", p.ID, err)
		}
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}
	return &snapshot, nil
}
