// Package particles holds flat per-particle arrays and their device mirror.
//
// The host copy is authoritative between ticks. The device copy is what the
// parallel stages read and write during a tick. Buffers are sized once at
// construction and never resized.
package particles

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/blas/blas32"
)

// ErrIndexOutOfRange is returned for particle ids outside [0,N).
var ErrIndexOutOfRange = errors.New("particle index out of range")

// Arrays is one copy of the particle buffers. Vector quantities are stored
// xyz-interleaved, 3 floats per particle.
type Arrays struct {
	Pos     []float32
	Vel     []float32
	Est     []float32
	InvMass []float32
	Phase   []Phase
}

func newArrays(n int) Arrays {
	return Arrays{
		Pos:     make([]float32, 3*n),
		Vel:     make([]float32, 3*n),
		Est:     make([]float32, 3*n),
		InvMass: make([]float32, n),
		Phase:   make([]Phase, n),
	}
}

// Buffer flags used for dirty tracking.
type Buffer uint8

const (
	BufPos Buffer = 1 << iota
	BufVel
	BufEst
	BufInvMass
	BufPhase

	BufAll = BufPos | BufVel | BufEst | BufInvMass | BufPhase
)

// State is the particle store: a host copy, a device copy and the set of
// host buffers modified since the last push.
type State struct {
	n      int
	Host   Arrays
	Device Arrays
	dirty  Buffer
}

// New allocates state for n particles. All particles start as liquid at the
// origin with unit inverse mass.
func New(n int) *State {
	s := &State{
		n:      n,
		Host:   newArrays(n),
		Device: newArrays(n),
		dirty:  BufAll,
	}
	for i := range s.Host.InvMass {
		s.Host.InvMass[i] = 1
	}
	return s
}

// Len returns the particle count.
func (s *State) Len() int { return s.n }

// Dirty returns the buffers waiting to be pushed.
func (s *State) Dirty() Buffer { return s.dirty }

func (s *State) check(id int) error {
	if id < 0 || id >= s.n {
		return fmt.Errorf("particle %d of %d: %w", id, s.n, ErrIndexOutOfRange)
	}
	return nil
}

// SetParticle sets initial position, velocity and phase. Static particles
// get zero inverse mass; others keep their current inverse mass.
func (s *State) SetParticle(id int, pos, vel mgl32.Vec3, phase Phase) error {
	if err := s.check(id); err != nil {
		return err
	}
	SetVec(s.Host.Pos, id, pos)
	SetVec(s.Host.Est, id, pos)
	SetVec(s.Host.Vel, id, vel)
	s.Host.Phase[id] = phase
	if !phase.IsMovable() {
		s.Host.InvMass[id] = 0
	} else if s.Host.InvMass[id] == 0 {
		s.Host.InvMass[id] = 1
	}
	s.dirty |= BufPos | BufEst | BufVel | BufPhase | BufInvMass
	return nil
}

// SetInverseMass overrides the inverse mass of a movable particle.
func (s *State) SetInverseMass(id int, w float32) error {
	if err := s.check(id); err != nil {
		return err
	}
	if !s.Host.Phase[id].IsMovable() {
		return fmt.Errorf("particle %d is static: inverse mass is fixed at 0", id)
	}
	if w <= 0 {
		return fmt.Errorf("particle %d: inverse mass must be positive, got %g", id, w)
	}
	s.Host.InvMass[id] = w
	s.dirty |= BufInvMass
	return nil
}

// Position returns the host position of particle id.
func (s *State) Position(id int) mgl32.Vec3 { return Vec(s.Host.Pos, id) }

// Velocity returns the host velocity of particle id.
func (s *State) Velocity(id int) mgl32.Vec3 { return Vec(s.Host.Vel, id) }

// PushDirty copies every dirty host buffer to the device and clears the
// dirty set.
func (s *State) PushDirty() {
	if s.dirty&BufPos != 0 {
		copyFloats(s.Host.Pos, s.Device.Pos)
	}
	if s.dirty&BufVel != 0 {
		copyFloats(s.Host.Vel, s.Device.Vel)
	}
	if s.dirty&BufEst != 0 {
		copyFloats(s.Host.Est, s.Device.Est)
	}
	if s.dirty&BufInvMass != 0 {
		copyFloats(s.Host.InvMass, s.Device.InvMass)
	}
	if s.dirty&BufPhase != 0 {
		copy(s.Device.Phase, s.Host.Phase)
	}
	s.dirty = 0
}

// PullEst copies estimated positions from device to host.
func (s *State) PullEst() { copyFloats(s.Device.Est, s.Host.Est) }

// PushEst copies estimated positions from host to device.
func (s *State) PushEst() { copyFloats(s.Host.Est, s.Device.Est) }

// PullPosVel copies committed positions and velocities back to the host.
func (s *State) PullPosVel() {
	copyFloats(s.Device.Pos, s.Host.Pos)
	copyFloats(s.Device.Vel, s.Host.Vel)
}

func copyFloats(src, dst []float32) {
	if len(src) == 0 {
		return
	}
	blas32.Copy(
		blas32.Vector{N: len(src), Inc: 1, Data: src},
		blas32.Vector{N: len(dst), Inc: 1, Data: dst},
	)
}

// Vec loads particle i from an interleaved buffer.
func Vec(buf []float32, i int) mgl32.Vec3 {
	j := 3 * i
	return mgl32.Vec3{buf[j], buf[j+1], buf[j+2]}
}

// SetVec stores v as particle i in an interleaved buffer.
func SetVec(buf []float32, i int, v mgl32.Vec3) {
	j := 3 * i
	buf[j] = v[0]
	buf[j+1] = v[1]
	buf[j+2] = v[2]
}

// AddVec adds v to particle i in an interleaved buffer.
func AddVec(buf []float32, i int, v mgl32.Vec3) {
	j := 3 * i
	buf[j] += v[0]
	buf[j+1] += v[1]
	buf[j+2] += v[2]
}
