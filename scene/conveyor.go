package scene

import (
	"github.com/mlange-42/ark/ecs"
)

// ConveyorSystem turns conveyor bodies into the engine's per-tick world shift.
type ConveyorSystem struct {
	filter ecs.Filter2[Body, Conveyor]
	paused bool
}

// NewConveyorSystem creates a conveyor system over w.
func NewConveyorSystem(w *ecs.World) *ConveyorSystem {
	return &ConveyorSystem{
		filter: *ecs.NewFilter2[Body, Conveyor](w),
	}
}

// SetPaused stops or resumes all conveyors.
func (s *ConveyorSystem) SetPaused(p bool) { s.paused = p }

// SetSpeed overrides the speed of every conveyor.
func (s *ConveyorSystem) SetSpeed(speed float32) {
	query := s.filter.Query()
	for query.Next() {
		_, c := query.Get()
		c.Speed = speed
	}
}

// Update advances every conveyor by dt and returns the total shift to apply
// this tick.
func (s *ConveyorSystem) Update(dt float32) float32 {
	var shift float32
	query := s.filter.Query()
	for query.Next() {
		_, c := query.Get()
		if s.paused {
			continue
		}
		d := c.Speed * dt
		c.Offset += d
		shift += d
	}
	return shift
}

// Len returns the number of conveyor bodies.
func (s *ConveyorSystem) Len() int {
	var n int
	query := s.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Speed returns the speed of the first conveyor, or 0 if there is none.
func (s *ConveyorSystem) Speed() float32 {
	var speed float32
	found := false
	query := s.filter.Query()
	for query.Next() {
		_, c := query.Get()
		if !found {
			speed, found = c.Speed, true
		}
	}
	return speed
}
