// Package scene lays out the demo bodies, stores them as ECS entities and
// writes their particles and constraints into an engine.
package scene

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/engine"
	"github.com/pthm-cable/pbd/particles"
	"github.com/pthm-cable/pbd/shapes"
)

type layout struct {
	entity  ecs.Entity
	lattice *shapes.Lattice
	phase   particles.Phase
	edges   bool
}

// Scene holds the body registry. Build the layout with New, size the engine
// with ParticleCount, then call Populate.
type Scene struct {
	world *ecs.World

	bodyMapper     *ecs.Map1[Body]
	conveyorMapper *ecs.Map2[Body, Conveyor]
	bodyFilter     ecs.Filter1[Body]

	Conveyors *ConveyorSystem

	layouts   []layout
	count     int
	nextGroup uint16
}

// New lays out the bodies described by cfg.Scene inside the grid box.
func New(cfg *config.Config) *Scene {
	world := ecs.NewWorld()
	s := &Scene{
		world:          world,
		bodyMapper:     ecs.NewMap1[Body](world),
		conveyorMapper: ecs.NewMap2[Body, Conveyor](world),
		bodyFilter:     *ecs.NewFilter1[Body](world),
		Conveyors:      NewConveyorSystem(world),
		nextGroup:      1,
	}

	sc := cfg.Scene
	spacing := float32(sc.Spacing)
	lo := mgl32.Vec3(cfg.Derived.WorldMin)
	r := float32(cfg.Particles.Radius)

	if sc.FloorSize[0] > 0 && sc.FloorSize[1] > 0 {
		origin := lo.Add(mgl32.Vec3{spacing / 2, r, spacing / 2})
		floor := shapes.Box(origin, [3]int{sc.FloorSize[0], 1, sc.FloorSize[1]}, spacing)
		s.add("floor", KindStatic, floor, particles.Static(), false, float32(sc.ConveyorSpeed))
	}

	if d := sc.FluidBlock; d[0] > 0 && d[1] > 0 && d[2] > 0 {
		block := shapes.Box(vec64(sc.FluidOrigin), d, spacing)
		s.add("fluid", KindFluid, block, particles.Liquid(), false, 0)
	}

	if sc.SphereRadius > 0 {
		sphere := shapes.Sphere(vec64(sc.SphereCenter), float32(sc.SphereRadius), spacing)
		s.AddSolid("sphere", sphere)
	}

	return s
}

func vec64(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// AddSolid registers a deformable body held together by its lattice edges.
// Each solid gets its own group so it collides with other solids.
func (s *Scene) AddSolid(name string, l *shapes.Lattice) int {
	g := s.nextGroup
	s.nextGroup++
	return s.add(name, KindSolid, l, particles.Solid(g), true, 0)
}

// AddFluid registers a block of liquid particles.
func (s *Scene) AddFluid(name string, l *shapes.Lattice) int {
	return s.add(name, KindFluid, l, particles.Liquid(), false, 0)
}

// AddStatic registers immovable boundary particles.
func (s *Scene) AddStatic(name string, l *shapes.Lattice) int {
	return s.add(name, KindStatic, l, particles.Static(), false, 0)
}

// add records a body and returns its first particle id.
func (s *Scene) add(name string, kind BodyKind, l *shapes.Lattice, phase particles.Phase, edges bool, conveyor float32) int {
	body := Body{Name: name, Kind: kind, Group: phase.Group(), First: s.count, Count: l.Len()}
	var e ecs.Entity
	if conveyor != 0 {
		e = s.conveyorMapper.NewEntity(&body, &Conveyor{Speed: conveyor})
	} else {
		e = s.bodyMapper.NewEntity(&body)
	}
	s.layouts = append(s.layouts, layout{entity: e, lattice: l, phase: phase, edges: edges})
	s.count += l.Len()
	return body.First
}

// ParticleCount is the number of particles Populate will write.
func (s *Scene) ParticleCount() int { return s.count }

// Populate writes every body into e. The engine must have been created with
// at least ParticleCount particles.
func (s *Scene) Populate(e *engine.Engine) error {
	if e.Len() < s.count {
		return fmt.Errorf("scene needs %d particles, engine has %d: %w", s.count, e.Len(), particles.ErrIndexOutOfRange)
	}
	for _, l := range s.layouts {
		body := s.bodyMapper.Get(l.entity)
		for i, p := range l.lattice.Points {
			if err := e.SetParticle(body.First+i, p, mgl32.Vec3{}, l.phase); err != nil {
				return fmt.Errorf("body %s: %w", body.Name, err)
			}
		}
		if !l.edges {
			continue
		}
		for _, edge := range l.lattice.Edges() {
			if err := e.AddDistanceConstraint(body.First+edge[0], body.First+edge[1]); err != nil {
				return fmt.Errorf("body %s: %w", body.Name, err)
			}
			body.Constraints++
		}
	}

	// Unused particles are parked as static in the grid's lower corner.
	for id := s.count; id < e.Len(); id++ {
		if err := e.SetParticle(id, mgl32.Vec3(e.Config().Derived.WorldMin), mgl32.Vec3{}, particles.Static()); err != nil {
			return err
		}
	}

	for _, b := range s.Bodies() {
		slog.Info("scene body",
			"name", b.Name,
			"kind", b.Kind.String(),
			"particles", b.Count,
			"constraints", b.Constraints,
		)
	}
	return nil
}

// Bodies returns a copy of every registered body, in creation order.
func (s *Scene) Bodies() []Body {
	out := make([]Body, 0, len(s.layouts))
	for _, l := range s.layouts {
		out = append(out, *s.bodyMapper.Get(l.entity))
	}
	return out
}

// Count returns the number of bodies of the given kind, by ECS query.
func (s *Scene) Count(kind BodyKind) int {
	n := 0
	query := s.bodyFilter.Query()
	for query.Next() {
		if query.Get().Kind == kind {
			n++
		}
	}
	return n
}
