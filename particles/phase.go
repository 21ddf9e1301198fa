package particles

import "fmt"

// PhaseKind identifies how a particle participates in the solve.
type PhaseKind uint8

const (
	PhaseLiquid PhaseKind = iota // density constraints, vorticity, viscosity
	PhaseSolid                   // contact constraints, optionally distance constraints
	PhaseStatic                  // never displaced, still pushes others
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseLiquid:
		return "liquid"
	case PhaseSolid:
		return "solid"
	case PhaseStatic:
		return "static"
	default:
		return fmt.Sprintf("PhaseKind(%d)", uint8(k))
	}
}

// Phase is a tagged variant: Liquid, Solid{group} or Static.
// Solid particles sharing a group do not collide with each other; they are
// expected to be held together by distance constraints.
type Phase struct {
	kind  PhaseKind
	group uint16
}

// Liquid returns the liquid phase.
func Liquid() Phase { return Phase{kind: PhaseLiquid} }

// Solid returns a solid phase belonging to group.
func Solid(group uint16) Phase { return Phase{kind: PhaseSolid, group: group} }

// Static returns the static phase.
func Static() Phase { return Phase{kind: PhaseStatic} }

func (p Phase) Kind() PhaseKind { return p.kind }

// Group is the solid group id; zero for other phases.
func (p Phase) Group() uint16 { return p.group }

// IsMovable reports whether solvers may displace the particle.
func (p Phase) IsMovable() bool { return p.kind != PhaseStatic }

func (p Phase) IsLiquid() bool { return p.kind == PhaseLiquid }
func (p Phase) IsSolid() bool  { return p.kind == PhaseSolid }
func (p Phase) IsStatic() bool { return p.kind == PhaseStatic }

// SameBody reports whether two solid phases belong to the same group.
func (p Phase) SameBody(o Phase) bool {
	return p.kind == PhaseSolid && o.kind == PhaseSolid && p.group == o.group
}

func (p Phase) String() string {
	if p.kind == PhaseSolid {
		return fmt.Sprintf("solid{%d}", p.group)
	}
	return p.kind.String()
}
