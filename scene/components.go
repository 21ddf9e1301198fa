package scene

// BodyKind identifies how a body's particles are simulated.
type BodyKind uint8

const (
	KindFluid BodyKind = iota
	KindStatic
	KindSolid
)

func (k BodyKind) String() string {
	switch k {
	case KindFluid:
		return "fluid"
	case KindStatic:
		return "static"
	case KindSolid:
		return "solid"
	default:
		return "unknown"
	}
}

// Body is a contiguous range of particles that were authored together.
type Body struct {
	Name        string
	Kind        BodyKind
	Group       uint16 // solid group id, 0 for other kinds
	First       int    // first particle id
	Count       int
	Constraints int // distance constraints added for this body
}

// Conveyor makes a body a moving belt: the rest of the world is shifted
// along x at Speed units per second, and Offset accumulates the total.
type Conveyor struct {
	Speed  float32
	Offset float32
}
