// Package shapes generates particle lattices for scene bodies and the
// distance-constraint edges that hold deformable lattices together.
package shapes

import (
	"github.com/go-gl/mathgl/mgl32"
)

// EdgeDirCount is the number of neighbor offsets that cover every lattice
// edge exactly once: 3 axes, 6 face diagonals and 4 space diagonals.
const EdgeDirCount = 13

var edgeDirs = [EdgeDirCount][3]int{
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	{1, 1, 0}, {1, -1, 0}, {1, 0, 1}, {1, 0, -1}, {0, 1, 1}, {0, 1, -1},
	{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
}

// Lattice is a set of points on a cubic lattice. Points keep the order they
// were generated in; Coords holds each point's integer lattice coordinate.
type Lattice struct {
	Points  []mgl32.Vec3
	Coords  [][3]int
	Spacing float32

	index map[[3]int]int
}

func newLattice(spacing float32) *Lattice {
	return &Lattice{Spacing: spacing, index: make(map[[3]int]int)}
}

func (l *Lattice) add(c [3]int, p mgl32.Vec3) {
	l.index[c] = len(l.Points)
	l.Points = append(l.Points, p)
	l.Coords = append(l.Coords, c)
}

// Len returns the number of points.
func (l *Lattice) Len() int { return len(l.Points) }

// Box fills dims[0] x dims[1] x dims[2] points starting at origin, x fastest.
func Box(origin mgl32.Vec3, dims [3]int, spacing float32) *Lattice {
	l := newLattice(spacing)
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				c := [3]int{x, y, z}
				l.add(c, origin.Add(mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(spacing)))
			}
		}
	}
	return l
}

// Sphere keeps the lattice points within radius of center. The lattice is
// aligned so that center is a lattice point.
func Sphere(center mgl32.Vec3, radius, spacing float32) *Lattice {
	l := newLattice(spacing)
	if radius < 0 || spacing <= 0 {
		return l
	}
	r := int(radius / spacing)
	r2 := radius * radius
	for z := -r; z <= r; z++ {
		for y := -r; y <= r; y++ {
			for x := -r; x <= r; x++ {
				off := mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(spacing)
				if off.Dot(off) > r2 {
					continue
				}
				l.add([3]int{x, y, z}, center.Add(off))
			}
		}
	}
	return l
}

// Edges returns each pair of lattice neighbors once, as indices into Points.
// Neighbors are the 26 surrounding lattice sites; the 13 positive-half
// offsets visit every unordered pair from exactly one end.
func (l *Lattice) Edges() [][2]int {
	var edges [][2]int
	for i, c := range l.Coords {
		for _, d := range edgeDirs {
			j, ok := l.index[[3]int{c[0] + d[0], c[1] + d[1], c[2] + d[2]}]
			if ok {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// Bounds returns the axis-aligned bounding box of the points.
func (l *Lattice) Bounds() (lo, hi mgl32.Vec3) {
	if len(l.Points) == 0 {
		return lo, hi
	}
	lo, hi = l.Points[0], l.Points[0]
	for _, p := range l.Points[1:] {
		for axis := 0; axis < 3; axis++ {
			lo[axis] = min(lo[axis], p[axis])
			hi[axis] = max(hi[axis], p[axis])
		}
	}
	return lo, hi
}
