// Package grid implements the uniform neighbor grid rebuilt every tick by a
// parallel counting sort.
//
// Cell membership is derived from estimated positions on each rebuild and is
// never carried across ticks. Coordinates are clamped into range, so every
// particle always lands in some cell.
package grid

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/config"
)

// scanBlock is the number of cells summed by one work item of the prefix scan.
const scanBlock = 1024

// Grid is a fixed-resolution cell partition plus the per-tick sort buffers.
type Grid struct {
	res       [3]int
	cellWidth float32
	invCell   float32
	origin    mgl32.Vec3
	h2        float32
	cellCount int
	n         int

	// Per-tick buffers, rebuilt from scratch every tick
	counts      []int32 // particles per cell (atomic during AssignCells)
	cellStart   []int32
	cellEnd     []int32
	cellOf      []int32 // cell id per particle
	indexInCell []int32 // pre-increment counter value per particle
	sortedIDs   []int32 // particle ids grouped by cell
	blockSums   []int32 // prefix-scan scratch, one per scanBlock cells
}

// New creates a grid for n particles and interaction radius h.
// The cell width must be at least h, otherwise the 3x3x3 query would miss
// neighbors; that is a configuration error, not something to clamp.
func New(cfg config.GridConfig, h float32, n int) (*Grid, error) {
	for axis, r := range cfg.Resolution {
		if r < 1 {
			return nil, &config.ConfigurationError{
				Field:  "grid.resolution",
				Reason: fmt.Sprintf("axis %c must have at least one cell, got %d", 'x'+rune(axis), r),
			}
		}
	}
	if h <= 0 {
		return nil, &config.ConfigurationError{Field: "fluid.radius", Reason: "interaction radius must be positive"}
	}
	if float32(cfg.CellWidth) < h {
		return nil, &config.ConfigurationError{
			Field:  "grid.cell_width",
			Reason: "cell width is smaller than the interaction radius; neighbors would be missed",
		}
	}
	if n < 0 {
		return nil, &config.ConfigurationError{Field: "particles.count", Reason: "must not be negative"}
	}

	cells := cfg.Resolution[0] * cfg.Resolution[1] * cfg.Resolution[2]
	if cells > math.MaxInt32 || n > math.MaxInt32 {
		return nil, &config.ConfigurationError{Field: "grid.resolution", Reason: "too many cells or particles for 32-bit ids"}
	}

	cw := float32(cfg.CellWidth)
	return &Grid{
		res:         cfg.Resolution,
		cellWidth:   cw,
		invCell:     1 / cw,
		origin:      mgl32.Vec3{float32(cfg.Origin[0]), float32(cfg.Origin[1]), float32(cfg.Origin[2])},
		h2:          h * h,
		cellCount:   cells,
		n:           n,
		counts:      make([]int32, cells),
		cellStart:   make([]int32, cells),
		cellEnd:     make([]int32, cells),
		cellOf:      make([]int32, n),
		indexInCell: make([]int32, n),
		sortedIDs:   make([]int32, n),
		blockSums:   make([]int32, (cells+scanBlock-1)/scanBlock),
	}, nil
}

// CellCount returns the number of cells.
func (g *Grid) CellCount() int { return g.cellCount }

// Resolution returns the cell counts per axis.
func (g *Grid) Resolution() [3]int { return g.res }

// CellWidth returns the edge length of a cell.
func (g *Grid) CellWidth() float32 { return g.cellWidth }

// CellCoord maps a position to its clamped cell coordinate.
func (g *Grid) CellCoord(p mgl32.Vec3) [3]int {
	var c [3]int
	for axis := 0; axis < 3; axis++ {
		v := int(math.Floor(float64((p[axis] - g.origin[axis]) * g.invCell)))
		if v < 0 {
			v = 0
		} else if v >= g.res[axis] {
			v = g.res[axis] - 1
		}
		c[axis] = v
	}
	return c
}

// CellID maps a cell coordinate to its row-major id.
func (g *Grid) CellID(c [3]int) int {
	return c[0] + c[1]*g.res[0] + c[2]*g.res[0]*g.res[1]
}

// cellXYZ is the inverse of CellID.
func (g *Grid) cellXYZ(id int) [3]int {
	rx, ry := g.res[0], g.res[1]
	return [3]int{id % rx, (id / rx) % ry, id / (rx * ry)}
}

// CellRange returns the half-open range of SortedIDs belonging to cell id.
func (g *Grid) CellRange(id int) (start, end int) {
	return int(g.cellStart[id]), int(g.cellEnd[id])
}

// CellOf returns the cell id assigned to particle i in the last rebuild.
func (g *Grid) CellOf(i int) int { return int(g.cellOf[i]) }

// SortedIDs exposes the sorted id buffer. Callers must not modify it.
func (g *Grid) SortedIDs() []int32 { return g.sortedIDs }

// Reset zeroes the per-cell counters and the sorted id buffer.
func (g *Grid) Reset(exec compute.Executor) error {
	if err := exec.Dispatch(g.cellCount, resetCellsKernel{g: g}); err != nil {
		return err
	}
	return exec.Dispatch(g.n, resetIDsKernel{g: g})
}

// AssignCells records each particle's cell and its slot within the cell.
func (g *Grid) AssignCells(exec compute.Executor, est []float32) error {
	return exec.Dispatch(g.n, assignCellsKernel{g: g, est: est})
}

// FindCellStartEnd computes the exclusive prefix sum of the cell counts in
// cell id order. Blocks of cells are summed in parallel, the block totals are
// scanned on the caller, then each block writes its ranges in parallel.
func (g *Grid) FindCellStartEnd(exec compute.Executor) error {
	blocks := len(g.blockSums)
	if err := exec.Dispatch(blocks, blockSumKernel{g: g}); err != nil {
		return err
	}

	var running int32
	for b := 0; b < blocks; b++ {
		s := g.blockSums[b]
		g.blockSums[b] = running
		running += s
	}

	return exec.Dispatch(blocks, blockFillKernel{g: g})
}

// SortIDs scatters particle ids into their cell ranges.
func (g *Grid) SortIDs(exec compute.Executor) error {
	return exec.Dispatch(g.n, sortIDsKernel{g: g})
}

// Rebuild runs the whole counting sort over the estimated positions.
func (g *Grid) Rebuild(exec compute.Executor, est []float32) error {
	if err := g.Reset(exec); err != nil {
		return err
	}
	if err := g.AssignCells(exec, est); err != nil {
		return err
	}
	if err := g.FindCellStartEnd(exec); err != nil {
		return err
	}
	return g.SortIDs(exec)
}

// ForEachNeighbor calls fn for every particle j within h of particle i,
// including i itself. d is p_i - p_j and r2 its squared length. Only the
// particle's own cell and its (up to 26) adjacent cells are visited.
func (g *Grid) ForEachNeighbor(i int, est []float32, fn func(j int, d mgl32.Vec3, r2 float32)) {
	pi := mgl32.Vec3{est[3*i], est[3*i+1], est[3*i+2]}
	c := g.cellXYZ(int(g.cellOf[i]))

	x0, x1 := clampRange(c[0], g.res[0])
	y0, y1 := clampRange(c[1], g.res[1])
	z0, z1 := clampRange(c[2], g.res[2])

	rx, rxy := g.res[0], g.res[0]*g.res[1]
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				id := x + y*rx + z*rxy
				for _, sj := range g.sortedIDs[g.cellStart[id]:g.cellEnd[id]] {
					j := int(sj)
					d := mgl32.Vec3{pi[0] - est[3*j], pi[1] - est[3*j+1], pi[2] - est[3*j+2]}
					r2 := d.Dot(d)
					if r2 > g.h2 {
						continue
					}
					fn(j, d, r2)
				}
			}
		}
	}
}

func clampRange(c, res int) (lo, hi int) {
	lo, hi = c-1, c+1
	if lo < 0 {
		lo = 0
	}
	if hi >= res {
		hi = res - 1
	}
	return lo, hi
}

type resetCellsKernel struct{ g *Grid }

func (k resetCellsKernel) Run(start, end int) {
	clear(k.g.counts[start:end])
	clear(k.g.cellStart[start:end])
	clear(k.g.cellEnd[start:end])
}

type resetIDsKernel struct{ g *Grid }

func (k resetIDsKernel) Run(start, end int) {
	clear(k.g.sortedIDs[start:end])
}

type assignCellsKernel struct {
	g   *Grid
	est []float32
}

func (k assignCellsKernel) Run(start, end int) {
	g := k.g
	for i := start; i < end; i++ {
		p := mgl32.Vec3{k.est[3*i], k.est[3*i+1], k.est[3*i+2]}
		id := g.CellID(g.CellCoord(p))
		g.cellOf[i] = int32(id)
		g.indexInCell[i] = atomic.AddInt32(&g.counts[id], 1) - 1
	}
}

type blockSumKernel struct{ g *Grid }

func (k blockSumKernel) Run(start, end int) {
	g := k.g
	for b := start; b < end; b++ {
		c0, c1 := blockCells(b, g.cellCount)
		var sum int32
		for _, n := range g.counts[c0:c1] {
			sum += n
		}
		g.blockSums[b] = sum
	}
}

type blockFillKernel struct{ g *Grid }

func (k blockFillKernel) Run(start, end int) {
	g := k.g
	for b := start; b < end; b++ {
		c0, c1 := blockCells(b, g.cellCount)
		running := g.blockSums[b]
		for c := c0; c < c1; c++ {
			g.cellStart[c] = running
			running += g.counts[c]
			g.cellEnd[c] = running
		}
	}
}

func blockCells(b, cells int) (c0, c1 int) {
	c0 = b * scanBlock
	c1 = c0 + scanBlock
	if c1 > cells {
		c1 = cells
	}
	return c0, c1
}

type sortIDsKernel struct{ g *Grid }

func (k sortIDsKernel) Run(start, end int) {
	g := k.g
	for i := start; i < end; i++ {
		slot := g.cellStart[g.cellOf[i]] + g.indexInCell[i]
		g.sortedIDs[slot] = int32(i)
	}
}
