package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/grid"
	"github.com/pthm-cable/pbd/particles"
)

// Contact resolves overlap between solid particles and any non-liquid
// neighbor. Solids of the same group are skipped.
type Contact struct {
	grid *grid.Grid
	dist float32 // contact distance, 2 * particle radius

	// Contacts holds the number of contacts per particle from the last solve.
	Contacts []int32
}

// NewContact creates a contact solver for n particles with contact distance
// dist. dist must not exceed the grid's interaction radius.
func NewContact(g *grid.Grid, dist float32, n int) *Contact {
	return &Contact{grid: g, dist: dist, Contacts: make([]int32, n)}
}

// Distance returns the contact distance.
func (c *Contact) Distance() float32 { return c.dist }

// ComputeCorrection adds each solid particle's share of its contact
// corrections to corr, averaged over its contacts this tick.
func (c *Contact) ComputeCorrection(exec compute.Executor, dev *particles.Arrays, corr []float32) error {
	return exec.Dispatch(len(c.Contacts), contactKernel{c: c, est: dev.Est, invMass: dev.InvMass, phase: dev.Phase, corr: corr})
}

type contactKernel struct {
	c       *Contact
	est     []float32
	invMass []float32
	phase   []particles.Phase
	corr    []float32
}

func (k contactKernel) Run(start, end int) {
	c := k.c
	dist2 := c.dist * c.dist
	for i := start; i < end; i++ {
		pi := k.phase[i]
		c.Contacts[i] = 0
		if !pi.IsSolid() {
			continue
		}
		wi := k.invMass[i]
		if wi == 0 {
			continue
		}

		var dp mgl32.Vec3
		var count int32
		c.grid.ForEachNeighbor(i, k.est, func(j int, d mgl32.Vec3, r2 float32) {
			if j == i || r2 >= dist2 || r2 <= 1e-12 {
				return
			}
			pj := k.phase[j]
			if pj.IsLiquid() || pi.SameBody(pj) {
				return
			}
			wj := k.invMass[j]
			r := float32(math.Sqrt(float64(r2)))
			share := wi / (wi + wj) * (c.dist - r)
			dp = dp.Add(d.Mul(share / r))
			count++
		})

		c.Contacts[i] = count
		if count > 0 {
			particles.AddVec(k.corr, i, dp.Mul(1/float32(count)))
		}
	}
}
