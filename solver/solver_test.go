package solver

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/pbd/compute"
	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/grid"
	"github.com/pthm-cable/pbd/particles"
)

// fixture is a small particle world with unit interaction radius.
type fixture struct {
	state *particles.State
	grid  *grid.Grid
	exec  compute.Executor
	corr  []float32
}

type seed struct {
	pos   mgl32.Vec3
	vel   mgl32.Vec3
	phase particles.Phase
}

func newFixture(t *testing.T, seeds []seed) *fixture {
	t.Helper()
	n := len(seeds)
	st := particles.New(n)
	for i, s := range seeds {
		if err := st.SetParticle(i, s.pos, s.vel, s.phase); err != nil {
			t.Fatal(err)
		}
	}
	g, err := grid.New(config.GridConfig{
		Resolution: [3]int{8, 8, 8},
		CellWidth:  1,
		Origin:     [3]float64{-4, -4, -4},
	}, 1, n)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{state: st, grid: g, exec: compute.NewSerial(), corr: make([]float32, 3*n)}
}

// sync pushes host buffers and rebuilds the grid.
func (f *fixture) sync(t *testing.T) {
	t.Helper()
	f.state.PushDirty()
	if err := f.grid.Rebuild(f.exec, f.state.Device.Est); err != nil {
		t.Fatal(err)
	}
	clear(f.corr)
}

func (f *fixture) correction(i int) mgl32.Vec3 { return particles.Vec(f.corr, i) }

func vecNear(a, b mgl32.Vec3, eps float32) bool {
	return a.ApproxEqualThreshold(b, eps)
}

func near(a, b, eps float32) bool { return mgl32.Abs(a-b) <= eps }
