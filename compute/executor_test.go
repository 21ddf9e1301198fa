package compute

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/pbd/config"
)

func executors() map[string]Executor {
	return map[string]Executor{
		"serial":      NewSerial(),
		"pool":        NewPool(4, 1),
		"pool-inline": NewPool(4, 1<<20),
	}
}

func TestDispatchVisitsEveryItemOnce(t *testing.T) {
	for name, exec := range executors() {
		t.Run(name, func(t *testing.T) {
			defer exec.Close()

			for _, n := range []int{0, 1, 3, 7, 64, 1001} {
				hits := make([]int32, n)
				err := exec.Dispatch(n, KernelFunc(func(start, end int) {
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				}))
				if err != nil {
					t.Fatalf("n=%d: unexpected error: %v", n, err)
				}
				for i, h := range hits {
					if h != 1 {
						t.Fatalf("n=%d: item %d visited %d times", n, i, h)
					}
				}
			}
		})
	}
}

func TestDispatchIsBarrier(t *testing.T) {
	pool := NewPool(8, 1)
	defer pool.Close()

	const n = 4096
	a := make([]int, n)
	b := make([]int, n)

	for round := 0; round < 20; round++ {
		if err := pool.Dispatch(n, KernelFunc(func(start, end int) {
			for i := start; i < end; i++ {
				a[i] = round
			}
		})); err != nil {
			t.Fatal(err)
		}
		// Reads the mirror slot of another chunk; only correct if the
		// previous dispatch has fully completed.
		if err := pool.Dispatch(n, KernelFunc(func(start, end int) {
			for i := start; i < end; i++ {
				b[i] = a[n-1-i]
			}
		})); err != nil {
			t.Fatal(err)
		}
		for i := range b {
			if b[i] != round {
				t.Fatalf("round %d: b[%d] = %d", round, i, b[i])
			}
		}
	}
}

func TestKernelPanicBecomesDeviceError(t *testing.T) {
	for name, exec := range executors() {
		t.Run(name, func(t *testing.T) {
			defer exec.Close()

			err := exec.Dispatch(100, KernelFunc(func(start, end int) {
				panic("boom")
			}))
			var devErr *DeviceError
			if !errors.As(err, &devErr) {
				t.Fatalf("expected DeviceError, got %v", err)
			}
		})
	}
}

func TestDispatchAfterClose(t *testing.T) {
	for name, exec := range executors() {
		t.Run(name, func(t *testing.T) {
			exec.Close()
			err := exec.Dispatch(10, KernelFunc(func(start, end int) {}))
			var devErr *DeviceError
			if !errors.As(err, &devErr) {
				t.Fatalf("expected DeviceError after close, got %v", err)
			}
			if !errors.Is(err, errClosed) {
				t.Errorf("expected wrapped errClosed, got %v", err)
			}
		})
	}
}

func TestNewBackendSelection(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{backend: "pool", want: BackendPool},
		{backend: "", want: BackendPool},
		{backend: "serial", want: BackendSerial},
		{backend: "opencl", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			exec, err := New(config.ExecutorConfig{Backend: tc.backend, Workers: 2})
			if tc.wantErr {
				var devErr *DeviceError
				if !errors.As(err, &devErr) {
					t.Fatalf("expected DeviceError, got %v", err)
				}
				if devErr.Op != "init" {
					t.Errorf("Op = %q, want init", devErr.Op)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer exec.Close()
			if exec.Name() != tc.want {
				t.Errorf("Name() = %q, want %q", exec.Name(), tc.want)
			}
		})
	}
}

func BenchmarkPoolDispatch(b *testing.B) {
	pool := NewPool(runtime.GOMAXPROCS(0), 1)
	defer pool.Close()
	data := make([]float32, 1<<16)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = pool.Dispatch(len(data), KernelFunc(func(start, end int) {
			for i := start; i < end; i++ {
				data[i] += 1
			}
		}))
	}
}
