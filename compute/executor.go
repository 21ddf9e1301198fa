// Package compute dispatches data-parallel work across independent items.
//
// It has no simulation knowledge. Every stage of the engine is a Kernel: a
// typed struct holding that stage's parameters and buffers, run over
// contiguous index ranges. Dispatch is a full barrier.
package compute

import (
	"fmt"
	"runtime"

	"github.com/pthm-cable/pbd/config"
)

// Kernel is one data-parallel stage. Run processes items [start, end).
// Items must be independent; the only shared writes allowed are atomics and
// per-item slots.
type Kernel interface {
	Run(start, end int)
}

// KernelFunc adapts a function to the Kernel interface.
type KernelFunc func(start, end int)

// Run calls f(start, end).
func (f KernelFunc) Run(start, end int) { f(start, end) }

// Executor runs a kernel over n items and returns once all of them are done.
type Executor interface {
	Name() string
	Dispatch(n int, k Kernel) error
	Close()
}

// Backend names accepted by New.
const (
	BackendPool   = "pool"
	BackendSerial = "serial"
)

// DeviceError is an unrecoverable failure of the dispatch facility.
type DeviceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("compute: %s backend: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// New creates the backend named in cfg. An unknown backend is a DeviceError;
// there is no fallback to another backend.
func New(cfg config.ExecutorConfig) (Executor, error) {
	switch cfg.Backend {
	case BackendPool, "":
		workers := cfg.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		return NewPool(workers, cfg.Threshold), nil
	case BackendSerial:
		return NewSerial(), nil
	default:
		return nil, &DeviceError{
			Backend: cfg.Backend,
			Op:      "init",
			Err:     fmt.Errorf("unknown backend %q", cfg.Backend),
		}
	}
}

// Serial runs every kernel on the calling goroutine in index order.
type Serial struct {
	closed bool
}

// NewSerial creates a single-goroutine executor.
func NewSerial() *Serial {
	return &Serial{}
}

func (s *Serial) Name() string { return BackendSerial }

// Dispatch runs k over [0,n) in one call.
func (s *Serial) Dispatch(n int, k Kernel) (err error) {
	if s.closed {
		return &DeviceError{Backend: BackendSerial, Op: "dispatch", Err: errClosed}
	}
	if n <= 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &DeviceError{Backend: BackendSerial, Op: "dispatch", Err: fmt.Errorf("kernel panic: %v", r)}
		}
	}()
	k.Run(0, n)
	return nil
}

func (s *Serial) Close() { s.closed = true }
