package compute

import (
	"errors"
	"fmt"
	"sync"
)

var errClosed = errors.New("executor closed")

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	kernel     Kernel
}

// chunkResult is sent by a worker after finishing a chunk.
type chunkResult struct {
	err error
}

// Pool is a persistent worker pool. Workers are started lazily on the first
// dispatch that is large enough and live until Close.
type Pool struct {
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk   // sends work to workers
	doneChan chan chunkResult // workers signal completion
	stopChan chan struct{}    // signals workers to exit
	wg       sync.WaitGroup   // tracks active workers
	running  bool             // true if workers are running
	closed   bool

	mu sync.Mutex // serialises Dispatch calls
}

// NewPool creates a pool with the given number of workers. Dispatches with
// fewer than threshold items run inline on the caller.
func NewPool(workers, threshold int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if threshold < 1 {
		threshold = 1
	}
	return &Pool{
		numWorkers: workers,
		threshold:  threshold,
	}
}

func (p *Pool) Name() string { return BackendPool }

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.numWorkers }

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan chunkResult, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.doneChan <- chunkResult{err: runChunk(chunk)}
		}
	}
}

// runChunk executes one chunk, converting a kernel panic into an error so a
// bad stage cannot take the worker down silently.
func runChunk(chunk workChunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel panic in [%d,%d): %v", chunk.start, chunk.end, r)
		}
	}()
	chunk.kernel.Run(chunk.start, chunk.end)
	return nil
}

// Dispatch splits [0,n) into one contiguous chunk per worker and waits for
// all of them.
func (p *Pool) Dispatch(n int, k Kernel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return &DeviceError{Backend: BackendPool, Op: "dispatch", Err: errClosed}
	}
	if n <= 0 {
		return nil
	}

	// Single-threaded for small stages
	if n < p.threshold || p.numWorkers == 1 {
		if err := runChunk(workChunk{start: 0, end: n, kernel: k}); err != nil {
			return &DeviceError{Backend: BackendPool, Op: "dispatch", Err: err}
		}
		return nil
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, kernel: k}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	var firstErr error
	for i := 0; i < chunksDispatched; i++ {
		res := <-p.doneChan
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
	}
	if firstErr != nil {
		return &DeviceError{Backend: BackendPool, Op: "dispatch", Err: firstErr}
	}
	return nil
}

// Close signals all workers to exit and waits for them.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
