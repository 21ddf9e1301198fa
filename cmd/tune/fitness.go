package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/game"
	"github.com/pthm-cable/pbd/telemetry"
)

// Penalties for runs that break down.
const (
	failurePenalty   = 1e3 // engine failure or non-finite state
	speedLimit       = 20  // m/s; faster than this counts as blowing up
	warmupWindows    = 2   // skip the initial splash
	weightDensityStd = 0.5
	weightConstraint = 2.0
)

// FitnessEvaluator runs headless simulations and scores fluid quality.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu         sync.Mutex
	lastResult runResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int32
	failed      bool
	windowStats []telemetry.WindowStats
}

// LastResult returns the first seed's result from the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() (ticks int32, failed bool, windows int) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult.ticks, fe.lastResult.failed, len(fe.lastResult.windowStats)
}

// Evaluate computes fitness for a parameter vector (lower = better): the
// mean over seeds of the averaged density error plus penalties.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	for i := range results {
		total += computeFitness(&results[i])
	}

	fe.mu.Lock()
	fe.lastResult = results[0]
	fe.mu.Unlock()

	return total / float64(len(results))
}

// runSimulation executes a single headless run until maxTicks or failure.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	// seeds already run in parallel
	cfg.Executor.Backend = "serial"

	var result runResult
	g, err := game.NewGameWithOptions(cfg, game.Options{Seed: seed, Headless: true})
	if err != nil {
		result.failed = true
		return result
	}
	defer g.Unload()
	g.SetStatsCallback(func(stats telemetry.WindowStats) {
		result.windowStats = append(result.windowStats, stats)
	})

	for g.Tick() < fe.maxTicks {
		if err := g.UpdateHeadless(); err != nil {
			result.failed = true
			break
		}
	}
	result.ticks = g.Tick()
	return result
}

// computeFitness scores one run. Mean density error dominates, its spread
// and the worst constraint stretch add to it.
func computeFitness(r *runResult) float64 {
	if r.failed {
		return failurePenalty
	}
	if len(r.windowStats) <= warmupWindows {
		return failurePenalty
	}

	valid := r.windowStats[warmupWindows:]
	errs := make([]float64, 0, len(valid))
	var worstStretch float64
	for _, w := range valid {
		if math.IsNaN(w.DensityErrMean) || math.IsInf(w.MaxSpeed, 0) || w.MaxSpeed > speedLimit {
			return failurePenalty
		}
		errs = append(errs, w.DensityErrMean)
		worstStretch = max(worstStretch, w.ConstraintErr)
	}

	mean, std := stat.MeanStdDev(errs, nil)
	if len(errs) < 2 {
		std = 0
	}
	return mean + weightDensityStd*std + weightConstraint*worstStretch
}
