package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/sim"
	"github.com/pthm-cable/biosim/spawn"
	"github.com/pthm-cable/biosim/telemetry"
)

// FitnessEvaluator runs simulations and scores a parameter vector by how
// many parents the final generations produce.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config

	mu          sync.Mutex
	bestFitness float64
	bestGenomes []spawn.Scored
	lastRatio   float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestGenomes returns the top genomes of the best evaluation so far.
func (fe *FitnessEvaluator) BestGenomes() []spawn.Scored {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestGenomes
}

// LastRatio returns the survivor ratio of the most recent evaluation.
func (fe *FitnessEvaluator) LastRatio() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastRatio
}

// tailEpochs is how many final generations are averaged.
const tailEpochs = 5

// epochLog collects survivor counts in memory.
type epochLog struct {
	survivors []float64
}

func (l *epochLog) AppendEpoch(e telemetry.Epoch) error {
	l.survivors = append(l.survivors, float64(e.Survivors))
	return nil
}

type seedResult struct {
	ratio float64
	top   []spawn.Scored
	err   error
}

// Evaluate computes fitness for a parameter vector (lower = better):
// minus the mean survivor ratio over the last generations of every seed.
// Invalid parameter sets score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Population.MaxGenerations = fe.generations

	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = runSeed(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	ratios := make([]float64, 0, len(results))
	var best seedResult
	for _, r := range results {
		if r.err != nil {
			slog.Warn("evaluation failed", "error", r.err)
			return math.Inf(1)
		}
		ratios = append(ratios, r.ratio)
		if r.ratio >= best.ratio {
			best = r
		}
	}
	ratio := stat.Mean(ratios, nil)
	fitness := -ratio

	fe.mu.Lock()
	fe.lastRatio = ratio
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestGenomes = best.top
	}
	fe.mu.Unlock()

	return fitness
}

func runSeed(cfg *config.Config, seed int64) seedResult {
	log := &epochLog{}
	// One worker per run; seeds already run in parallel.
	s, err := sim.New(cfg, sim.Options{Seed: seed, Workers: 1, Sink: log})
	if err != nil {
		return seedResult{err: err}
	}
	defer s.Close()

	if err := s.Run(context.Background()); err != nil {
		return seedResult{err: err}
	}

	tail := log.survivors[max(0, len(log.survivors)-tailEpochs):]
	if len(tail) == 0 {
		return seedResult{}
	}
	return seedResult{
		ratio: stat.Mean(tail, nil) / float64(cfg.Population.Size),
		top:   s.TopGenomes(cfg.Telemetry.TopGenomes),
	}
}

// copyConfig returns a copy of the base config that Evaluate may change.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
