// Package sim drives the generation and step loop.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/biosim/challenge"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
	"github.com/pthm-cable/biosim/signals"
	"github.com/pthm-cable/biosim/spawn"
	"github.com/pthm-cable/biosim/systems"
	"github.com/pthm-cable/biosim/telemetry"
)

// Options configures a Simulator beyond its parameters.
type Options struct {
	Seed    int64
	Workers int // decision workers; 0 uses GOMAXPROCS
	RunID   string
	// Sink receives one epoch per generation. May be nil.
	Sink spawn.EpochSink
	// Output receives perf rows and genome exports. May be nil.
	Output *telemetry.OutputManager
}

// Simulator owns the world and runs generations.
type Simulator struct {
	cfg     *config.Config
	params  config.Config // in effect for the current generation
	grid    *grid.Grid
	signals *signals.Signals
	peeps   *peeps.Peeps
	world   *systems.World
	spawner *spawn.Spawner

	challenge challenge.Challenge
	parallel  *parallelState
	perf      *telemetry.PerfCollector
	out       *telemetry.OutputManager
	runID     string

	generation int
	murders    int
}

// New validates cfg and builds generation 0.
func New(cfg *config.Config, opts Options) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkSchedule(cfg); err != nil {
		return nil, err
	}

	w := cfg.World
	s := &Simulator{
		cfg:      cfg,
		grid:     grid.New(w.SizeX, w.SizeY),
		signals:  signals.New(cfg.Signals.Layers, w.SizeX, w.SizeY),
		peeps:    peeps.New(cfg.Population.Size),
		parallel: newParallelState(opts.Workers, cfg.Population.Size),
		perf:     telemetry.NewPerfCollector(cfg.Population.StepsPerGeneration),
		out:      opts.Output,
		runID:    opts.RunID,
	}
	s.world = &systems.World{Grid: s.grid, Signals: s.signals, Peeps: s.peeps}
	s.spawner = &spawn.Spawner{
		Config:  cfg,
		Grid:    s.grid,
		Signals: s.signals,
		Peeps:   s.peeps,
		Rand:    rand.New(rand.NewSource(opts.Seed)),
		Sink:    opts.Sink,
		RunID:   opts.RunID,
	}

	if err := s.spawner.InitializeGeneration0(); err != nil {
		return nil, err
	}
	if err := s.setGeneration(0); err != nil {
		return nil, err
	}
	return s, nil
}

// checkSchedule rejects scheduled changes to parameters that size the
// world, and unknown challenge ids anywhere in the schedule.
func checkSchedule(cfg *config.Config) error {
	gens := []int{0}
	for _, ch := range cfg.Schedule {
		gens = append(gens, ch.Generation)
	}
	for _, gen := range gens {
		p, err := cfg.At(gen)
		if err != nil {
			return err
		}
		if p.World.SizeX != cfg.World.SizeX || p.World.SizeY != cfg.World.SizeY ||
			p.Population.Size != cfg.Population.Size || p.Signals.Layers != cfg.Signals.Layers {
			return fmt.Errorf("%w: generation %d: world size, population and signal layers cannot change during a run",
				config.ErrInvalid, gen)
		}
		if _, err := challenge.Lookup(challenge.ID(p.Challenge.ID)); err != nil {
			return fmt.Errorf("%w: generation %d: %w", config.ErrInvalid, gen, err)
		}
	}
	return nil
}

// setGeneration resolves the parameters for generation.
func (s *Simulator) setGeneration(generation int) error {
	p, err := s.cfg.At(generation)
	if err != nil {
		return err
	}
	c, err := challenge.Lookup(challenge.ID(p.Challenge.ID))
	if err != nil {
		return err
	}

	s.generation = generation
	s.params = p
	s.challenge = c
	s.world.Sensors = systems.SensorParams{
		PopulationRadius:          p.Sensors.PopulationRadius,
		SignalRadius:              p.Sensors.SignalRadius,
		ShortProbeBarrierDistance: p.Sensors.ShortProbeBarrierDistance,
		StepsPerGeneration:        p.Population.StepsPerGeneration,
		Kin: genome.Comparer{
			Method:          genome.SimilarityMethod(p.Genome.SimilarityMethod),
			WeightTolerance: p.Genome.KinWeightTolerance,
		},
	}
	s.world.Actions = systems.ActionParams{
		ResponsivenessCurveK: p.Actions.ResponsivenessCurveK,
		KillEnable:           p.Actions.KillEnable,
	}
	return nil
}

// Generation returns the current generation number.
func (s *Simulator) Generation() int { return s.generation }

// Params returns the parameters in effect for the current generation.
func (s *Simulator) Params() config.Config { return s.params }

// Grid exposes the arena, mainly for tests and tools.
func (s *Simulator) Grid() *grid.Grid { return s.grid }

// Peeps exposes the population, mainly for tests and tools.
func (s *Simulator) Peeps() *peeps.Peeps { return s.peeps }

// TopGenomes returns up to n of the best parents of the last finished
// generation.
func (s *Simulator) TopGenomes(n int) []spawn.Scored { return s.spawner.TopGenomes(n) }

// PerfStats returns step timings over the last generation.
func (s *Simulator) PerfStats() telemetry.PerfStats { return s.perf.Stats() }

// Close stops the worker pool.
func (s *Simulator) Close() {
	s.parallel.stopWorkers()
}

// Run executes generations until the generation counter reaches
// max_generations or ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	slog.Info("starting simulation",
		"run_id", s.runID,
		"population", s.cfg.Population.Size,
		"size_x", s.cfg.World.SizeX,
		"size_y", s.cfg.World.SizeY,
		"challenge", s.challenge.Name,
		"workers", s.parallel.numWorkers,
	)

	for s.generation < s.params.Population.MaxGenerations {
		if _, err := s.RunGeneration(ctx); err != nil {
			return err
		}
	}

	s.displaySampleGenomes(3)
	slog.Info("simulation finished", "generation", s.generation)
	return nil
}

// RunGeneration runs every step of the current generation, then selects
// parents and builds the next one. It returns the number of parents.
func (s *Simulator) RunGeneration(ctx context.Context) (int, error) {
	steps := s.params.Population.StepsPerGeneration
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		s.perf.StartStep()
		s.Step(step)
		if step < steps-1 {
			s.perf.EndStep()
		}
	}

	s.perf.StartPhase(telemetry.PhaseSpawn)
	finished := s.generation
	survivors, err := s.spawner.SpawnNewGeneration(finished, s.murders)
	s.perf.EndStep()
	if err != nil {
		return 0, fmt.Errorf("generation %d: %w", finished, err)
	}
	s.murders = 0

	if err := s.out.WritePerf(s.perf.Stats(), finished); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if survivors > 0 && finished%s.params.Telemetry.GenomeAnalysisStride == 0 {
		s.displaySampleGenomes(s.params.Telemetry.DisplaySampleGenomes)
		s.exportGenomes(finished)
	}

	next := finished + 1
	if survivors == 0 {
		slog.Warn("population extinct, restarting", "generation", finished)
		next = 0
	}
	if err := s.setGeneration(next); err != nil {
		return survivors, err
	}
	return survivors, nil
}

// Step runs one simulation step: every living individual decides, then
// the decisions are committed in handle order.
func (s *Simulator) Step(step int) {
	s.world.Step = step

	s.perf.StartPhase(telemetry.PhaseDecide)
	s.decide()

	s.perf.StartPhase(telemetry.PhaseCommit)
	s.commit(step)
}

// commit applies the decided intents. Kills are resolved before challenge
// hooks, and both before moves, so a killed individual never moves.
func (s *Simulator) commit(step int) {
	p := s.parallel
	for i := range p.intents {
		in := &p.intents[i]
		ind := s.peeps.Get(in.Index)
		in.Apply(ind)
		if in.Emit {
			s.signals.Increment(0, ind.Loc)
		}
		if in.Kill != 0 {
			s.peeps.QueueForDeath(in.Kill)
		}
		if in.Move {
			s.peeps.QueueForMove(in.Index, in.MoveTo)
		}
	}
	s.murders += s.peeps.DrainDeathQueue(s.grid)

	if s.challenge.Step != nil {
		env := challenge.StepEnv{
			Env:                challenge.Env{Grid: s.grid, Params: s.params.Challenge},
			Step:               step,
			StepsPerGeneration: s.params.Population.StepsPerGeneration,
			Peeps:              s.peeps,
		}
		for _, index := range p.living {
			if ind := s.peeps.Get(index); ind.Alive {
				s.challenge.Step(ind, env)
			}
		}
		s.peeps.DrainDeathQueue(s.grid)
	}

	s.peeps.DrainMoveQueue(s.grid)
	s.signals.FadeAll()
}

// displaySampleGenomes logs the best genomes of the last selection.
func (s *Simulator) displaySampleGenomes(n int) {
	for rank, sc := range s.spawner.TopGenomes(n) {
		slog.Info("sample genome",
			"rank", rank,
			"index", sc.Index,
			"score", sc.Score,
			"length", len(sc.Genome),
			"genes", sc.Genome.String(),
		)
	}
}

func (s *Simulator) exportGenomes(generation int) {
	if s.out == nil {
		return
	}
	top := s.spawner.TopGenomes(s.params.Telemetry.TopGenomes)
	rows := make([]telemetry.GenomeRow, len(top))
	for rank, sc := range top {
		rows[rank] = telemetry.NewGenomeRow(s.runID, generation, rank, sc.Index, sc.Score, sc.Genome)
	}
	if err := s.out.WriteGenomes(generation, rows); err != nil {
		slog.Error("failed to export genomes", "generation", generation, "error", err)
	}
}
