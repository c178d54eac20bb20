package spawn

import (
	"fmt"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
)

// InitializeGeneration0 fills every slot with a random genome at a random
// empty location.
func (s *Spawner) InitializeGeneration0() error {
	cfg, err := s.Config.At(0)
	if err != nil {
		return err
	}
	if err := s.resetWorld(&cfg, 0); err != nil {
		return err
	}

	gc := cfg.Genome
	birth := birthOf(&cfg)
	for i := 1; i <= s.Peeps.Population(); i++ {
		loc := s.Grid.FindEmptyLocation(s.Rand)
		g := genome.Random(s.Rand, gc.InitialLengthMin, gc.InitialLengthMax)
		s.Peeps.Initialize(s.Grid, uint16(i), loc, g, s.Rand.Int63(), birth)
	}
	return nil
}

// InitializeNewGeneration fills every slot with a child of the parent pool,
// which must be sorted best first and not be empty.
func (s *Spawner) InitializeNewGeneration(parents []genome.Genome, generation int) error {
	if len(parents) == 0 {
		return fmt.Errorf("generation %d: empty parent pool", generation)
	}
	cfg, err := s.Config.At(generation)
	if err != nil {
		return err
	}
	if err := s.resetWorld(&cfg, generation); err != nil {
		return err
	}

	gc := cfg.Genome
	repro := genome.Reproduction{
		PointMutationRate:         gc.PointMutationRate,
		GeneInsertionDeletionRate: gc.GeneInsertionDeletionRate,
		DeletionRatio:             gc.DeletionRatio,
		MaxLength:                 gc.MaxLength,
		SexualReproduction:        gc.SexualReproduction,
		ChooseParentsByFitness:    gc.ChooseParentsByFitness,
	}
	birth := birthOf(&cfg)
	for i := 1; i <= s.Peeps.Population(); i++ {
		loc := s.Grid.FindEmptyLocation(s.Rand)
		g := repro.Child(s.Rand, parents)
		s.Peeps.Initialize(s.Grid, uint16(i), loc, g, s.Rand.Int63(), birth)
	}
	return nil
}

// resetWorld clears the grid and signals for a new generation and draws the
// barrier layout in effect for it.
func (s *Spawner) resetWorld(cfg *config.Config, generation int) error {
	s.Peeps.Kill()
	s.Grid.ZeroFill()
	s.Grid.CreateBarrier(BarrierFor(cfg, generation), s.Rand)

	s.Signals.ZeroFill()
	s.Signals.Fade = float32(cfg.Signals.Fade)
	s.Signals.Diffusion = float32(cfg.Signals.Diffusion)

	if free, need := s.Grid.EmptyCount(), s.Peeps.Population(); free < need {
		return fmt.Errorf("%w: %d free cells for %d individuals (barrier %s)",
			ErrGridSaturated, free, need, BarrierFor(cfg, generation))
	}
	return nil
}

// BarrierFor returns the barrier layout used in generation.
func BarrierFor(cfg *config.Config, generation int) grid.BarrierKind {
	w := cfg.World
	if w.ReplaceBarrierGeneration >= 0 && generation >= w.ReplaceBarrierGeneration {
		return grid.BarrierKind(w.ReplaceBarrier)
	}
	return grid.BarrierKind(w.Barrier)
}

func birthOf(cfg *config.Config) peeps.Birth {
	return peeps.Birth{
		MaxNeurons:    cfg.Genome.MaxNeurons,
		LongProbeDist: cfg.Sensors.LongProbeDistance,
	}
}
