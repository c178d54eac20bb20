// Package spawn turns the end of one generation into the start of the next:
// it scores the population against the active challenge, picks the parent
// pool and rebuilds the grid, signals and every population slot.
package spawn

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/pthm-cable/biosim/challenge"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
	"github.com/pthm-cable/biosim/signals"
	"github.com/pthm-cable/biosim/telemetry"
)

// ErrGridSaturated is returned when the cells left after barriers cannot
// hold the whole population.
var ErrGridSaturated = errors.New("grid saturated")

// EpochSink receives one record per finished generation.
type EpochSink interface {
	AppendEpoch(telemetry.Epoch) error
}

// Parent is a selected individual and its challenge score.
type Parent struct {
	Index uint16
	Score float64
}

// Scored is a parent with its genome, kept after the generation is
// replaced.
type Scored struct {
	Parent
	Genome genome.Genome
}

// Spawner owns generation turnover. All fields except Sink must be set.
type Spawner struct {
	Config  *config.Config
	Grid    *grid.Grid
	Signals *signals.Signals
	Peeps   *peeps.Peeps
	// Rand is the master stream: barrier layout, placement, genomes and the
	// per-slot seeds all come from it in a fixed order.
	Rand  *rand.Rand
	Sink  EpochSink
	RunID string

	top []Scored
}

// selection is what one generation's scoring produced.
type selection struct {
	parents    []Parent
	sacrificed int
	saved      int
}

// SpawnNewGeneration scores the finished generation, records its epoch and
// builds the next one. It returns the size of the parent pool; 0 means the
// population went extinct and generation 0 was rebuilt from random genomes.
func (s *Spawner) SpawnNewGeneration(generation, murders int) (int, error) {
	cfg, err := s.Config.At(generation)
	if err != nil {
		return 0, err
	}

	sel, err := s.selectParents(generation, &cfg)
	if err != nil {
		return 0, err
	}

	parentGenomes := make([]genome.Genome, len(sel.parents))
	s.top = s.top[:0]
	scores := make([]float64, len(sel.parents))
	for i, p := range sel.parents {
		parentGenomes[i] = s.Peeps.Get(p.Index).Genome.Clone()
		s.top = append(s.top, Scored{Parent: p, Genome: parentGenomes[i]})
		scores[i] = p.Score
	}

	if err := s.recordEpoch(generation, murders, &cfg, sel, scores); err != nil {
		slog.Error("failed to write epoch", "generation", generation, "error", err)
	}

	if len(parentGenomes) == 0 {
		return 0, s.InitializeGeneration0()
	}
	return len(parentGenomes), s.InitializeNewGeneration(parentGenomes, generation+1)
}

func (s *Spawner) selectParents(generation int, cfg *config.Config) (selection, error) {
	id := challenge.ID(cfg.Challenge.ID)
	env := challenge.Env{Grid: s.Grid, Params: cfg.Challenge}

	if id != challenge.Altruism {
		c, err := challenge.Lookup(id)
		if err != nil {
			return selection{}, err
		}
		var sel selection
		for i := 1; i <= s.Peeps.Population(); i++ {
			ind := s.Peeps.Get(uint16(i))
			if !eligible(ind) {
				continue
			}
			if r := c.Run(ind, env); r.Passed {
				sel.parents = append(sel.parents, Parent{Index: ind.Index, Score: r.Score})
			}
		}
		sortParents(sel.parents)
		return sel, nil
	}
	return s.selectAltruists(generation, cfg, env)
}

// selectAltruists splits the population into the spawning area and the
// sacrificial area, then applies the configured altruism policy.
func (s *Spawner) selectAltruists(generation int, cfg *config.Config, env challenge.Env) (selection, error) {
	spawnArea, err := challenge.Lookup(challenge.Altruism)
	if err != nil {
		return selection{}, err
	}
	sacrificeArea, err := challenge.Lookup(challenge.AltruismSacrifice)
	if err != nil {
		return selection{}, err
	}

	var sel selection
	var sacrificed []uint16
	for i := 1; i <= s.Peeps.Population(); i++ {
		ind := s.Peeps.Get(uint16(i))
		if !eligible(ind) {
			continue
		}
		if r := spawnArea.Run(ind, env); r.Passed {
			sel.parents = append(sel.parents, Parent{Index: ind.Index, Score: r.Score})
		} else if sacrificeArea.Run(ind, env).Passed {
			sacrificed = append(sacrificed, ind.Index)
		}
	}
	sel.sacrificed = len(sacrificed)

	a := cfg.Altruism
	switch a.Policy {
	case config.PolicyFixedRatio:
		sortParents(sel.parents)
		if saved := sel.sacrificed * a.Factor; saved < len(sel.parents) {
			sel.parents = sel.parents[:saved]
		}
	default:
		if generation > a.KinshipStartGeneration && len(sel.parents) > 0 {
			cmp := genome.Comparer{
				Method:          genome.SimilarityMethod(cfg.Genome.SimilarityMethod),
				WeightTolerance: cfg.Genome.KinWeightTolerance,
			}
			sel.parents = s.findKin(sel.parents, sacrificed, a, cmp)
		}
		sortParents(sel.parents)
	}
	sel.saved = len(sel.parents)

	slog.Debug("altruism",
		"generation", generation,
		"policy", a.Policy,
		"sacrificed", sel.sacrificed,
		"saved", sel.saved,
	)
	return sel, nil
}

// findKin makes Factor passes over the sacrificed individuals. In each pass
// every sacrificed individual saves the first candidate, searching from a
// random offset and wrapping, whose genome is at least KinThreshold similar
// to its own. A candidate can be saved more than once.
func (s *Spawner) findKin(candidates []Parent, sacrificed []uint16, a config.AltruismConfig, cmp genome.Comparer) []Parent {
	var kin []Parent
	n := len(candidates)
	for pass := 0; pass < a.Factor; pass++ {
		for _, idx := range sacrificed {
			own := s.Peeps.Get(idx).Genome
			start := s.Rand.Intn(n)
			for count := 0; count < n; count++ {
				p := candidates[(start+count)%n]
				if cmp.Similarity(own, s.Peeps.Get(p.Index).Genome) >= a.KinThreshold {
					kin = append(kin, p)
					break
				}
			}
		}
	}
	return kin
}

// eligible reports whether ind can become a parent: alive and wired to at
// least one action.
func eligible(ind *peeps.Individual) bool {
	return ind.Alive && ind.Net != nil && len(ind.Net.Connections) > 0
}

// sortParents orders by descending score, ties by ascending index.
func sortParents(parents []Parent) {
	sort.SliceStable(parents, func(i, j int) bool {
		if parents[i].Score != parents[j].Score {
			return parents[i].Score > parents[j].Score
		}
		return parents[i].Index < parents[j].Index
	})
}

func (s *Spawner) recordEpoch(generation, murders int, cfg *config.Config, sel selection, scores []float64) error {
	genomes := s.Peeps.Genomes()
	cmp := genome.Comparer{
		Method:          genome.SimilarityMethod(cfg.Genome.SimilarityMethod),
		WeightTolerance: cfg.Genome.KinWeightTolerance,
	}

	e := telemetry.Epoch{
		RunID:        s.RunID,
		Generation:   generation,
		Challenge:    cfg.Challenge.ID,
		Survivors:    len(sel.parents),
		Murders:      murders,
		Sacrificed:   sel.sacrificed,
		Saved:        sel.saved,
		Diversity:    cmp.Diversity(genomes),
		GenomeLength: genome.MeanLength(genomes),
	}.WithScores(telemetry.SummarizeScores(scores))

	slog.Info("generation",
		"generation", e.Generation,
		"survivors", e.Survivors,
		"murders", e.Murders,
		"diversity", e.Diversity,
		"genome_len", e.GenomeLength,
	)

	if s.Sink == nil {
		return nil
	}
	if err := s.Sink.AppendEpoch(e); err != nil {
		return fmt.Errorf("appending epoch %d: %w", generation, err)
	}
	return nil
}

// TopGenomes returns up to n of the best parents of the last selection,
// best first.
func (s *Spawner) TopGenomes(n int) []Scored {
	n = min(n, len(s.top))
	if n <= 0 {
		return nil
	}
	out := make([]Scored, n)
	copy(out, s.top[:n])
	return out
}
