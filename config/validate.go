package config

import (
	"errors"
	"fmt"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

type field struct {
	name string
	v    float64
}

// maxBarrierKind is the highest barrier layout id.
const maxBarrierKind = 7

// Individuals are addressed by uint16 handles; 0 and 0xffff are reserved
// for empty and barrier cells.
const maxPopulation = 0xfffe

// minWorldSize keeps at least one cell between the centre and each edge.
const minWorldSize = 4

// Validate reports every problem with c, joined into one error wrapping
// ErrInvalid. It does not check the challenge id, which is owned by the
// challenge registry.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	w := c.World
	if w.SizeX < minWorldSize || w.SizeY < minWorldSize || w.SizeX > 0x7fff || w.SizeY > 0x7fff {
		bad("world size %dx%d out of range", w.SizeX, w.SizeY)
	}
	if w.Barrier < 0 || w.Barrier > maxBarrierKind {
		bad("world.barrier %d unknown", w.Barrier)
	}
	if w.ReplaceBarrierGeneration >= 0 && (w.ReplaceBarrier < 0 || w.ReplaceBarrier > maxBarrierKind) {
		bad("world.replace_barrier %d unknown", w.ReplaceBarrier)
	}

	p := c.Population
	if p.Size < 1 {
		bad("population.size must be positive")
	}
	// Barriers take some cells; leave at least half the arena free.
	if p.Size > maxPopulation {
		bad("population.size %d exceeds %d", p.Size, maxPopulation)
	} else if p.Size > w.SizeX*w.SizeY/2 {
		bad("population.size %d does not fit a %dx%d arena", p.Size, w.SizeX, w.SizeY)
	}
	if p.StepsPerGeneration < 1 {
		bad("population.steps_per_generation must be positive")
	}
	if p.MaxGenerations < 0 {
		bad("population.max_generations must not be negative")
	}

	g := c.Genome
	if g.InitialLengthMin < 1 || g.InitialLengthMax < g.InitialLengthMin {
		bad("genome initial length range [%d,%d] invalid", g.InitialLengthMin, g.InitialLengthMax)
	}
	if g.MaxLength < g.InitialLengthMax {
		bad("genome.max_length %d below initial_length_max %d", g.MaxLength, g.InitialLengthMax)
	}
	if g.MaxNeurons < 1 || g.MaxNeurons > 0x7fff {
		bad("genome.max_neurons %d out of range", g.MaxNeurons)
	}
	for _, r := range []field{
		{"genome.point_mutation_rate", g.PointMutationRate},
		{"genome.gene_insertion_deletion_rate", g.GeneInsertionDeletionRate},
		{"genome.deletion_ratio", g.DeletionRatio},
		{"signals.diffusion", c.Signals.Diffusion},
	} {
		if r.v < 0 || r.v > 1 {
			bad("%s %v outside [0,1]", r.name, r.v)
		}
	}
	if g.SimilarityMethod < 0 || g.SimilarityMethod > 2 {
		bad("genome.similarity_method %d unknown", g.SimilarityMethod)
	}
	if g.KinWeightTolerance < 0 {
		bad("genome.kin_weight_tolerance must not be negative")
	}

	s := c.Sensors
	if s.PopulationRadius <= 0 || s.SignalRadius <= 0 {
		bad("sensor radii must be positive")
	}
	if s.LongProbeDistance < 1 || s.ShortProbeBarrierDistance < 1 {
		bad("probe distances must be positive")
	}
	if c.Signals.Layers < 1 {
		bad("signals.layers must be at least 1")
	}
	if c.Signals.Fade < 0 {
		bad("signals.fade must not be negative")
	}

	ch := c.Challenge
	for _, r := range []field{
		{"circle_radius_frac", ch.CircleRadiusFrac},
		{"center_radius_frac", ch.CenterRadiusFrac},
		{"corner_radius_frac", ch.CornerRadiusFrac},
		{"corner_weighted_radius_frac", ch.CornerWeightedFrac},
		{"sparse_outer_radius_frac", ch.SparseOuterRadiusFrac},
		{"sparse_inner_radius", ch.SparseInnerRadius},
		{"string_radius", ch.StringRadius},
		{"near_barrier_radius_frac", ch.NearBarrierRadiusFrac},
		{"radioactive_reach_frac", ch.RadioactiveReachFrac},
		{"location_sequence_radius", ch.LocationSequenceRadius},
		{"altruism_radius_frac", ch.AltruismRadiusFrac},
		{"sacrifice_radius_frac", ch.SacrificeRadiusFrac},
	} {
		if r.v <= 0 {
			bad("challenge.%s must be positive, got %v", r.name, r.v)
		}
	}
	if ch.SparseMinNeighbors > ch.SparseMaxNeighbors || ch.StringMinNeighbors > ch.StringMaxNeighbors {
		bad("challenge neighbour windows must have min <= max")
	}

	a := c.Altruism
	if a.Policy != PolicyKinSearch && a.Policy != PolicyFixedRatio {
		bad("altruism.policy %q unknown", a.Policy)
	}
	if a.Factor < 1 {
		bad("altruism.factor must be positive")
	}
	if a.KinThreshold < 0 || a.KinThreshold > 1 {
		bad("altruism.kin_threshold %v outside [0,1]", a.KinThreshold)
	}

	t := c.Telemetry
	if t.GenomeAnalysisStride < 1 {
		bad("telemetry.genome_analysis_stride must be positive")
	}
	if t.DisplaySampleGenomes < 0 || t.TopGenomes < 0 {
		bad("telemetry sample counts must not be negative")
	}

	return errors.Join(errs...)
}
