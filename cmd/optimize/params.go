package main

import (
	"math"

	"github.com/pthm-cable/biosim/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Mutation
			{Name: "point_mutation_rate", Path: "genome.point_mutation_rate", Min: 0.0001, Max: 0.01, Default: 0.001},
			{Name: "insertion_deletion_rate", Path: "genome.gene_insertion_deletion_rate", Min: 0, Max: 0.05, Default: 0.0},
			{Name: "deletion_ratio", Path: "genome.deletion_ratio", Min: 0.1, Max: 0.9, Default: 0.5},
			// Brain
			{Name: "max_neurons", Path: "genome.max_neurons", Min: 1, Max: 20, Default: 5, Integer: true},
			{Name: "responsiveness_k", Path: "actions.responsiveness_curve_k", Min: 0.5, Max: 4, Default: 2},
			// Senses
			{Name: "population_radius", Path: "sensors.population_radius", Min: 1, Max: 6, Default: 2.5},
			{Name: "signal_radius", Path: "sensors.signal_radius", Min: 1, Max: 6, Default: 2.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are
// whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := min(max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Genome.PointMutationRate = c[0]
	cfg.Genome.GeneInsertionDeletionRate = c[1]
	cfg.Genome.DeletionRatio = c[2]
	cfg.Genome.MaxNeurons = int(c[3])
	cfg.Actions.ResponsivenessCurveK = c[4]
	cfg.Sensors.PopulationRadius = c[5]
	cfg.Sensors.SignalRadius = c[6]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Genome.PointMutationRate,
		cfg.Genome.GeneInsertionDeletionRate,
		cfg.Genome.DeletionRatio,
		float64(cfg.Genome.MaxNeurons),
		cfg.Actions.ResponsivenessCurveK,
		cfg.Sensors.PopulationRadius,
		cfg.Sensors.SignalRadius,
	}
}
