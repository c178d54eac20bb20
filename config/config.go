// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation parameters. A Config is a plain value: pass it
// (or the result of At) to whatever needs it.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Genome     GenomeConfig     `yaml:"genome"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Actions    ActionsConfig    `yaml:"actions"`
	Signals    SignalsConfig    `yaml:"signals"`
	Challenge  ChallengeConfig  `yaml:"challenge"`
	Altruism   AltruismConfig   `yaml:"altruism"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Schedule lists parameter changes that take effect from a generation on.
	Schedule []ScheduledChange `yaml:"schedule,omitempty"`
}

// WorldConfig holds arena dimensions and barrier layout.
type WorldConfig struct {
	SizeX   int `yaml:"size_x" ini:"size_x"`
	SizeY   int `yaml:"size_y" ini:"size_y"`
	Barrier int `yaml:"barrier" ini:"barrier"` // grid.BarrierKind
	// ReplaceBarrier takes over from Barrier at ReplaceBarrierGeneration
	// (negative = never).
	ReplaceBarrier           int `yaml:"replace_barrier" ini:"replace_barrier"`
	ReplaceBarrierGeneration int `yaml:"replace_barrier_generation" ini:"replace_barrier_generation"`
}

// PopulationConfig holds run length and population size.
type PopulationConfig struct {
	Size               int `yaml:"size" ini:"size"`
	StepsPerGeneration int `yaml:"steps_per_generation" ini:"steps_per_generation"`
	MaxGenerations     int `yaml:"max_generations" ini:"max_generations"`
}

// GenomeConfig holds genome size, wiring and mutation parameters.
type GenomeConfig struct {
	InitialLengthMin          int     `yaml:"initial_length_min" ini:"initial_length_min"`
	InitialLengthMax          int     `yaml:"initial_length_max" ini:"initial_length_max"`
	MaxLength                 int     `yaml:"max_length" ini:"max_length"`
	MaxNeurons                int     `yaml:"max_neurons" ini:"max_neurons"`
	PointMutationRate         float64 `yaml:"point_mutation_rate" ini:"point_mutation_rate"`
	GeneInsertionDeletionRate float64 `yaml:"gene_insertion_deletion_rate" ini:"gene_insertion_deletion_rate"`
	DeletionRatio             float64 `yaml:"deletion_ratio" ini:"deletion_ratio"`
	SexualReproduction        bool    `yaml:"sexual_reproduction" ini:"sexual_reproduction"`
	ChooseParentsByFitness    bool    `yaml:"choose_parents_by_fitness" ini:"choose_parents_by_fitness"`
	SimilarityMethod          int     `yaml:"similarity_method" ini:"similarity_method"` // 0 jaro, 1 hamming bits, 2 hamming bytes
	KinWeightTolerance        int     `yaml:"kin_weight_tolerance" ini:"kin_weight_tolerance"`
}

// SensorsConfig holds sensor ranges.
type SensorsConfig struct {
	PopulationRadius          float64 `yaml:"population_radius" ini:"population_radius"`
	SignalRadius              float64 `yaml:"signal_radius" ini:"signal_radius"`
	LongProbeDistance         int     `yaml:"long_probe_distance" ini:"long_probe_distance"`
	ShortProbeBarrierDistance int     `yaml:"short_probe_barrier_distance" ini:"short_probe_barrier_distance"`
}

// ActionsConfig holds action executor parameters.
type ActionsConfig struct {
	ResponsivenessCurveK float64 `yaml:"responsiveness_curve_k" ini:"responsiveness_curve_k"`
	KillEnable           bool    `yaml:"kill_enable" ini:"kill_enable"`
}

// SignalsConfig holds pheromone layer parameters.
type SignalsConfig struct {
	Layers    int     `yaml:"layers" ini:"layers"`
	Fade      float64 `yaml:"fade" ini:"fade"`
	Diffusion float64 `yaml:"diffusion" ini:"diffusion"` // fraction spread to neighbours per step
}

// ChallengeConfig selects the survival challenge and its geometry. Radii
// ending in _frac are fractions of the arena width; the rest are in cells.
type ChallengeConfig struct {
	ID                     int     `yaml:"id" ini:"id"`
	CircleRadiusFrac       float64 `yaml:"circle_radius_frac" ini:"circle_radius_frac"`
	CenterRadiusFrac       float64 `yaml:"center_radius_frac" ini:"center_radius_frac"`
	CornerRadiusFrac       float64 `yaml:"corner_radius_frac" ini:"corner_radius_frac"`
	CornerWeightedFrac     float64 `yaml:"corner_weighted_radius_frac" ini:"corner_weighted_radius_frac"`
	SparseOuterRadiusFrac  float64 `yaml:"sparse_outer_radius_frac" ini:"sparse_outer_radius_frac"`
	SparseInnerRadius      float64 `yaml:"sparse_inner_radius" ini:"sparse_inner_radius"`
	SparseMinNeighbors     int     `yaml:"sparse_min_neighbors" ini:"sparse_min_neighbors"`
	SparseMaxNeighbors     int     `yaml:"sparse_max_neighbors" ini:"sparse_max_neighbors"`
	StringRadius           float64 `yaml:"string_radius" ini:"string_radius"`
	StringMinNeighbors     int     `yaml:"string_min_neighbors" ini:"string_min_neighbors"`
	StringMaxNeighbors     int     `yaml:"string_max_neighbors" ini:"string_max_neighbors"`
	NearBarrierRadiusFrac  float64 `yaml:"near_barrier_radius_frac" ini:"near_barrier_radius_frac"`
	RadioactiveReachFrac   float64 `yaml:"radioactive_reach_frac" ini:"radioactive_reach_frac"`
	LocationSequenceRadius float64 `yaml:"location_sequence_radius" ini:"location_sequence_radius"`
	AltruismRadiusFrac     float64 `yaml:"altruism_radius_frac" ini:"altruism_radius_frac"`
	SacrificeRadiusFrac    float64 `yaml:"sacrifice_radius_frac" ini:"sacrifice_radius_frac"`
}

// AltruismConfig holds the kin-selection parameters used by the altruism
// challenge.
type AltruismConfig struct {
	// Policy is "kin_search" or "fixed_ratio".
	Policy                 string  `yaml:"policy" ini:"policy"`
	Factor                 int     `yaml:"factor" ini:"factor"`
	KinshipStartGeneration int     `yaml:"kinship_start_generation" ini:"kinship_start_generation"`
	KinThreshold           float64 `yaml:"kin_threshold" ini:"kin_threshold"`
}

// Altruism policies.
const (
	PolicyKinSearch  = "kin_search"
	PolicyFixedRatio = "fixed_ratio"
)

// TelemetryConfig holds reporting settings.
type TelemetryConfig struct {
	GenomeAnalysisStride int `yaml:"genome_analysis_stride" ini:"genome_analysis_stride"`
	DisplaySampleGenomes int `yaml:"display_sample_genomes" ini:"display_sample_genomes"`
	TopGenomes           int `yaml:"top_genomes" ini:"top_genomes"` // genomes exported per analysis
}

// ScheduledChange overrides parameters from Generation onwards.
type ScheduledChange struct {
	Generation int       `yaml:"generation"`
	Set        yaml.Node `yaml:"set"`
}

// Load reads configuration from path, merging it over the embedded
// defaults. Files ending in .ini are read as sectioned parameter files,
// anything else as YAML. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		if strings.EqualFold(filepath.Ext(path), ".ini") {
			if err := cfg.mergeINI(path); err != nil {
				return nil, err
			}
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			// Unmarshal into same struct - only overwrites fields present in file
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	sort.SliceStable(cfg.Schedule, func(i, j int) bool {
		return cfg.Schedule[i].Generation < cfg.Schedule[j].Generation
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded default configuration.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// At returns the parameters in effect for generation: the base values
// with every scheduled change up to and including that generation applied.
func (c *Config) At(generation int) (Config, error) {
	out := *c
	for i := range c.Schedule {
		ch := &c.Schedule[i]
		if ch.Generation > generation {
			break
		}
		if err := ch.Set.Decode(&out); err != nil {
			return Config{}, fmt.Errorf("applying schedule for generation %d: %w", ch.Generation, err)
		}
	}
	out.Schedule = c.Schedule
	if err := out.Validate(); err != nil {
		return Config{}, fmt.Errorf("generation %d: %w", generation, err)
	}
	return out, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
