package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/biosim/config"
)

// OutputManager writes a run's files into one directory:
// epochs.csv, perf.csv, config.yaml and genomes/gen_NNNNNN.parquet.
type OutputManager struct {
	dir       string
	epochFile *os.File
	perfFile  *os.File

	epochHeaderWritten bool
	perfHeaderWritten  bool
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled); all methods accept a nil
// receiver.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "epochs.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating epochs.csv: %w", err)
	}
	om.epochFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.epochFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// AppendEpoch implements EpochWriter by adding a row to epochs.csv.
func (om *OutputManager) AppendEpoch(e Epoch) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.epochFile, []Epoch{e}, &om.epochHeaderWritten); err != nil {
		return fmt.Errorf("writing epoch: %w", err)
	}
	return nil
}

// WritePerf adds a performance row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, generation int) error {
	if om == nil {
		return nil
	}
	if err := writeCSV(om.perfFile, []PerfStatsCSV{stats.ToCSV(generation)}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteGenomes exports one generation's sampled genomes as parquet.
func (om *OutputManager) WriteGenomes(generation int, rows []GenomeRow) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	return WriteGenomesParquet(om.GenomePath(generation), rows)
}

// GenomePath returns where WriteGenomes puts a generation's export.
func (om *OutputManager) GenomePath(generation int) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, "genomes", fmt.Sprintf("gen_%06d.parquet", generation))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.epochFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// writeCSV includes the header row on the first write only.
func writeCSV[T any](f *os.File, records []T, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}
