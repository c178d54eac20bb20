// Package telemetry records what happens to a run: one Epoch per finished
// generation, periodic genome exports and step timings.
package telemetry

import (
	"errors"
	"log/slog"
)

// Epoch summarises one finished generation.
type Epoch struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	Challenge  int    `csv:"challenge"`

	Survivors  int `csv:"survivors"`
	Murders    int `csv:"murders"`
	Sacrificed int `csv:"sacrificed"` // altruism runs only
	Saved      int `csv:"saved"`      // altruism runs only

	Diversity    float64 `csv:"diversity"`
	GenomeLength float64 `csv:"genome_length"`

	// Score distribution of the selected parents.
	ScoreMean float64 `csv:"score_mean"`
	ScoreP10  float64 `csv:"score_p10"`
	ScoreP50  float64 `csv:"score_p50"`
	ScoreP90  float64 `csv:"score_p90"`
}

// WithScores copies a score summary into the epoch.
func (e Epoch) WithScores(s ScoreStats) Epoch {
	e.ScoreMean = s.Mean
	e.ScoreP10 = s.P10
	e.ScoreP50 = s.P50
	e.ScoreP90 = s.P90
	return e
}

// LogValue implements slog.LogValuer for structured logging.
func (e Epoch) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", e.Generation),
		slog.Int("challenge", e.Challenge),
		slog.Int("survivors", e.Survivors),
		slog.Int("murders", e.Murders),
		slog.Int("sacrificed", e.Sacrificed),
		slog.Int("saved", e.Saved),
		slog.Float64("diversity", e.Diversity),
		slog.Float64("genome_length", e.GenomeLength),
		slog.Float64("score_mean", e.ScoreMean),
	)
}

// EpochWriter is anything that accepts epochs.
type EpochWriter interface {
	AppendEpoch(Epoch) error
}

// Fanout sends every epoch to each writer in turn. Nil writers are skipped.
type Fanout []EpochWriter

// AppendEpoch implements EpochWriter. All writers are tried; their errors
// are joined.
func (f Fanout) AppendEpoch(e Epoch) error {
	var errs []error
	for _, w := range f {
		if w == nil {
			continue
		}
		if err := w.AppendEpoch(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
