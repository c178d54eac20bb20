package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteEpochLog appends epochs to a SQLite database so several runs can
// be compared with plain SQL.
type SQLiteEpochLog struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteEpochLog returns a log backed by the database at path. Call
// Init before use.
func NewSQLiteEpochLog(path string) *SQLiteEpochLog {
	return &SQLiteEpochLog{path: path}
}

// Init opens the database and creates the epochs table if needed.
func (s *SQLiteEpochLog) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createEpochTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// AppendEpoch implements EpochWriter.
func (s *SQLiteEpochLog) AppendEpoch(e Epoch) error {
	return s.AppendEpochContext(context.Background(), e)
}

// AppendEpochContext stores e, replacing any earlier row for the same run
// and generation.
func (s *SQLiteEpochLog) AppendEpochContext(ctx context.Context, e Epoch) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO epochs (
			run_id, generation, challenge, survivors, murders, sacrificed, saved,
			diversity, genome_length, score_mean, score_p10, score_p50, score_p90
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			challenge = excluded.challenge,
			survivors = excluded.survivors,
			murders = excluded.murders,
			sacrificed = excluded.sacrificed,
			saved = excluded.saved,
			diversity = excluded.diversity,
			genome_length = excluded.genome_length,
			score_mean = excluded.score_mean,
			score_p10 = excluded.score_p10,
			score_p50 = excluded.score_p50,
			score_p90 = excluded.score_p90
	`, e.RunID, e.Generation, e.Challenge, e.Survivors, e.Murders, e.Sacrificed, e.Saved,
		e.Diversity, e.GenomeLength, e.ScoreMean, e.ScoreP10, e.ScoreP50, e.ScoreP90)
	if err != nil {
		return fmt.Errorf("insert epoch %d: %w", e.Generation, err)
	}
	return nil
}

// Epochs returns the stored epochs of a run ordered by generation.
func (s *SQLiteEpochLog) Epochs(ctx context.Context, runID string) ([]Epoch, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, generation, challenge, survivors, murders, sacrificed, saved,
			diversity, genome_length, score_mean, score_p10, score_p50, score_p90
		FROM epochs WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Epoch
	for rows.Next() {
		var e Epoch
		if err := rows.Scan(&e.RunID, &e.Generation, &e.Challenge, &e.Survivors, &e.Murders,
			&e.Sacrificed, &e.Saved, &e.Diversity, &e.GenomeLength,
			&e.ScoreMean, &e.ScoreP10, &e.ScoreP50, &e.ScoreP90); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteEpochLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteEpochLog) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("epoch log is not initialized")
	}
	return s.db, nil
}

func createEpochTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS epochs (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			challenge INTEGER NOT NULL,
			survivors INTEGER NOT NULL,
			murders INTEGER NOT NULL,
			sacrificed INTEGER NOT NULL,
			saved INTEGER NOT NULL,
			diversity REAL NOT NULL,
			genome_length REAL NOT NULL,
			score_mean REAL NOT NULL,
			score_p10 REAL NOT NULL,
			score_p50 REAL NOT NULL,
			score_p90 REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
