package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/pthm-cable/biosim/genome"
)

// GenomeRow is one exported genome. Rank 0 is the best-scoring parent of
// the generation.
type GenomeRow struct {
	RunID      string   `parquet:"run_id,dict"`
	Generation int32    `parquet:"generation"`
	Rank       int32    `parquet:"rank"`
	Index      int32    `parquet:"index"`
	Score      float64  `parquet:"score"`
	Length     int32    `parquet:"length"`
	Genes      []uint32 `parquet:"genes"`
	Hex        string   `parquet:"hex,zstd"`
}

// NewGenomeRow packs a genome into an export row.
func NewGenomeRow(runID string, generation, rank int, index uint16, score float64, g genome.Genome) GenomeRow {
	return GenomeRow{
		RunID:      runID,
		Generation: int32(generation),
		Rank:       int32(rank),
		Index:      int32(index),
		Score:      score,
		Length:     int32(len(g)),
		Genes:      g.Packed(),
		Hex:        g.String(),
	}
}

// Genome rebuilds the genes of a row.
func (r GenomeRow) Genome() genome.Genome {
	g := make(genome.Genome, len(r.Genes))
	for i, w := range r.Genes {
		g[i] = genome.Unpack(w)
	}
	return g
}

// WriteGenomesParquet writes rows to outPath via a temp file and rename.
func WriteGenomesParquet(outPath string, rows []GenomeRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "biosim_genomes_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadGenomesParquet loads every row of a genome export.
func ReadGenomesParquet(path string) ([]GenomeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[GenomeRow](pf)
	defer reader.Close()

	rows := make([]GenomeRow, 0, int(reader.NumRows()))
	buf := make([]GenomeRow, 64)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			rows = append(rows, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}
	return rows, nil
}
