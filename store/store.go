// Package store persists per-turn decision records as parquet batches.
//
// Rows are written to a tmp directory and renamed into place on finalize, so
// readers (cmd/stats, external notebooks) never observe a half-written file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// DecisionRow is one engine decision: which move was chosen for a turn and
// how every candidate scored. Source distinguishes live API games,
// arena self-play and replay reviews.
type DecisionRow struct {
	GameID string `parquet:"game_id,dict"`
	Turn   int32  `parquet:"turn"`
	Snakes int32  `parquet:"snakes"`
	Health int32  `parquet:"health"`

	Move       int32 `parquet:"move"`
	Score      int32 `parquet:"score"`
	ScoreUp    int32 `parquet:"score_up"`
	ScoreDown  int32 `parquet:"score_down"`
	ScoreLeft  int32 `parquet:"score_left"`
	ScoreRight int32 `parquet:"score_right"`

	// TerritoryEgo and TerritoryRivals are the root flood-fill estimate.
	TerritoryEgo    int32 `parquet:"territory_ego"`
	TerritoryRivals int32 `parquet:"territory_rivals"`

	// PlayedMove is the move actually taken in the source game when known
	// (replay review); -1 otherwise.
	PlayedMove int32 `parquet:"played_move"`

	ElapsedUs int64  `parquet:"elapsed_us"`
	Source    string `parquet:"source,dict"`
}

// Writer accumulates DecisionRows into a single parquet batch file.
type Writer struct {
	outDir  string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[DecisionRow]

	bufferedRows  int
	bufferedGames int
}

func NewWriter(outDir string) (*Writer, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("decisions_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)
	outPath := filepath.Join(absOut, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[DecisionRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", "decision_row_v1")

	return &Writer{
		outDir:  absOut,
		tmpPath: tmpPath,
		outPath: outPath,
		file:    f,
		writer:  w,
	}, nil
}

func (w *Writer) OutPath() string    { return w.outPath }
func (w *Writer) BufferedRows() int  { return w.bufferedRows }
func (w *Writer) BufferedGames() int { return w.bufferedGames }

func (w *Writer) WriteRows(rows []DecisionRow) error {
	if w.writer == nil || w.file == nil {
		return fmt.Errorf("writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := w.writer.Write(rows); err != nil {
		return err
	}
	w.bufferedRows += len(rows)
	return nil
}

func (w *Writer) NoteGameWritten() {
	w.bufferedGames++
}

// Finalize closes the parquet writer and moves the batch from tmp/ into the
// output directory. If no rows were written the tmp file is removed and the
// returned path is empty.
func (w *Writer) Finalize() (outPath string, rows int, err error) {
	if w.writer == nil && w.file == nil {
		return "", 0, nil
	}

	rows = w.bufferedRows
	outPath = w.outPath

	var closeErr error
	if w.writer != nil {
		closeErr = w.writer.Close()
		w.writer = nil
	}
	var fileErr error
	if w.file != nil {
		_ = w.file.Sync()
		fileErr = w.file.Close()
		w.file = nil
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(w.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(w.tmpPath, w.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return outPath, rows, nil
}
