package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestWriter_FinalizeMovesBatchIntoPlace(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	rows := []DecisionRow{
		{GameID: "g1", Turn: 0, Snakes: 2, Health: 100, Move: 0, Score: 12, PlayedMove: -1, Source: "arena"},
		{GameID: "g1", Turn: 1, Snakes: 2, Health: 99, Move: 3, Score: 9, PlayedMove: -1, Source: "arena"},
	}
	if err := w.WriteRows(rows); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	w.NoteGameWritten()

	outPath, n, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows=%d want=2", n)
	}
	if filepath.Dir(outPath) != dir {
		t.Fatalf("batch landed in %s want %s", filepath.Dir(outPath), dir)
	}

	got, err := parquet.ReadFile[DecisionRow](outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 || got[0].GameID != "g1" || got[1].Move != 3 {
		t.Fatalf("read back %+v", got)
	}

	// Nothing left behind in tmp.
	entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	if err != nil {
		t.Fatalf("ReadDir tmp: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("tmp dir not empty: %v", entries)
	}
}

func TestWriter_EmptyBatchIsDiscarded(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	outPath, rows, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if outPath != "" || rows != 0 {
		t.Fatalf("empty batch produced %q (%d rows)", outPath, rows)
	}
}
