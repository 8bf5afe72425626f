// Command arena runs engine-vs-engine self-play games and writes the
// engine's decisions to parquet batches for cmd/stats.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danielmussell/ubiquitous-funicular/arena"
	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/logging"
	"github.com/danielmussell/ubiquitous-funicular/rules"
	"github.com/danielmussell/ubiquitous-funicular/store"
)

var (
	totalGames atomic.Int64
	totalTurns atomic.Int64
)

type gameWriteRequest struct {
	rows []store.DecisionRow
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	outDir := fs.String("out-dir", "data/arena", "Output directory for parquet decision batches")
	workers := fs.Int("workers", 4, "Number of parallel games")
	gamesPerFlush := fs.Int("games-per-flush", 50, "Number of games to buffer per parquet flush")
	maxGames := fs.Int64("max-games", 0, "If > 0, stop after this many games")
	depth := fs.Int("depth", engine.DefaultConfig().Depth, "Search depth in plies")
	snakes := fs.Int("snakes", 2, "Snakes per game")
	maxTurns := fs.Int("max-turns", 500, "Turn cap per game (hitting it is a draw)")
	seed := fs.Int64("seed", 0, "Base seed for game setup and food (0 uses the clock)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	log := logging.New(os.Stdout, slog.LevelInfo)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	baseSeed := *seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}
	seeds := rand.New(rand.NewSource(baseSeed))

	var seedMu sync.Mutex
	nextSeed := func() int64 {
		seedMu.Lock()
		defer seedMu.Unlock()
		return seeds.Int63()
	}

	writeReqs := make(chan gameWriteRequest, (*workers)*4)
	writerDone := make(chan struct{})
	go func() {
		writerLoop(log, *outDir, *gamesPerFlush, writeReqs)
		close(writerDone)
	}()

	e := engine.New(engine.Config{Depth: *depth})
	log.Info("starting self-play",
		slog.Int("workers", *workers),
		slog.Int("depth", *depth),
		slog.Int("snakes", *snakes),
		slog.Int64("seed", baseSeed))

	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				res, rows, err := arena.PlayGame(ctx, e, arena.Options{
					Seed:     nextSeed(),
					Snakes:   *snakes,
					MaxTurns: int32(*maxTurns),
					Food:     rules.DefaultFoodSettings,
				}, nil)
				if err != nil {
					if ctx.Err() == nil {
						log.Warn("game aborted",
							slog.Int("worker", workerID),
							slog.String("error", err.Error()))
					}
					continue
				}

				total := totalGames.Add(1)
				totalTurns.Add(int64(res.Turns))
				log.Info("game finished",
					slog.Int("worker", workerID),
					slog.String("game_id", res.GameID),
					slog.String("winner", res.Winner),
					slog.Int("turns", int(res.Turns)),
					slog.Int64("total_games", total))

				if len(rows) > 0 {
					writeReqs <- gameWriteRequest{rows: rows}
				}
				if *maxGames > 0 && total >= *maxGames {
					cancel()
				}
			}
		}(i)
	}

	start := time.Now()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown requested, waiting for games in flight")
			workerWG.Wait()
			close(writeReqs)
			<-writerDone
			log.Info("shutdown complete",
				slog.Int64("games", totalGames.Load()),
				slog.Int64("turns", totalTurns.Load()))
			return
		case <-ticker.C:
			elapsed := time.Since(start).Seconds()
			games := totalGames.Load()
			turns := totalTurns.Load()
			log.Info("progress",
				slog.Int64("games", games),
				slog.Int64("turns", turns),
				slog.Float64("games_per_sec", float64(games)/elapsed),
				slog.Float64("turns_per_sec", float64(turns)/elapsed))
		}
	}
}

// writerLoop buffers incoming games and flushes them to parquet once enough
// have accumulated, plus a final flush on shutdown.
func writerLoop(log *slog.Logger, outDir string, gamesPerFlush int, in <-chan gameWriteRequest) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 50
	}

	flush := func(w *store.Writer) {
		path, rows, err := w.Finalize()
		if err != nil {
			log.Warn("parquet flush failed", slog.String("error", err.Error()))
			return
		}
		if path != "" {
			log.Info("parquet flush", slog.String("path", path), slog.Int("rows", rows))
		}
	}

	var writer *store.Writer
	for req := range in {
		if len(req.rows) == 0 {
			continue
		}
		if writer == nil {
			var err error
			writer, err = store.NewWriter(outDir)
			if err != nil {
				log.Warn("open parquet batch", slog.String("error", err.Error()))
				continue
			}
		}
		if err := writer.WriteRows(req.rows); err != nil {
			log.Warn("write parquet rows", slog.String("error", err.Error()))
			continue
		}
		writer.NoteGameWritten()

		if writer.BufferedGames() >= gamesPerFlush {
			flush(writer)
			writer = nil
		}
	}

	if writer != nil {
		flush(writer)
	}
}
