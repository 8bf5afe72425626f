// Command review downloads public games and replays them through the
// engine, reporting how often the engine agrees with the moves the real
// snakes played. Games come either from explicit -game flags or from a
// leaderboard crawl.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/logging"
	"github.com/danielmussell/ubiquitous-funicular/replay"
	"github.com/danielmussell/ubiquitous-funicular/store"
)

type gameIDList []string

func (l *gameIDList) String() string { return strings.Join(*l, ",") }
func (l *gameIDList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var gameIDs gameIDList
	fs.Var(&gameIDs, "game", "Game ID to review (repeatable)")
	discover := fs.Bool("discover", false, "Crawl the leaderboards for games when no -game is given")
	maxGames := fs.Int("max-games", 20, "Stop after reviewing this many discovered games")
	snakeFilter := fs.String("snake", "", "Only review snakes whose name or ID matches")
	depth := fs.Int("depth", engine.DefaultConfig().Depth, "Search depth in plies")
	outDir := fs.String("out-dir", "", "Directory for parquet decision records (empty disables recording)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	log := logging.New(os.Stdout, slog.LevelInfo)

	if len(gameIDs) == 0 && !*discover {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -game or -discover")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var writer *store.Writer
	if *outDir != "" {
		var err error
		writer, err = store.NewWriter(*outDir)
		if err != nil {
			log.Error("open decision store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			path, rows, err := writer.Finalize()
			if err != nil {
				log.Error("finalize decision store", slog.String("error", err.Error()))
				return
			}
			if path != "" {
				log.Info("decisions written", slog.String("path", path), slog.Int("rows", rows))
			}
		}()
	}

	ids := make(chan string, 64)
	if len(gameIDs) > 0 {
		go func() {
			defer close(ids)
			for _, id := range gameIDs {
				select {
				case ids <- id:
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		d := replay.NewDiscoverer(replay.DefaultDiscoverConfig(), log)
		go func() {
			defer close(ids)
			if _, err := d.Discover(ctx, ids); err != nil && ctx.Err() == nil {
				log.Warn("discovery stopped", slog.String("error", err.Error()))
			}
		}()
	}

	e := engine.New(engine.Config{Depth: *depth})
	dlCfg := replay.DefaultDownloadConfig()

	reviewed := 0
	totalTurns, totalAgreed := 0, 0
	for id := range ids {
		if ctx.Err() != nil {
			break
		}
		if *maxGames > 0 && reviewed >= *maxGames {
			break
		}

		g, err := replay.Download(dlCfg, id)
		if err != nil {
			log.Warn("download failed", slog.String("game_id", id), slog.String("error", err.Error()))
			continue
		}
		if len(g.Frames) < 2 {
			log.Warn("too few frames", slog.String("game_id", id))
			continue
		}

		turns, agreed, ok := reviewGame(log, e, writer, g, *snakeFilter)
		if !ok {
			// Nothing reviewable, so the game does not count towards
			// -max-games.
			continue
		}
		totalTurns += turns
		totalAgreed += agreed
		reviewed++
	}

	rate := 0.0
	if totalTurns > 0 {
		rate = float64(totalAgreed) / float64(totalTurns)
	}
	log.Info("done",
		slog.Int("games", reviewed),
		slog.Int("turns", totalTurns),
		slog.Int("agreed", totalAgreed),
		slog.Float64("rate", rate))
}

// reviewGame reviews every snake in the game's first frame that matches the
// filter. ok reports whether at least one review succeeded.
func reviewGame(log *slog.Logger, e *engine.Engine, writer *store.Writer, g *replay.Game, filter string) (turns, agreed int, ok bool) {
	for _, s := range g.Frames[0].Snakes {
		if filter != "" && s.Name != filter && s.ID != filter {
			continue
		}

		report, rows, err := replay.Review(e, g, s.ID)
		if err != nil {
			log.Warn("review failed",
				slog.String("game_id", g.ID),
				slog.String("snake", s.Name),
				slog.String("error", err.Error()))
			continue
		}

		ok = true
		turns += report.Turns
		agreed += report.Agreed
		log.Info("reviewed",
			slog.String("game_id", g.ID),
			slog.String("snake", s.Name),
			slog.Int("turns", report.Turns),
			slog.Int("agreed", report.Agreed),
			slog.Int("skipped", report.Skipped),
			slog.Float64("rate", report.Rate()))

		if writer != nil && len(rows) > 0 {
			if err := writer.WriteRows(rows); err != nil {
				log.Warn("record decisions", slog.String("error", err.Error()))
			} else {
				writer.NoteGameWritten()
			}
		}
	}
	return turns, agreed, ok
}
