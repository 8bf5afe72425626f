package replay

import (
	"fmt"
	"time"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/game"
	"github.com/danielmussell/ubiquitous-funicular/store"
)

// Report summarises how a reviewed snake's real moves compare to the
// engine's choices across one game.
type Report struct {
	GameID string
	EgoID  string
	// Turns is the number of turns the ego's played move could be derived
	// and the engine produced a decision.
	Turns int
	// Agreed counts turns where the engine picked the played move.
	Agreed int
	// Skipped counts frames the review could not use, because the snapshot
	// was rejected or the head did not move by exactly one cell.
	Skipped int
}

// Rate is the agreement fraction, 0 when nothing was reviewable.
func (r Report) Rate() float64 {
	if r.Turns == 0 {
		return 0
	}
	return float64(r.Agreed) / float64(r.Turns)
}

// playedMove derives the move a snake made between two frames from its
// head displacement. Growing, eating and stacked spawn bodies all keep the
// head delta a single step, so this holds for every normal turn.
func playedMove(from, to game.Point) (int, bool) {
	for _, m := range game.AllMoves {
		if game.Step(from, m) == to {
			return m, true
		}
	}
	return -1, false
}

// Review replays every frame of a downloaded game from egoID's point of
// view and compares the engine's decision to the move the snake really
// played. It also returns one decision row per reviewed turn, with
// PlayedMove filled in, for the parquet store.
func Review(e *engine.Engine, g *Game, egoID string) (Report, []store.DecisionRow, error) {
	report := Report{GameID: g.ID, EgoID: egoID}

	if len(g.Frames) < 2 {
		return report, nil, fmt.Errorf("game %s has %d frames, need at least 2", g.ID, len(g.Frames))
	}

	var rows []store.DecisionRow
	for i := 0; i+1 < len(g.Frames); i++ {
		state, alive := g.State(i, egoID)
		if !alive {
			break
		}
		next, nextAlive := g.State(i+1, egoID)
		if !nextAlive {
			break
		}

		ego := state.You()
		egoNext := next.You()
		played, ok := playedMove(ego.Head(), egoNext.Head())
		if !ok {
			report.Skipped++
			continue
		}

		start := time.Now()
		d, err := e.Decide(state)
		if err != nil {
			report.Skipped++
			continue
		}
		elapsed := time.Since(start)

		report.Turns++
		if d.Move == played {
			report.Agreed++
		}

		rivals := int32(0)
		for j := 1; j < d.Snakes; j++ {
			rivals += d.Territory[j]
		}
		rows = append(rows, store.DecisionRow{
			GameID:          g.ID,
			Turn:            state.Turn,
			Snakes:          int32(len(state.Snakes)),
			Health:          ego.Health,
			Move:            int32(d.Move),
			Score:           d.Score,
			ScoreUp:         d.Scores[game.MoveUp],
			ScoreDown:       d.Scores[game.MoveDown],
			ScoreLeft:       d.Scores[game.MoveLeft],
			ScoreRight:      d.Scores[game.MoveRight],
			TerritoryEgo:    d.Territory[0],
			TerritoryRivals: rivals,
			PlayedMove:      int32(played),
			ElapsedUs:       elapsed.Microseconds(),
			Source:          "replay",
		})
	}

	return report, rows, nil
}
