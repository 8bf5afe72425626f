// Package arena plays full local games, engine against engine, on the rules
// simulator. It produces game results and decision rows for the store.
package arena

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/game"
	"github.com/danielmussell/ubiquitous-funicular/rules"
	"github.com/danielmussell/ubiquitous-funicular/store"
)

// Options configures one game.
type Options struct {
	// Seed drives snake placement and food spawning. Zero picks a seed
	// from the clock.
	Seed int64
	// Snakes is the number of players, 2 to engine.MaxSnakes. Zero means 2.
	Snakes int
	// MaxTurns caps the game; hitting it is a draw. Zero means 500.
	MaxTurns int32
	Food     rules.FoodSettings
}

// Result is the outcome of one finished game. Winner is empty for a draw.
type Result struct {
	GameID string
	Winner string
	Turns  int32
}

// Progress is handed to the per-turn callback, for logging and the TUI.
type Progress struct {
	State *game.GameState
	Moves map[string]int
}

// startPositions are the standard corner spawns, one cell off each wall,
// dealt in order.
var startPositions = []game.Point{
	{X: 1, Y: 1},
	{X: engine.BoardSize - 2, Y: engine.BoardSize - 2},
	{X: 1, Y: engine.BoardSize - 2},
	{X: engine.BoardSize - 2, Y: 1},
}

// NewGame builds a fresh starting state: every snake spawns stacked three
// long on its start cell with full health, and the board is seeded with one
// food per snake plus a centre food, roughly as the official engine does.
func NewGame(rng *rand.Rand, snakes int) *game.GameState {
	state := &game.GameState{
		Width:  engine.BoardSize,
		Height: engine.BoardSize,
		Turn:   0,
	}
	for i := 0; i < snakes; i++ {
		p := startPositions[i]
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     fmt.Sprintf("snake-%d", i),
			Health: 100,
			Body:   []game.Point{p, p, p},
		})
	}
	state.YouId = state.Snakes[0].Id

	rules.ApplyFoodSettings(state, rng, rules.FoodSettings{MinimumFood: snakes + 1, FoodSpawnChance: 0})
	return state
}

// PlayGame runs one game to completion. Every snake is driven by the same
// engine, each from its own perspective. The context aborts a game early;
// an aborted game reports what it saw so far with an empty winner.
func PlayGame(ctx context.Context, e *engine.Engine, opts Options, onTurn func(Progress)) (Result, []store.DecisionRow, error) {
	if opts.Snakes == 0 {
		opts.Snakes = 2
	}
	if opts.Snakes < 2 || opts.Snakes > engine.MaxSnakes {
		return Result{}, nil, fmt.Errorf("snakes=%d out of range 2..%d", opts.Snakes, engine.MaxSnakes)
	}
	if opts.MaxTurns == 0 {
		opts.MaxTurns = 500
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	state := NewGame(rng, opts.Snakes)
	gameID := fmt.Sprintf("arena_%d_%d", time.Now().UnixNano(), seed%1000)
	rows := make([]store.DecisionRow, 0, 256)

	for {
		select {
		case <-ctx.Done():
			return Result{GameID: gameID, Turns: state.Turn}, rows, ctx.Err()
		default:
		}

		if rules.IsGameOver(state) || state.Turn >= opts.MaxTurns {
			res := Result{GameID: gameID, Turns: state.Turn}
			if state.Turn < opts.MaxTurns && len(state.Snakes) == 1 {
				res.Winner = state.Snakes[0].Id
			}
			return res, rows, nil
		}

		moves := make(map[string]int, len(state.Snakes))
		for i := range state.Snakes {
			s := &state.Snakes[i]
			view := state.Clone()
			view.YouId = s.Id

			start := time.Now()
			d, err := e.Decide(view)
			if err != nil {
				return Result{GameID: gameID, Turns: state.Turn}, rows, fmt.Errorf("decide for %s: %w", s.Id, err)
			}
			moves[s.Id] = d.Move

			rivals := int32(0)
			for j := 1; j < d.Snakes; j++ {
				rivals += d.Territory[j]
			}
			rows = append(rows, store.DecisionRow{
				GameID:          gameID,
				Turn:            state.Turn,
				Snakes:          int32(len(state.Snakes)),
				Health:          s.Health,
				Move:            int32(d.Move),
				Score:           d.Score,
				ScoreUp:         d.Scores[game.MoveUp],
				ScoreDown:       d.Scores[game.MoveDown],
				ScoreLeft:       d.Scores[game.MoveLeft],
				ScoreRight:      d.Scores[game.MoveRight],
				TerritoryEgo:    d.Territory[0],
				TerritoryRivals: rivals,
				PlayedMove:      int32(d.Move),
				ElapsedUs:       time.Since(start).Microseconds(),
				Source:          "arena",
			})
		}

		state = rules.NextStateSimultaneous(state, moves, rng, opts.Food)

		if onTurn != nil {
			onTurn(Progress{State: state, Moves: moves})
		}
	}
}
