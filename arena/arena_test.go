package arena

import (
	"context"
	"math/rand"
	"testing"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/rules"
)

func TestNewGame_SpawnsStackedSnakesAndFood(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	state := NewGame(rng, 3)

	if got := len(state.Snakes); got != 3 {
		t.Fatalf("snakes: got %d want 3", got)
	}
	onCorner := func(v int32) bool {
		return v == 1 || v == engine.BoardSize-2
	}
	for _, s := range state.Snakes {
		if len(s.Body) != 3 {
			t.Errorf("snake %s body length %d, want 3", s.Id, len(s.Body))
		}
		if h := s.Body[0]; !onCorner(h.X) || !onCorner(h.Y) {
			t.Errorf("snake %s spawned at %v, want one cell off a corner", s.Id, h)
		}
		if s.Body[0] != s.Body[1] || s.Body[1] != s.Body[2] {
			t.Errorf("snake %s should spawn stacked, got %v", s.Id, s.Body)
		}
		if s.Health != 100 {
			t.Errorf("snake %s health %d, want 100", s.Id, s.Health)
		}
	}
	if len(state.Food) < 4 {
		t.Errorf("food: got %d want at least 4", len(state.Food))
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("fresh state invalid: %v", err)
	}
}

func TestPlayGame_RunsToCompletion(t *testing.T) {
	e := engine.New(engine.Config{Depth: 1})
	res, rows, err := PlayGame(context.Background(), e, Options{
		Seed:     7,
		MaxTurns: 60,
		Food:     rules.DefaultFoodSettings,
	}, nil)
	if err != nil {
		t.Fatalf("PlayGame: %v", err)
	}
	if res.Turns == 0 {
		t.Fatal("game ended on turn 0")
	}
	if res.GameID == "" {
		t.Fatal("empty game id")
	}
	if len(rows) == 0 {
		t.Fatal("no decision rows recorded")
	}
	for _, r := range rows {
		if r.GameID != res.GameID {
			t.Fatalf("row game id %q != result %q", r.GameID, res.GameID)
		}
		if r.Move < 0 || r.Move > 3 {
			t.Fatalf("row move %d out of range", r.Move)
		}
		if r.PlayedMove != r.Move {
			t.Fatalf("played move %d != decided move %d", r.PlayedMove, r.Move)
		}
	}
}

func TestPlayGame_DeterministicForSeed(t *testing.T) {
	e := engine.New(engine.Config{Depth: 1})
	opts := Options{Seed: 42, MaxTurns: 40, Food: rules.DefaultFoodSettings}

	a, _, err := PlayGame(context.Background(), e, opts, nil)
	if err != nil {
		t.Fatalf("first game: %v", err)
	}
	b, _, err := PlayGame(context.Background(), e, opts, nil)
	if err != nil {
		t.Fatalf("second game: %v", err)
	}
	if a.Winner != b.Winner || a.Turns != b.Turns {
		t.Fatalf("same seed diverged: %+v vs %+v", a, b)
	}
}

func TestPlayGame_ContextCancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := engine.New(engine.DefaultConfig())
	_, _, err := PlayGame(ctx, e, Options{Seed: 1}, nil)
	if err == nil {
		t.Fatal("want context error, got nil")
	}
}

func TestPlayGame_CallbackSeesEveryTurn(t *testing.T) {
	e := engine.New(engine.Config{Depth: 1})
	var turns int
	res, _, err := PlayGame(context.Background(), e, Options{
		Seed:     9,
		MaxTurns: 30,
		Food:     rules.DefaultFoodSettings,
	}, func(p Progress) {
		turns++
		if p.State == nil {
			t.Fatal("nil state in progress")
		}
		if len(p.Moves) == 0 {
			t.Fatal("no moves in progress")
		}
	})
	if err != nil {
		t.Fatalf("PlayGame: %v", err)
	}
	if int32(turns) != res.Turns {
		t.Fatalf("callback fired %d times, game lasted %d turns", turns, res.Turns)
	}
}
