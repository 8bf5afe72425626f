package replay

import (
	"encoding/json"
	"testing"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/game"
)

// frameAt builds one frame with two living snakes, me's head at the given
// position with a two-cell tail trailing downward.
func frameAt(turn int32, meHead, themHead game.Point) Frame {
	tail := func(h game.Point) []game.Point {
		return []game.Point{h, {X: h.X, Y: h.Y - 1}, {X: h.X, Y: h.Y - 2}}
	}
	return Frame{
		Turn: turn,
		Snakes: []FrameSnake{
			{ID: "me", Name: "Me", Health: 90, Body: tail(meHead)},
			{ID: "them", Name: "Them", Health: 85, Body: tail(themHead)},
		},
		Food: []game.Point{{X: 0, Y: 0}},
	}
}

func TestGameState_DropsDeadSnakes(t *testing.T) {
	g := &Game{
		ID:    "g1",
		Width: 11, Height: 11,
		Frames: []Frame{frameAt(0, game.Point{X: 5, Y: 5}, game.Point{X: 2, Y: 8})},
	}
	g.Frames[0].Snakes[1].Dead = true

	state, alive := g.State(0, "me")
	if !alive {
		t.Fatal("ego should be alive")
	}
	if len(state.Snakes) != 1 {
		t.Fatalf("dead snake kept: %+v", state.Snakes)
	}
	if state.YouId != "me" || state.Turn != 0 {
		t.Fatalf("bad snapshot: %+v", state)
	}

	_, alive = g.State(0, "them")
	if alive {
		t.Fatal("dead ego reported alive")
	}
}

func TestPlayedMove_DerivedFromHeadDelta(t *testing.T) {
	from := game.Point{X: 5, Y: 5}
	cases := []struct {
		to   game.Point
		want int
	}{
		{game.Point{X: 5, Y: 6}, game.MoveUp},
		{game.Point{X: 5, Y: 4}, game.MoveDown},
		{game.Point{X: 4, Y: 5}, game.MoveLeft},
		{game.Point{X: 6, Y: 5}, game.MoveRight},
	}
	for _, c := range cases {
		got, ok := playedMove(from, c.to)
		if !ok || got != c.want {
			t.Errorf("playedMove(%v, %v) = %d,%v want %d", from, c.to, got, ok, c.want)
		}
	}

	// A teleport means the frame stream skipped turns.
	if _, ok := playedMove(from, game.Point{X: 8, Y: 8}); ok {
		t.Error("two-cell jump should not resolve to a move")
	}
}

func TestReview_CountsAgreementAndSkips(t *testing.T) {
	g := &Game{
		ID:    "g2",
		Width: 11, Height: 11,
		Frames: []Frame{
			frameAt(0, game.Point{X: 5, Y: 5}, game.Point{X: 2, Y: 8}),
			frameAt(1, game.Point{X: 5, Y: 6}, game.Point{X: 2, Y: 9}),
			frameAt(2, game.Point{X: 6, Y: 6}, game.Point{X: 3, Y: 9}),
		},
	}

	e := engine.New(engine.Config{Depth: 1})
	report, rows, err := Review(e, g, "me")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if report.Turns != 2 {
		t.Fatalf("turns %d, want 2", report.Turns)
	}
	if report.Agreed < 0 || report.Agreed > report.Turns {
		t.Fatalf("agreed %d out of range", report.Agreed)
	}
	if len(rows) != report.Turns {
		t.Fatalf("rows %d != turns %d", len(rows), report.Turns)
	}
	for _, r := range rows {
		if r.Source != "replay" {
			t.Fatalf("source %q", r.Source)
		}
		if r.PlayedMove < 0 {
			t.Fatal("played move missing")
		}
	}
	if rate := report.Rate(); rate < 0 || rate > 1 {
		t.Fatalf("rate %f out of range", rate)
	}
}

func TestReview_StopsWhenEgoDies(t *testing.T) {
	g := &Game{
		ID:    "g3",
		Width: 11, Height: 11,
		Frames: []Frame{
			frameAt(0, game.Point{X: 5, Y: 5}, game.Point{X: 2, Y: 8}),
			frameAt(1, game.Point{X: 5, Y: 6}, game.Point{X: 2, Y: 9}),
		},
	}
	g.Frames[1].Snakes[0].Dead = true

	e := engine.New(engine.Config{Depth: 1})
	report, rows, err := Review(e, g, "me")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if report.Turns != 0 || len(rows) != 0 {
		t.Fatalf("review past death: %+v", report)
	}
}

func TestConvertFrame_ParsesEngineEvent(t *testing.T) {
	raw := `{
		"turn": 7,
		"board": {"width": 11, "height": 11},
		"food": [{"x": 1, "y": 2}],
		"snakes": [
			{"id": "a", "name": "A", "health": 50,
			 "body": [{"x": 4, "y": 4}, {"x": 4, "y": 3}]},
			{"id": "b", "name": "B", "health": 0,
			 "body": [{"x": 9, "y": 9}],
			 "death": {"cause": "wall-collision", "turn": 6}}
		]
	}`
	var f frameEvent
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatal(err)
	}

	frame := convertFrame(&f)
	if frame.Turn != 7 {
		t.Fatalf("turn %d", frame.Turn)
	}
	if len(frame.Food) != 1 || frame.Food[0] != (game.Point{X: 1, Y: 2}) {
		t.Fatalf("food %+v", frame.Food)
	}
	if len(frame.Snakes) != 2 {
		t.Fatalf("snakes %+v", frame.Snakes)
	}
	if frame.Snakes[0].Dead {
		t.Fatal("living snake marked dead")
	}
	if !frame.Snakes[1].Dead {
		t.Fatal("dead snake not marked")
	}
	if frame.Snakes[0].Body[1] != (game.Point{X: 4, Y: 3}) {
		t.Fatalf("body %+v", frame.Snakes[0].Body)
	}
}
