package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/game"
	"github.com/danielmussell/ubiquitous-funicular/logging"
	"github.com/danielmussell/ubiquitous-funicular/replay"
)

// twoFrameGame builds a minimal downloaded game where both snakes move up
// once.
func twoFrameGame() *replay.Game {
	frame := func(turn int32, meY, themY int32) replay.Frame {
		body := func(x, y int32) []game.Point {
			return []game.Point{{X: x, Y: y}, {X: x, Y: y - 1}, {X: x, Y: y - 2}}
		}
		return replay.Frame{
			Turn: turn,
			Snakes: []replay.FrameSnake{
				{ID: "me", Name: "Me", Health: 90, Body: body(4, meY)},
				{ID: "them", Name: "Them", Health: 85, Body: body(7, themY)},
			},
		}
	}
	return &replay.Game{
		ID:    "g1",
		Width: 11, Height: 11,
		Frames: []replay.Frame{frame(0, 5, 5), frame(1, 6, 6)},
	}
}

func TestReviewGame_FilterMatchesNothing(t *testing.T) {
	log := logging.New(io.Discard, slog.LevelError)
	e := engine.New(engine.Config{Depth: 1})

	_, _, ok := reviewGame(log, e, nil, twoFrameGame(), "no-such-snake")
	if ok {
		t.Fatal("unmatched filter should not count as a reviewed game")
	}
}

func TestReviewGame_CountsMatchedSnakes(t *testing.T) {
	log := logging.New(io.Discard, slog.LevelError)
	e := engine.New(engine.Config{Depth: 1})

	turns, agreed, ok := reviewGame(log, e, nil, twoFrameGame(), "Me")
	if !ok {
		t.Fatal("matching filter should count the game")
	}
	if turns != 1 {
		t.Fatalf("turns=%d, want 1", turns)
	}
	if agreed < 0 || agreed > turns {
		t.Fatalf("agreed=%d out of range", agreed)
	}

	// No filter reviews both snakes.
	turns, _, ok = reviewGame(log, e, nil, twoFrameGame(), "")
	if !ok || turns != 2 {
		t.Fatalf("unfiltered: turns=%d ok=%v, want 2 true", turns, ok)
	}
}
