// Package game defines the shared game state types for Battlesnake.
//
// These types represent the minimal state needed for the decision engine and
// the local rules simulator. The state is designed to be efficiently clonable.
package game

import "fmt"

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

type Snake struct {
	Id     string
	Health int32
	Body   []Point
}

// Head returns the first body segment.
func (s *Snake) Head() Point {
	return s.Body[0]
}

// GameState is the complete state needed for the engine and the simulator.
// YouId selects the ego snake perspective.
type GameState struct {
	Width  int32
	Height int32
	Snakes []Snake
	Food   []Point
	YouId  string
	Turn   int32
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouId:  s.YouId,
		Turn:   s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{Id: s.Snakes[i].Id, Health: s.Snakes[i].Health}
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

// You returns a pointer to the ego snake, or nil if it is not on the board.
func (s *GameState) You() *Snake {
	for i := range s.Snakes {
		if s.Snakes[i].Id == s.YouId {
			return &s.Snakes[i]
		}
	}
	return nil
}

// Validate rejects snapshots with geometry the engine cannot represent.
// A snake segment outside the board would otherwise index outside the dense
// occupancy array, so malformed snapshots are refused up front.
func (s *GameState) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid board size %dx%d", s.Width, s.Height)
	}
	if s.Turn < 0 {
		return fmt.Errorf("invalid turn %d", s.Turn)
	}
	for i := range s.Snakes {
		sn := &s.Snakes[i]
		if len(sn.Body) == 0 {
			return fmt.Errorf("snake %q has no body", sn.Id)
		}
		for _, p := range sn.Body {
			if p.X < 0 || p.X >= s.Width || p.Y < 0 || p.Y >= s.Height {
				return fmt.Errorf("snake %q segment (%d,%d) outside %dx%d board",
					sn.Id, p.X, p.Y, s.Width, s.Height)
			}
		}
	}
	return nil
}
