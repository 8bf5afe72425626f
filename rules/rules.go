// Package rules implements local Battlesnake turn resolution: simultaneous
// move application, food and growth, starvation and collision elimination.
//
// The decision engine does not depend on this package. It exists so the
// arena, the TUI watcher and the tests can play full games without an
// external game server.
package rules

import (
	"math/rand"

	"github.com/danielmussell/ubiquitous-funicular/game"
)

// GetLegalMoves returns the moves the YouId snake can make without dying on
// the spot: inside the board and not into any body segment that exists now.
func GetLegalMoves(state *game.GameState) []int {
	you := state.You()
	if you == nil || you.Health <= 0 {
		return nil
	}

	head := you.Head()
	var moves []int
	for _, move := range game.AllMoves {
		if isSafe(state, game.Step(head, move)) {
			moves = append(moves, move)
		}
	}
	return moves
}

func isSafe(state *game.GameState, p game.Point) bool {
	if p.X < 0 || p.X >= state.Width || p.Y < 0 || p.Y >= state.Height {
		return false
	}
	// Conservative: any current body segment blocks, tails included. Whether
	// a tail vacates this turn depends on food we cannot see yet.
	for i := range state.Snakes {
		for _, bp := range state.Snakes[i].Body {
			if p == bp {
				return false
			}
		}
	}
	return true
}

// NextState advances only the YouId snake; everyone else stays put. Useful
// for probing a single move without committing opponents.
func NextState(state *game.GameState, move int, rng *rand.Rand, settings FoodSettings) *game.GameState {
	you := state.You()
	if you == nil {
		return state.Clone()
	}
	return NextStateSimultaneous(state, map[string]int{you.Id: move}, rng, settings)
}

// NextStateSimultaneous resolves one full turn: every snake with an entry in
// moves steps at once, food is eaten and grows its eater, health drains,
// then wall, body, and head-to-head eliminations are applied. Snakes without
// a move entry are eliminated, matching the server's treatment of a snake
// that failed to answer. Dead snakes are dropped from the returned state.
func NextStateSimultaneous(state *game.GameState, moves map[string]int, rng *rand.Rand, settings FoodSettings) *game.GameState {
	next := state.Clone()
	next.Turn++

	// Step every head.
	newHeads := make(map[string]game.Point, len(next.Snakes))
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if s.Health <= 0 {
			continue
		}
		move, ok := moves[s.Id]
		if !ok {
			continue
		}
		newHeads[s.Id] = game.Step(s.Head(), move)
	}

	// Food is claimed by whoever lands on it; two heads on the same food
	// both count as fed (the head-to-head rule settles them afterwards).
	eaten := make(map[int]bool)
	fed := make(map[string]bool)
	for id, head := range newHeads {
		for i, f := range next.Food {
			if f == head {
				eaten[i] = true
				fed[id] = true
			}
		}
	}
	if len(eaten) > 0 {
		remaining := next.Food[:0]
		for i, f := range next.Food {
			if !eaten[i] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	// Advance bodies: prepend the new head, keep the tail on growth.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		head, ok := newHeads[s.Id]
		if !ok {
			s.Health = 0
			continue
		}
		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, head)
		body = append(body, s.Body...)
		if fed[s.Id] {
			s.Health = 100
		} else {
			s.Health--
			body = body[:len(body)-1]
		}
		s.Body = body
	}

	dead := make(map[string]bool)

	// Starvation, walls, and bodies.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if s.Health <= 0 {
			dead[s.Id] = true
			continue
		}
		head := s.Head()
		if head.X < 0 || head.X >= next.Width || head.Y < 0 || head.Y >= next.Height {
			dead[s.Id] = true
			continue
		}
		for j := range next.Snakes {
			other := &next.Snakes[j]
			if other.Health <= 0 {
				continue
			}
			for k, p := range other.Body {
				if k == 0 {
					// Heads meet heads below, not here.
					continue
				}
				if p == head {
					dead[s.Id] = true
				}
			}
		}
	}

	// Head-to-head: longer snake survives, equal lengths both die.
	for i := 0; i < len(next.Snakes); i++ {
		s1 := &next.Snakes[i]
		if dead[s1.Id] {
			continue
		}
		for j := i + 1; j < len(next.Snakes); j++ {
			s2 := &next.Snakes[j]
			if dead[s2.Id] || s1.Head() != s2.Head() {
				continue
			}
			switch {
			case len(s1.Body) > len(s2.Body):
				dead[s2.Id] = true
			case len(s2.Body) > len(s1.Body):
				dead[s1.Id] = true
			default:
				dead[s1.Id] = true
				dead[s2.Id] = true
			}
		}
	}

	alive := make([]game.Snake, 0, len(next.Snakes))
	for _, s := range next.Snakes {
		if !dead[s.Id] {
			alive = append(alive, s)
		}
	}
	next.Snakes = alive

	applyFoodRules(next, rng, settings, uint64(next.Turn))

	return next
}

// IsGameOver reports whether at most one snake is still alive.
func IsGameOver(state *game.GameState) bool {
	living := 0
	for i := range state.Snakes {
		if state.Snakes[i].Health > 0 {
			living++
		}
	}
	return living <= 1
}

// IsTerminal reports whether the game is over for the YouId snake.
func IsTerminal(state *game.GameState) bool {
	you := state.You()
	if you == nil || you.Health <= 0 {
		return true
	}
	return len(GetLegalMoves(state)) == 0
}
