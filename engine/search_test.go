package engine

import (
	"math"
	"testing"

	"github.com/danielmussell/ubiquitous-funicular/game"
)

// plainMinimax is the unpruned reference the alpha-beta implementation must
// agree with. Same ply structure, no cutoffs.
func plainMinimax(e *Engine, n Node, depth int, maximizing bool) int32 {
	if depth == 0 {
		return n.Evaluate(e.cfg)
	}

	if maximizing {
		value := int32(math.MinInt32)
		for move := 0; move < 4; move++ {
			if score := plainMinimax(e, n.ApplyMove(0, move), depth-1, false); score > value {
				value = score
			}
		}
		return value
	}

	value := int32(math.MaxInt32)
	iter := newJointMoves(n.Snakes - 1)
	for moves, ok := iter.next(); ok; moves, ok = iter.next() {
		if score := plainMinimax(e, n.ApplyJointMove(moves), depth-1, true); score < value {
			value = score
		}
	}
	return value
}

func TestJointMoves_Enumeration(t *testing.T) {
	// Zero opponents still yields exactly one (empty) combination so turn
	// and health advance on solo boards.
	iter := newJointMoves(0)
	moves, ok := iter.next()
	if !ok || len(moves) != 0 {
		t.Fatalf("zero opponents: moves=%v ok=%v", moves, ok)
	}
	if _, ok := iter.next(); ok {
		t.Fatalf("zero opponents yielded a second combination")
	}

	iter = newJointMoves(2)
	seen := map[[2]int]bool{}
	for moves, ok := iter.next(); ok; moves, ok = iter.next() {
		if len(moves) != 2 {
			t.Fatalf("combination length %d want 2", len(moves))
		}
		k := [2]int{moves[0], moves[1]}
		if seen[k] {
			t.Fatalf("duplicate combination %v", k)
		}
		seen[k] = true
	}
	if len(seen) != 16 {
		t.Fatalf("enumerated %d combinations want 16", len(seen))
	}
}

func TestAlphabeta_MatchesPlainMinimax(t *testing.T) {
	states := []*game.GameState{
		eleven(0,
			vertical("me", 100, 5, 5, 3),
			vertical("other", 100, 5, 8, 3),
		),
		eleven(4,
			vertical("me", 30, 2, 4, 4),
			vertical("other", 100, 8, 8, 4),
		),
		eleven(9,
			vertical("me", 100, 5, 3, 3),
			vertical("a", 100, 3, 7, 3),
			vertical("b", 100, 7, 7, 3),
		),
		// Solo board: minimizing ply collapses to a single empty reply.
		eleven(0, vertical("me", 100, 5, 5, 3)),
	}

	for _, tb := range []TieBreak{TieBreakNeutral, TieBreakScanOrder} {
		e := New(Config{Depth: 2, HealthBuffer: 2, TieBreak: tb})
		for si, state := range states {
			root, err := NewNode(state)
			if err != nil {
				t.Fatalf("state %d: %v", si, err)
			}
			for _, move := range game.AllMoves {
				child := root.ApplyMove(0, move)
				pruned := e.alphabeta(child, e.cfg.Depth, math.MinInt32, math.MaxInt32, false)
				plain := plainMinimax(e, child, e.cfg.Depth, false)
				if pruned != plain {
					t.Errorf("state %d tie-break %v move %s: alphabeta=%d minimax=%d",
						si, tb, game.MoveName(move), pruned, plain)
				}
			}
		}
	}
}

func TestAlphabeta_PrefersLaterLossWhenDoomed(t *testing.T) {
	// Both scores are losses; the branch surviving more plies must win.
	e := New(DefaultConfig())
	n, err := NewNode(eleven(0, vertical("me", 100, 5, 5, 3)))
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	doomedNow := n
	doomedNow.Heads[0] = game.Point{X: 0, Y: 5}
	doomedLater := doomedNow
	doomedLater.Turn += 6

	now := e.alphabeta(doomedNow, 2, math.MinInt32, math.MaxInt32, false)
	later := e.alphabeta(doomedLater, 2, math.MinInt32, math.MaxInt32, false)
	if later <= now {
		t.Fatalf("later doom scored %d, not above earlier doom %d", later, now)
	}
}
