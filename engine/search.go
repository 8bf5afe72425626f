package engine

import "math"

// jointMoves lazily enumerates the cartesian product of the four moves
// across every opponent, as a base-4 odometer. With zero opponents it yields
// exactly one empty combination, so a solo board still advances turn and
// health through ApplyJointMove.
//
// The product is 4^opponents combinations; it is never materialized.
type jointMoves struct {
	moves   [MaxSnakes - 1]int
	n       int
	started bool
	done    bool
}

func newJointMoves(opponents int) jointMoves {
	return jointMoves{n: opponents}
}

// next returns the following combination, or false when exhausted. The
// returned slice is the iterator's own buffer and is only valid until the
// next call.
func (j *jointMoves) next() ([]int, bool) {
	if j.done {
		return nil, false
	}
	if !j.started {
		j.started = true
		return j.moves[:j.n], true
	}
	for i := 0; i < j.n; i++ {
		j.moves[i]++
		if j.moves[i] < 4 {
			return j.moves[:j.n], true
		}
		j.moves[i] = 0
	}
	j.done = true
	return nil, false
}

// alphabeta runs the depth-bounded adversarial search.
//
// The maximizing ply tries our four moves via ApplyMove, which touches the
// board only. The minimizing ply enumerates the full joint product of
// opponent replies via ApplyJointMove, which is also where turn and health
// advance. Opponents are minimized jointly rather than independently, so
// the search is pessimistic about coordinated play.
//
// Pruning never changes the returned value, only the work done; the test
// suite checks this against an unpruned reference.
func (e *Engine) alphabeta(n Node, depth int, alpha, beta int32, maximizing bool) int32 {
	if depth == 0 {
		return n.Evaluate(e.cfg)
	}

	if maximizing {
		value := int32(math.MinInt32)
		for _, move := range [4]int{0, 1, 2, 3} {
			score := e.alphabeta(n.ApplyMove(0, move), depth-1, alpha, beta, false)
			if score > value {
				value = score
			}
			if value >= beta {
				break
			}
			if value > alpha {
				alpha = value
			}
		}
		return value
	}

	value := int32(math.MaxInt32)
	iter := newJointMoves(n.Snakes - 1)
	for moves, ok := iter.next(); ok; moves, ok = iter.next() {
		score := e.alphabeta(n.ApplyJointMove(moves), depth-1, alpha, beta, true)
		if score < value {
			value = score
		}
		if value <= alpha {
			break
		}
		if value < beta {
			beta = value
		}
	}
	return value
}
