package engine

// TieBreak selects how the territory fill treats a cell that two snakes
// reach on the same expansion round.
type TieBreak int

const (
	// TieBreakNeutral leaves simultaneously-contested cells unowned and
	// credits them to nobody. This is the default: it keeps the estimate
	// symmetric under board reflection.
	TieBreakNeutral TieBreak = iota
	// TieBreakScanOrder awards contested cells to whichever owned
	// neighbour is seen first in left/right/down/up scan order. This is
	// order-dependent and slightly asymmetric, but kept selectable because
	// it matches the historical behaviour the evaluation was tuned under.
	TieBreakScanOrder
)

const (
	notOwned  int8 = -1
	contested int8 = -2
)

// Territory computes, for each snake, the number of free cells its head
// reaches strictly before any other head, under synchronous BFS expansion
// over cells that are vacant at the node's turn. It is a coarse discrete
// Voronoi partition used as the positional heuristic, not an exact
// path-distance computation.
//
// Head cells themselves are owned but not counted.
func (n *Node) Territory(tb TieBreak) [MaxSnakes]int32 {
	owned := NewBoard[int8](notOwned)
	var scores [MaxSnakes]int32

	for i := 0; i < n.Snakes; i++ {
		owned.Set(n.Heads[i].X, n.Heads[i].Y, int8(i))
	}

	// Double-buffered synchronous rounds: claims made this round must not
	// feed further claims within the same round, or the fill would no
	// longer measure rounds-to-reach.
	for {
		next := owned
		changed := false

		for y := int32(0); y < BoardSize; y++ {
			for x := int32(0); x < BoardSize; x++ {
				if owned.Get(x, y) != notOwned {
					continue
				}
				if n.Occ.Get(x, y) > n.Turn {
					continue
				}

				claim := notOwned
				split := false
				neighbours := [4][2]int32{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
				for _, nb := range neighbours {
					o := owned.Get(nb[0], nb[1])
					if o < 0 {
						continue
					}
					if claim == notOwned {
						claim = o
					} else if claim != o {
						split = true
					}
				}

				switch {
				case claim == notOwned:
				case split && tb == TieBreakNeutral:
					next.Set(x, y, contested)
					changed = true
				default:
					next.Set(x, y, claim)
					scores[claim]++
					changed = true
				}
			}
		}

		owned = next
		if !changed {
			return scores
		}
	}
}
