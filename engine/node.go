package engine

import (
	"fmt"
	"math"

	"github.com/danielmussell/ubiquitous-funicular/game"
)

// MaxSnakes is the largest number of snakes a node can represent. Standard
// games run four; the minimizing ply enumerates 4^(snakes-1) joint moves, so
// this is also a practical search-width bound.
const MaxSnakes = 4

// wallStamp marks a cell that never vacates.
const wallStamp = math.MaxInt32

// lossScore is the terminal-loss base value. The node's turn is added on
// top, so a loss reached later always compares greater than a loss reached
// sooner.
const lossScore = -1_000_000_000

// Node is one search position. Cell occupancy is encoded as a vacate-at
// stamp: the turn at which the cell becomes free again. A cell is occupied
// iff its stamp is strictly greater than the node's turn. Index 0 of Heads
// and Lengths is always our snake.
//
// Node contains no pointers. Copying one is a flat memcpy, which is what the
// search relies on to explore siblings independently.
type Node struct {
	Turn    int32
	Occ     Board[int32]
	Heads   [MaxSnakes]game.Point
	Lengths [MaxSnakes]int32
	Snakes  int
	Health  int32
}

// NewNode builds the root search node from a snapshot. Our snake is moved to
// index 0 regardless of its position in the snapshot.
//
// Each body segment at offset i from the head is stamped turn+len-i, so the
// tail vacates soonest. The head cell is then re-stamped back to turn: the
// head leaves its cell this ply, and collision tests only ever look at the
// position a head moves to, never the one it left.
func NewNode(state *game.GameState) (Node, error) {
	if err := state.Validate(); err != nil {
		return Node{}, err
	}
	if state.Width != BoardSize || state.Height != BoardSize {
		return Node{}, fmt.Errorf("board is %dx%d, engine is compiled for %dx%d",
			state.Width, state.Height, BoardSize, BoardSize)
	}
	if len(state.Snakes) == 0 {
		return Node{}, fmt.Errorf("no snakes in snapshot")
	}
	if len(state.Snakes) > MaxSnakes {
		return Node{}, fmt.Errorf("%d snakes exceeds the %d snake limit", len(state.Snakes), MaxSnakes)
	}
	you := state.You()
	if you == nil {
		return Node{}, fmt.Errorf("ego snake %q not on the board", state.YouId)
	}

	n := Node{
		Turn:   state.Turn,
		Occ:    NewBoard[int32](0),
		Health: you.Health,
	}

	// Ego first, then the rest in snapshot order.
	order := make([]*game.Snake, 0, len(state.Snakes))
	order = append(order, you)
	for i := range state.Snakes {
		if state.Snakes[i].Id != state.YouId {
			order = append(order, &state.Snakes[i])
		}
	}

	for idx, s := range order {
		bodyLen := int32(len(s.Body))
		for i, p := range s.Body {
			n.Occ.Set(p.X, p.Y, state.Turn+bodyLen-int32(i))
		}
		n.Heads[idx] = s.Head()
		n.Lengths[idx] = bodyLen
		n.Occ.Set(s.Head().X, s.Head().Y, state.Turn)
	}
	n.Snakes = len(order)

	for i := int32(-1); i <= BoardSize; i++ {
		n.Occ.Set(i, -1, wallStamp)
		n.Occ.Set(i, BoardSize, wallStamp)
		n.Occ.Set(-1, i, wallStamp)
		n.Occ.Set(BoardSize, i, wallStamp)
	}

	return n, nil
}

// collidesWall reports whether the snake's head sits on or beyond the
// boundary ring of the interior. The test is boundary-inclusive, so a legal
// single step can never reach the halo itself.
func (n *Node) collidesWall(idx int) bool {
	h := n.Heads[idx]
	return h.X <= 0 || h.X >= BoardSize-1 || h.Y <= 0 || h.Y >= BoardSize-1
}

// collidesBody reports whether the snake's head is inside a wall or inside a
// body segment (of any snake, itself included) that is still occupied at the
// node's turn.
func (n *Node) collidesBody(idx int) bool {
	if n.collidesWall(idx) {
		return true
	}
	h := n.Heads[idx]
	return n.Occ.Get(h.X, h.Y) > n.Turn
}

// ApplyMove moves one snake's head and stamps the cell it leaves with its
// vacate-at time. A snake whose head already collides with the wall is
// beyond saving; its moves are no-ops rather than errors.
//
// Moving into a wall or a body is not rejected here. Bad moves are scored as
// losses by Evaluate, which keeps every move legal to apply and lets the
// driver always return one of the four directions.
//
// Turn and health do not advance here; ApplyJointMove owns those.
func (n Node) ApplyMove(idx, move int) Node {
	if n.collidesWall(idx) {
		return n
	}
	old := n.Heads[idx]
	n.Occ.Set(old.X, old.Y, n.Lengths[idx]+n.Turn)
	n.Heads[idx] = game.Step(old, move)
	return n
}

// ApplyJointMove applies one move per opponent (moves[i] is the move of
// snake i+1), then advances the turn and spends one health. The root snake's
// move is applied separately by the maximizing ply before recursing.
func (n Node) ApplyJointMove(moves []int) Node {
	out := n
	for i := 1; i < n.Snakes; i++ {
		out = out.ApplyMove(i, moves[i-1])
	}
	out.Turn++
	out.Health--
	return out
}

// terminalLoss reports whether our snake has lost in this node: collision,
// or health at or below the starvation buffer. The buffer is a small
// positive margin so the search treats near-starvation as already fatal.
func (n *Node) terminalLoss(healthBuffer int32) bool {
	return n.collidesWall(0) || n.collidesBody(0) || n.Health <= healthBuffer
}

// Evaluate scores the node for our snake. Losses score lossScore+turn so
// that surviving longer before an unavoidable loss still ranks higher.
// Otherwise the score is twice our territory minus everyone's total: our
// share of the board minus the sum of all rivals' shares.
func (n *Node) Evaluate(cfg Config) int32 {
	if n.terminalLoss(cfg.HealthBuffer) {
		return lossScore + n.Turn
	}
	terr := n.Territory(cfg.TieBreak)
	score := 2 * terr[0]
	for i := 0; i < n.Snakes; i++ {
		score -= terr[i]
	}
	return score
}
