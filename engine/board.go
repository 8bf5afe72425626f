// Package engine implements the per-turn move decision for a Battlesnake:
// a dense board representation, move application, a flood-fill territory
// estimator and a depth-bounded alpha-beta search over joint opponent moves.
//
// The engine is deliberately allocation-free on its hot path. Search nodes
// are fixed-size values copied at every ply, so sibling branches of the
// search tree never alias each other and no undo logic is needed.
package engine

// BoardSize is the board side length. The board geometry is compiled in;
// the API layer rejects snapshots of any other size.
const BoardSize = 11

const (
	boardSide  = BoardSize + 2
	boardCells = boardSide * boardSide
)

// Board is a dense square array of side BoardSize+2. Cell (x,y) is stored at
// offset (y+1)*side+(x+1), so the ring at x,y = -1 and x,y = BoardSize is
// addressable and can hold a wall sentinel. That makes neighbour access
// branch-free even at the board edge.
type Board[T any] struct {
	cells [boardCells]T
}

// NewBoard returns a board with every cell, halo included, set to def.
// The halo is not self-initializing; NewNode stamps the wall sentinel.
func NewBoard[T any](def T) Board[T] {
	var b Board[T]
	for i := range b.cells {
		b.cells[i] = def
	}
	return b
}

// Get reads the cell at (x,y). x and y may be -1 or BoardSize to address the
// halo; anything further out is out of range by construction.
func (b *Board[T]) Get(x, y int32) T {
	return b.cells[(y+1)*boardSide+(x+1)]
}

// Set writes the cell at (x,y).
func (b *Board[T]) Set(x, y int32, v T) {
	b.cells[(y+1)*boardSide+(x+1)] = v
}
