package game

// Move indices shared by the engine, the rules simulator and the API layer.
const (
	MoveUp    = 0
	MoveDown  = 1
	MoveLeft  = 2
	MoveRight = 3
)

// AllMoves lists the four moves in evaluation order.
var AllMoves = [4]int{MoveUp, MoveDown, MoveLeft, MoveRight}

var moveNames = [4]string{"up", "down", "left", "right"}

// MoveName returns the Battlesnake API string for a move index.
// Unknown indices map to "up" so callers always produce a valid response.
func MoveName(move int) string {
	if move < 0 || move >= len(moveNames) {
		return "up"
	}
	return moveNames[move]
}

// ParseMove is the inverse of MoveName. It returns -1 for unknown strings.
func ParseMove(name string) int {
	for i, n := range moveNames {
		if n == name {
			return i
		}
	}
	return -1
}

// OppositeMove returns the reversing move.
func OppositeMove(move int) int {
	switch move {
	case MoveUp:
		return MoveDown
	case MoveDown:
		return MoveUp
	case MoveLeft:
		return MoveRight
	case MoveRight:
		return MoveLeft
	}
	return move
}

// Step returns p offset one cell in the given move direction.
func Step(p Point, move int) Point {
	switch move {
	case MoveUp:
		p.Y++
	case MoveDown:
		p.Y--
	case MoveLeft:
		p.X--
	case MoveRight:
		p.X++
	}
	return p
}
