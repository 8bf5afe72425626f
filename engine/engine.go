package engine

import (
	"math"

	"github.com/danielmussell/ubiquitous-funicular/game"
)

// Config tunes the decision engine. Board geometry is not configurable; see
// BoardSize.
type Config struct {
	// Depth is the number of search plies below each root move. The default
	// of 2 means one opponent reply and one reply of ours before the leaf
	// evaluation. Cost grows as (4*4^(snakes-1))^depth.
	Depth int
	// HealthBuffer is the health level at or below which a position counts
	// as starved. A small positive buffer biases the search away from risk
	// before health literally reaches zero. Zero means the default; an
	// exactly-zero buffer is not representable.
	HealthBuffer int32
	// TieBreak selects the territory fill's contested-cell policy.
	TieBreak TieBreak
}

func DefaultConfig() Config {
	return Config{
		Depth:        2,
		HealthBuffer: 2,
		TieBreak:     TieBreakNeutral,
	}
}

// Engine decides moves. It is stateless between calls and safe for
// concurrent use; every call rebuilds its root node from the snapshot.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultConfig().Depth
	}
	if cfg.HealthBuffer <= 0 {
		cfg.HealthBuffer = DefaultConfig().HealthBuffer
	}
	return &Engine{cfg: cfg}
}

// Decision is the outcome of one Decide call, with enough detail for
// logging and recording.
type Decision struct {
	Move      int
	Score     int32
	Scores    [4]int32          // score per move, indexed by game.Move*
	Territory [MaxSnakes]int32  // root territory estimate per snake
	Snakes    int
}

// Decide scores all four moves for the snapshot's ego snake and returns the
// best one. There is no legality pre-filter and no error for unwinnable
// positions: a move into a wall simply scores as an early loss, and the
// least-bad direction is still returned. The only error is a snapshot the
// engine cannot represent.
func (e *Engine) Decide(state *game.GameState) (Decision, error) {
	root, err := NewNode(state)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Move:      game.MoveUp,
		Score:     math.MinInt32,
		Territory: root.Territory(e.cfg.TieBreak),
		Snakes:    root.Snakes,
	}

	// Our move is applied up front, so the search opens at the opponents'
	// reply ply with a full window.
	for _, move := range game.AllMoves {
		score := e.alphabeta(root.ApplyMove(0, move), e.cfg.Depth, math.MinInt32, math.MaxInt32, false)
		d.Scores[move] = score
		if score > d.Score {
			d.Score = score
			d.Move = move
		}
	}

	return d, nil
}
