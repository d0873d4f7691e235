package equity

import (
	"github.com/domino14/connectfour/board"
)

// Evaluator scores a position from the point of view of the side to move.
// A higher value is better for the side to move.
type Evaluator interface {
	Evaluate(p *board.Position) int16
}
