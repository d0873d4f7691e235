package equity

import (
	"github.com/domino14/connectfour/board"
)

// ThreatEvaluator is the default evaluator. Finished games get their
// terminal score; live positions are scored by CountWinningSpaces.
type ThreatEvaluator struct{}

func NewThreatEvaluator() *ThreatEvaluator {
	return &ThreatEvaluator{}
}

func (t *ThreatEvaluator) Evaluate(p *board.Position) int16 {
	if score, over := TerminalScore(p); over {
		return score
	}
	return CountWinningSpaces(p)
}

// Evaluate scores p with the default evaluator.
func Evaluate(p *board.Position) int16 {
	return (&ThreatEvaluator{}).Evaluate(p)
}

// CountWinningSpaces counts the empty cells, reachable now or not, that
// would give the side to move four in a row if it had a disc there.
func CountWinningSpaces(p *board.Position) int16 {
	own := p.Bitboard(p.CurrentTurn())
	empty := p.EmptyCells()
	var spaces int16
	for i := 0; i < board.NumBits; i++ {
		cell := uint64(1) << i
		if empty&cell == 0 {
			continue
		}
		if board.HasFour(own | cell) {
			spaces++
		}
	}
	return spaces
}
