package equity

import (
	"github.com/domino14/connectfour/board"
)

// TerminalOnlyEvaluator scores finished games like ThreatEvaluator but
// treats every live position as level. It is a blind baseline for
// self-play comparisons.
type TerminalOnlyEvaluator struct{}

func NewTerminalOnlyEvaluator() *TerminalOnlyEvaluator {
	return &TerminalOnlyEvaluator{}
}

func (t *TerminalOnlyEvaluator) Evaluate(p *board.Position) int16 {
	score, _ := TerminalScore(p)
	return score
}
