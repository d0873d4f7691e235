package equity

import (
	"github.com/domino14/connectfour/board"
)

const (
	// WinBase and WinScale shape the terminal score (WinBase - discs) * WinScale.
	// A win scores at least 10, which is above the threat counts live
	// positions reach in play. No bound holds for every conceivable board.
	WinBase  = 22
	WinScale = 10
)

// TerminalScore returns the score of a finished game and true, or false if
// the game is still going. A win with fewer discs is worth more; a loss
// after the opponent needed more discs is worth less negative.
func TerminalScore(p *board.Position) (int16, bool) {
	player := p.CurrentTurn()
	opponent := player ^ 1
	if p.IsWin(player) {
		return int16((WinBase - p.PiecesFor(player)) * WinScale), true
	}
	if p.IsWin(opponent) {
		return int16((p.PiecesFor(opponent) - WinBase) * WinScale), true
	}
	if p.IsDraw() {
		return 0, true
	}
	return 0, false
}
