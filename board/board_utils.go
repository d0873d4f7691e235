package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrInvalidMove      = errors.New("invalid move")
)

// NewPositionFromMoves replays a 1-indexed move list on an empty board.
func NewPositionFromMoves(moves []int) (*Position, error) {
	p := NewPosition()
	if err := p.LoadMoves(moves); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadMoves resets the board and replays the given 1-indexed columns.
// On error the board is left at the last legal move before the failure.
func (p *Position) LoadMoves(moves []int) error {
	p.Reset()
	for idx, m := range moves {
		if m < 1 || m > NumColumns {
			return fmt.Errorf("move %d (%d): %w", idx+1, m, ErrColumnOutOfRange)
		}
		if !p.MakeMove(m - 1) {
			return fmt.Errorf("move %d (column %d): %w", idx+1, m, ErrInvalidMove)
		}
	}
	return nil
}

// ParseMoveString turns a string of 1-indexed column digits such as "4453"
// into a move list. Spaces and commas are ignored.
func ParseMoveString(s string) ([]int, error) {
	moves := make([]int, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == ',' {
			continue
		}
		m, err := strconv.Atoi(string(r))
		if err != nil {
			return nil, fmt.Errorf("bad column %q: %w", r, ErrColumnOutOfRange)
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// MoveString is the 1-indexed move history, e.g. "4453".
func (p *Position) MoveString() string {
	var sb strings.Builder
	for _, m := range p.moves {
		sb.WriteByte(byte('1' + m))
	}
	return sb.String()
}

// CellAt returns 0 for an empty cell, 1 for a disc of the first player and
// 2 for the second player. Row 0 is the bottom row.
func (p *Position) CellAt(col, row int) int {
	bit := uint64(1) << (col*ColumnStride + row)
	switch {
	case p.bitboard[0]&bit != 0:
		return 1
	case p.bitboard[1]&bit != 0:
		return 2
	}
	return 0
}

// ToArray lists all 42 cells column by column, bottom to top.
func (p *Position) ToArray() []int {
	arr := make([]int, 0, NumCells)
	for c := 0; c < NumColumns; c++ {
		for r := 0; r < NumRows; r++ {
			arr = append(arr, p.CellAt(c, r))
		}
	}
	return arr
}

func (p *Position) String() string {
	var sb strings.Builder
	for _, v := range p.ToArray() {
		sb.WriteByte(byte('0' + v))
	}
	return sb.String()
}

// ToDisplayText renders the board top row first, X for the first player
// and O for the second.
func (p *Position) ToDisplayText() string {
	var str strings.Builder
	str.WriteString("\n  ")
	for c := 0; c < NumColumns; c++ {
		str.WriteString(fmt.Sprintf("%d ", c+1))
	}
	str.WriteString("\n  " + strings.Repeat("-", NumColumns*2) + "\n")
	for r := NumRows - 1; r >= 0; r-- {
		str.WriteString(" |")
		for c := 0; c < NumColumns; c++ {
			switch p.CellAt(c, r) {
			case 1:
				str.WriteString("X ")
			case 2:
				str.WriteString("O ")
			default:
				str.WriteString(". ")
			}
		}
		str.WriteString("|\n")
	}
	str.WriteString("  " + strings.Repeat("-", NumColumns*2) + "\n")
	switch {
	case p.Winner() >= 0:
		str.WriteString(fmt.Sprintf("Player %d (%s) wins\n", p.Winner()+1, playerSymbol(p.Winner())))
	case p.IsDraw():
		str.WriteString("Draw\n")
	default:
		str.WriteString(fmt.Sprintf("Player %d (%s) to move; moves: %s\n",
			p.CurrentTurn()+1, playerSymbol(p.CurrentTurn()), p.MoveString()))
	}
	return str.String()
}

func playerSymbol(player int) string {
	if player == 0 {
		return "X"
	}
	return "O"
}
