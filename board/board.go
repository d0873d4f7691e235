package board

import (
	"iter"
	"math/bits"
)

// Bitboard layout, one bit per cell. Each column owns 7 bits; the 7th bit
// of every column is a sentinel that is set only in TopMask, never by a disc.
//
//	6 13 20 27 34 41 48
//	5 12 19 26 33 40 47
//	4 11 18 25 32 39 46
//	3 10 17 24 31 38 45
//	2  9 16 23 30 37 44
//	1  8 15 22 29 36 43
//	0  7 14 21 28 35 42
const (
	NumColumns   = 7
	NumRows      = 6
	ColumnStride = NumRows + 1
	NumCells     = NumColumns * NumRows
	NumBits      = NumColumns * ColumnStride

	// NoMove is returned as the move of leaf and terminal nodes.
	NoMove = -1
)

// TopMask has the sentinel bit of every column set.
const TopMask uint64 = 0b1000000100000010000001000000100000010000001000000

// MoveOrder lists columns center-out. Center columns take part in more
// lines, so trying them first gives better cutoffs.
var MoveOrder = [NumColumns]int{3, 2, 4, 1, 5, 0, 6}

// shifts along which four-in-a-row is tested: vertical, one diagonal,
// horizontal, the other diagonal.
var winShifts = [4]uint{1, ColumnStride - 1, ColumnStride, ColumnStride + 1}

// Position is a Connect Four position. It is mutated in place with MakeMove
// and Undo, and is not safe for concurrent use.
type Position struct {
	bitboard [2]uint64
	heights  [NumColumns]uint8
	moves    []int
}

// NewPosition returns an empty board.
func NewPosition() *Position {
	p := &Position{moves: make([]int, 0, NumCells)}
	p.Reset()
	return p
}

// Reset empties the board.
func (p *Position) Reset() {
	p.bitboard = [2]uint64{}
	for c := range p.heights {
		p.heights[c] = uint8(c * ColumnStride)
	}
	p.moves = p.moves[:0]
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	c := &Position{
		bitboard: p.bitboard,
		heights:  p.heights,
		moves:    make([]int, len(p.moves), NumCells),
	}
	copy(c.moves, p.moves)
	return c
}

// CurrentTurn is 0 if the first player is to move, 1 otherwise.
func (p *Position) CurrentTurn() int {
	return len(p.moves) & 1
}

func (p *Position) NumMoves() int {
	return len(p.moves)
}

// Bitboard returns the discs of the given player.
func (p *Position) Bitboard(player int) uint64 {
	return p.bitboard[player]
}

// Heights returns the next free bit index of every column.
func (p *Position) Heights() [NumColumns]uint8 {
	return p.heights
}

// MoveHistory returns a copy of the 0-indexed columns played so far.
func (p *Position) MoveHistory() []int {
	h := make([]int, len(p.moves))
	copy(h, p.moves)
	return h
}

// PiecesFor counts the discs the player has on the board.
func (p *Position) PiecesFor(player int) int {
	return bits.OnesCount64(p.bitboard[player])
}

// EmptyCells returns a mask of every empty playable cell, whether or not
// it can be reached by the next move.
func (p *Position) EmptyCells() uint64 {
	full := uint64(1)<<NumBits - 1
	return ^(p.bitboard[0] | p.bitboard[1] | TopMask) & full
}

func (p *Position) IsValidMove(col int) bool {
	if col < 0 || col >= NumColumns {
		return false
	}
	return TopMask&(uint64(1)<<p.heights[col]) == 0
}

// GenerateMoves yields the playable columns in MoveOrder. The sequence
// reads the position lazily, so it can be ranged over again after the
// position changes.
func (p *Position) GenerateMoves() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, col := range MoveOrder {
			if !p.IsValidMove(col) {
				continue
			}
			if !yield(col) {
				return
			}
		}
	}
}

// Moves collects GenerateMoves into a slice.
func (p *Position) Moves() []int {
	moves := make([]int, 0, NumColumns)
	for col := range p.GenerateMoves() {
		moves = append(moves, col)
	}
	return moves
}

// MakeMove drops a disc for the side to move. It returns false and leaves
// the position untouched if the column is full or the game is over.
func (p *Position) MakeMove(col int) bool {
	if !p.IsValidMove(col) || p.IsGameOver() {
		return false
	}
	p.bitboard[p.CurrentTurn()] ^= uint64(1) << p.heights[col]
	p.heights[col]++
	p.moves = append(p.moves, col)
	return true
}

// Undo takes back the last move. It returns false if there is nothing to
// take back.
func (p *Position) Undo() bool {
	if len(p.moves) == 0 {
		return false
	}
	col := p.moves[len(p.moves)-1]
	p.moves = p.moves[:len(p.moves)-1]
	p.heights[col]--
	// after popping, CurrentTurn is the player who made the undone move.
	p.bitboard[p.CurrentTurn()] ^= uint64(1) << p.heights[col]
	return true
}

// IsWin reports whether player has four in a row.
func (p *Position) IsWin(player int) bool {
	return HasFour(p.bitboard[player])
}

// HasFour reports whether the bitboard b contains four in a row.
func HasFour(b uint64) bool {
	for _, s := range winShifts {
		if b&(b>>s)&(b>>(2*s))&(b>>(3*s)) != 0 {
			return true
		}
	}
	return false
}

// IsWinningMove reports whether playing col wins for the side to move.
func (p *Position) IsWinningMove(col int) bool {
	if !p.MakeMove(col) {
		return false
	}
	win := p.IsWin(p.CurrentTurn() ^ 1)
	p.Undo()
	return win
}

// IsDraw is true once all 42 cells are filled without a winner.
func (p *Position) IsDraw() bool {
	return len(p.moves) == NumCells && !p.IsWin(0) && !p.IsWin(1)
}

func (p *Position) IsGameOver() bool {
	return p.IsWin(0) || p.IsWin(1) || len(p.moves) == NumCells
}

// Winner returns the winning player, or -1 if nobody has won.
func (p *Position) Winner() int {
	switch {
	case p.IsWin(0):
		return 0
	case p.IsWin(1):
		return 1
	}
	return -1
}

// Key is the transposition key of the position: the discs of the side to
// move plus the occupancy mask. A column holding h discs contributes a value
// in [2^h-1, 2^(h+1)-2] to the sum and never carries into its neighbour, so
// the key is unique per position.
func (p *Position) Key() uint64 {
	return p.bitboard[p.CurrentTurn()] + (p.bitboard[0] | p.bitboard[1])
}
