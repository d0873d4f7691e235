package equity_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/equity"
)

func position(t *testing.T, moves ...int) *board.Position {
	p, err := board.NewPositionFromMoves(moves)
	require.NoError(t, err)
	return p
}

func TestCountWinningSpaces(t *testing.T) {
	type testcase struct {
		name   string
		moves  []int
		spaces int16
	}
	for _, tc := range []testcase{
		{"empty", nil, 0},
		{"vertical three", []int{1, 2, 1, 2, 1, 2}, 1},
		{"open three", []int{4, 4, 5, 5, 6, 6}, 2},
		// the winning cell on the second row is not reachable yet, but counts.
		{"floating three", []int{7, 1, 1, 2, 2, 3, 3, 7}, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := position(t, tc.moves...)
			key := p.Key()
			b0, b1 := p.Bitboard(0), p.Bitboard(1)

			assert.Equal(t, tc.spaces, equity.CountWinningSpaces(p))
			assert.Equal(t, tc.spaces, equity.Evaluate(p))
			// probing must leave the position as it was.
			assert.Equal(t, key, p.Key())
			assert.Equal(t, b0, p.Bitboard(0))
			assert.Equal(t, b1, p.Bitboard(1))
		})
	}
}

func TestTerminalScores(t *testing.T) {
	p := position(t, 1, 2, 1, 2, 1, 2)
	require.True(t, p.MakeMove(0))

	// second player to move, first player won with 4 discs.
	score, over := equity.TerminalScore(p)
	assert.True(t, over)
	assert.Equal(t, int16((4-22)*10), score)
	assert.Equal(t, score, equity.Evaluate(p))
	assert.Less(t, score, int16(0))

	// a slower win is worth less to the winner.
	slow := position(t, 1, 2, 3, 2, 1, 2, 1, 3, 4, 4)
	require.False(t, slow.IsGameOver())
	require.True(t, slow.MakeMove(0))
	require.True(t, slow.IsWin(0))
	slowScore := equity.Evaluate(slow)
	assert.Equal(t, int16((6-22)*10), slowScore)
	// from the winner's side the scores are (22 - n) * 10 and ordered.
	assert.Greater(t, -score, -slowScore)
	assert.Equal(t, int16((22-4)*10), -score)
}

func TestDrawScoresZero(t *testing.T) {
	p := position(t, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 5, 5,
		5, 5, 5, 5, 6, 6, 6, 6, 6, 6, 7, 7, 7, 7, 7, 7, 4)
	require.True(t, p.MakeMove(2))
	require.True(t, p.IsDraw())

	score, over := equity.TerminalScore(p)
	assert.True(t, over)
	assert.Equal(t, int16(0), score)
	assert.Equal(t, int16(0), equity.Evaluate(p))
}

// maxReachableThreats is the most winning spaces a live position has shown
// in random play.
const maxReachableThreats = 9

func TestScoreOrdering(t *testing.T) {
	// a win on the last disc a player has is the least valuable win.
	worstWin := int16((equity.WinBase - board.NumCells/2) * equity.WinScale)
	require.Greater(t, worstWin, int16(maxReachableThreats))

	r := rand.New(rand.NewPCG(7, 11))
	for game := 0; game < 2000; game++ {
		p := board.NewPosition()
		for !p.IsGameOver() {
			spaces := equity.CountWinningSpaces(p)
			require.LessOrEqual(t, spaces, int16(maxReachableThreats), p.MoveString())
			require.Less(t, spaces, worstWin)
			moves := p.Moves()
			require.True(t, p.MakeMove(moves[r.IntN(len(moves))]))
		}
		score, over := equity.TerminalScore(p)
		require.True(t, over)
		if !p.IsDraw() {
			// the side to move has just lost.
			assert.LessOrEqual(t, score, -worstWin)
		}
	}
}

func TestTerminalOnlyEvaluator(t *testing.T) {
	ev := equity.NewTerminalOnlyEvaluator()
	p := position(t, 4, 4, 5, 5, 6, 6)
	assert.Equal(t, int16(0), ev.Evaluate(p))
	require.True(t, p.MakeMove(2))
	assert.Equal(t, int16((4-22)*10), ev.Evaluate(p))

	var _ equity.Evaluator = equity.NewThreatEvaluator()
}
