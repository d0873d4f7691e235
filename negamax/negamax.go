package negamax

import (
	"context"
	"fmt"
	"strings"

	"github.com/domino14/connectfour/board"
)

// negamax searches the solver's position to depth plies and returns the best
// move and its value from the point of view of the side to move. Leaves and
// finished games return board.NoMove.
//
// The position is always restored before returning. A search that is
// cancelled part way returns ErrSearchAborted and stores nothing for the
// nodes it did not finish.
func (s *Solver) negamax(ctx context.Context, depth int, α, β int16) (int, int16, error) {
	p := s.position
	alphaOrig := α
	key := p.Key()

	if s.transpositionTableOptim {
		if entry, ok := s.ttable.Lookup(key); ok && entry.Depth() >= depth {
			score := entry.Score()
			switch entry.Flag() {
			case TTExact:
				return entry.Move(), score, nil
			case TTLower:
				α = max(α, score)
			case TTUpper:
				β = min(β, score)
			}
			if α >= β {
				return entry.Move(), score, nil
			}
		}
	}

	if depth == 0 || p.IsGameOver() {
		return board.NoMove, s.evaluator.Evaluate(p), nil
	}

	indent := strings.Repeat(" ", 2*(s.currentIDDepth-depth))
	if s.logStream != nil {
		fmt.Fprintf(s.logStream, "  %vplays:\n", indent)
	}

	bestValue := -HugeNumber
	bestMove := board.NoMove
	for col := range p.GenerateMoves() {
		if err := ctx.Err(); err != nil {
			return board.NoMove, 0, fmt.Errorf("%w: %w", ErrSearchAborted, err)
		}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  %v- play: %d\n", indent, col+1)
		}
		p.MakeMove(col)
		s.nodes.Add(1)
		_, value, err := s.negamax(ctx, depth-1, -β, -α)
		p.Undo()
		if err != nil {
			return board.NoMove, 0, err
		}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  %v  value: %v\n", indent, -value)
		}
		if -value > bestValue {
			bestValue = -value
			bestMove = col
		}
		α = max(α, bestValue)
		if α >= β {
			break // beta cut-off
		}
	}

	if s.transpositionTableOptim {
		var flag uint8
		if bestValue <= alphaOrig {
			flag = TTUpper
		} else if bestValue >= β {
			flag = TTLower
		} else {
			flag = TTExact
		}
		s.ttable.Store(key, NewTableEntry(bestValue, bestMove, depth, flag))
	}
	return bestMove, bestValue, nil
}
