package automatic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/equity"
	"github.com/domino14/connectfour/negamax"
)

// DefaultTTCapacity is the table size of each engine in self-play. Many
// games run at once, so it is much smaller than the interactive default.
const DefaultTTCapacity = 1<<20 + 7

// EngineSettings describes how one side searches.
type EngineSettings struct {
	Name      string
	TimeLimit time.Duration
	// Depth, if positive, replaces the timed search with a fixed-depth one.
	Depth int
	// TerminalOnly swaps the threat heuristic for one that only scores
	// finished games.
	TerminalOnly bool
}

func (e EngineSettings) String() string {
	if e.Depth > 0 {
		return fmt.Sprintf("%s(depth %d)", e.Name, e.Depth)
	}
	return fmt.Sprintf("%s(%v)", e.Name, e.TimeLimit)
}

type MoveRecord struct {
	Engine int
	Column int
	Score  int16
	Depth  int
	Nodes  uint64
	Book   bool
}

// GameRecord is one finished self-play game. Engines are numbered by their
// position in the runner's settings, not by who moved first.
type GameRecord struct {
	ID          int
	FirstEngine int
	// WinnerEngine is -1 for a draw.
	WinnerEngine int
	Moves        []int
	OpeningPlies int
	Records      []MoveRecord
}

// MoveString is the 1-indexed move list, e.g. "4453".
func (g GameRecord) MoveString() string {
	var sb strings.Builder
	for _, m := range g.Moves {
		sb.WriteByte(byte('1' + m))
	}
	return sb.String()
}

// Fingerprint identifies the game by its move sequence.
func (g GameRecord) Fingerprint() uint64 {
	return xxhash.Sum64String(g.MoveString())
}

type engine struct {
	settings EngineSettings
	solver   *negamax.Solver
}

func newEngine(s EngineSettings, ttCapacity uint64) *engine {
	solver := negamax.NewSolver(negamax.NewTranspositionTable(ttCapacity))
	if s.TerminalOnly {
		solver.SetEvaluator(equity.NewTerminalOnlyEvaluator())
	}
	return &engine{settings: s, solver: solver}
}

func (e *engine) move(ctx context.Context, pos *board.Position) (negamax.Result, error) {
	if e.settings.Depth > 0 {
		return e.solver.Search(ctx, pos, min(e.settings.Depth, board.NumCells-pos.NumMoves()))
	}
	return e.solver.Solve(ctx, pos, e.settings.TimeLimit)
}

// playGame plays one game from the given opening. firstEngine moves first.
func (r *Runner) playGame(ctx context.Context, id, firstEngine int, opening []int) (GameRecord, error) {
	engines := [2]*engine{
		newEngine(r.engines[0], r.ttCapacity),
		newEngine(r.engines[1], r.ttCapacity),
	}
	pos := board.NewPosition()
	rec := GameRecord{ID: id, FirstEngine: firstEngine, WinnerEngine: -1, OpeningPlies: len(opening)}

	for _, col := range opening {
		eidx := firstEngine ^ pos.CurrentTurn()
		pos.MakeMove(col)
		rec.Records = append(rec.Records, MoveRecord{Engine: eidx, Column: col, Book: true})
	}

	for !pos.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return rec, err
		}
		eidx := firstEngine ^ pos.CurrentTurn()
		res, err := engines[eidx].move(ctx, pos)
		if err != nil {
			return rec, err
		}
		if !pos.MakeMove(res.Move) {
			return rec, fmt.Errorf("game %d: engine %v chose illegal column %d", id, engines[eidx].settings, res.Move)
		}
		mr := MoveRecord{Engine: eidx, Column: res.Move, Score: res.Score, Depth: res.Depth, Nodes: res.Nodes}
		rec.Records = append(rec.Records, mr)
		if r.logchan != nil {
			r.logchan <- fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v\n",
				id, pos.NumMoves(), engines[eidx].settings.Name, res.Move+1, res.Score, res.Depth, res.Nodes)
		}
	}
	rec.Moves = pos.MoveHistory()
	if w := pos.Winner(); w >= 0 {
		rec.WinnerEngine = firstEngine ^ w
	}
	log.Debug().Int("game", id).Str("moves", rec.MoveString()).
		Int("winner-engine", rec.WinnerEngine).Msg("game-over")
	return rec, nil
}
