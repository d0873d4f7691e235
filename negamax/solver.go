package negamax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/equity"
)

// HugeNumber bounds every evaluation from both sides.
const HugeNumber = int16(32767)

var (
	ErrSearchAborted = errors.New("search aborted")
	ErrGameOver      = errors.New("game is already over")
)

// Result is what a search settles on.
type Result struct {
	Move    int
	Score   int16
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
}

func (r Result) String() string {
	if r.Move == board.NoMove {
		return "no move"
	}
	return fmt.Sprintf("column %d (score %d, depth %d, %d nodes in %v)",
		r.Move+1, r.Score, r.Depth, r.Nodes, r.Elapsed.Round(time.Millisecond))
}

// Solver searches a position with negamax, alpha-beta pruning and a
// transposition table. A Solver runs one search at a time; use one Solver
// per goroutine.
type Solver struct {
	position  *board.Position
	evaluator equity.Evaluator
	ttable    *TranspositionTable

	transpositionTableOptim bool
	iterativeDeepeningOptim bool

	currentIDDepth int
	nodes          atomic.Uint64
	logStream      io.Writer
}

// NewSolver returns a solver that uses the threat evaluator and the given
// table. A nil table gets one of DefaultCapacity slots.
func NewSolver(tt *TranspositionTable) *Solver {
	if tt == nil {
		tt = NewTranspositionTable(DefaultCapacity)
	}
	return &Solver{
		evaluator:               equity.NewThreatEvaluator(),
		ttable:                  tt,
		transpositionTableOptim: true,
		iterativeDeepeningOptim: true,
	}
}

func (s *Solver) SetEvaluator(e equity.Evaluator) {
	s.evaluator = e
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

// SetIterativeDeepening turns off the deepening loop when false; Solve then
// searches straight to the end of the game. Without deepening there is no
// earlier result to fall back on, so if the time limit runs out first Solve
// returns no move and an error wrapping ErrSearchAborted.
func (s *Solver) SetIterativeDeepening(id bool) {
	s.iterativeDeepeningOptim = id
}

func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

// SetLogStream makes the search write every node it expands to w, as YAML.
// It is very verbose; use it with shallow depths only.
func (s *Solver) SetLogStream(w io.Writer) {
	s.logStream = w
}

// Reset forgets everything learned in earlier searches. Call it between
// games.
func (s *Solver) Reset() {
	s.ttable.Reset()
}

func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Search runs a single fixed-depth search of p. The position is used in
// place and is restored before Search returns.
func (s *Solver) Search(ctx context.Context, p *board.Position, depth int) (Result, error) {
	if p.IsGameOver() {
		return Result{Move: board.NoMove}, ErrGameOver
	}
	s.position = p
	s.nodes.Store(0)
	s.currentIDDepth = depth
	tstart := time.Now()
	if s.logStream != nil {
		fmt.Fprintf(s.logStream, "- depth: %d\n", depth)
	}
	move, value, err := s.negamax(ctx, depth, -HugeNumber, HugeNumber)
	res := Result{Nodes: s.nodes.Load(), Elapsed: time.Since(tstart), Move: board.NoMove}
	if err != nil {
		return res, err
	}
	res.Move, res.Score, res.Depth = move, value, depth
	return res, nil
}

// iterativelyDeepen searches at depths 2, 4, 6, ... up to maxDepth and keeps
// the result of the last completed iteration. With deepening on, the first
// iteration ignores ctx's deadline so that there is always a move to return.
func (s *Solver) iterativelyDeepen(ctx context.Context, maxDepth int) (Result, error) {
	best := Result{Move: board.NoMove}
	start := min(2, maxDepth)
	if !s.iterativeDeepeningOptim {
		start = maxDepth
	}
	for depth := start; ; depth += 2 {
		depth = min(depth, maxDepth)
		iterCtx := ctx
		if best.Move == board.NoMove && s.iterativeDeepeningOptim {
			iterCtx = context.WithoutCancel(ctx)
		}
		s.currentIDDepth = depth
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "- depth: %d\n", depth)
		}
		log.Debug().Int("depth", depth).Msg("deepening-iteratively")

		move, value, err := s.negamax(iterCtx, depth, -HugeNumber, HugeNumber)
		if err != nil {
			if errors.Is(err, ErrSearchAborted) && best.Move != board.NoMove {
				log.Debug().Int("depth", depth).Msg("iteration-aborted")
				return best, nil
			}
			return best, err
		}
		best.Move, best.Score, best.Depth = move, value, depth
		log.Debug().Int16("score", value).Int("depth", depth).Int("move", move+1).Msg("best-val")

		if depth >= maxDepth || ctx.Err() != nil {
			return best, nil
		}
	}
}

// Solve finds a move for p within timeLimit. A timeLimit of zero or less
// means no limit: the search then goes all the way to the end of the game,
// which can take very long in the opening. The position is used in place
// and restored before Solve returns.
func (s *Solver) Solve(ctx context.Context, p *board.Position, timeLimit time.Duration) (Result, error) {
	if p.IsGameOver() {
		return Result{Move: board.NoMove}, ErrGameOver
	}
	s.position = p
	s.nodes.Store(0)
	maxDepth := board.NumCells - p.NumMoves()
	log.Debug().Int("max-depth", maxDepth).Dur("time-limit", timeLimit).Msg("solve-config")

	tstart := time.Now()
	searchCtx := ctx
	if timeLimit > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	var best Result
	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		var err error
		best, err = s.iterativelyDeepen(searchCtx, maxDepth)
		return err
	})

	err := g.Wait()
	best.Nodes = s.nodes.Load()
	best.Elapsed = time.Since(tstart)
	stats := s.ttable.Stats()
	log.Debug().
		Uint64("ttable-created", stats.Created).
		Uint64("ttable-lookups", stats.Lookups).
		Uint64("ttable-hits", stats.Hits).
		Uint64("ttable-t2collisions", stats.T2Collisions).
		Int("depth", best.Depth).
		Float64("time-elapsed-sec", best.Elapsed.Seconds()).
		Msg("solve-returning")

	return best, err
}

// BestMove is Solve for callers that only want the column.
func (s *Solver) BestMove(ctx context.Context, p *board.Position, timeLimit time.Duration) (int, error) {
	res, err := s.Solve(ctx, p, timeLimit)
	if err != nil {
		return board.NoMove, err
	}
	return res.Move, nil
}
