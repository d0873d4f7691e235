package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/negamax"
)

const (
	MethodBook    = "opening book"
	MethodMinimax = "minimax"
	MethodReset   = "reset"
)

// Request asks for a move in the position reached by Moves, a string of
// 1-indexed columns. Time is the search budget in milliseconds; zero means
// the player's default.
type Request struct {
	Moves string `json:"moves"`
	Time  int    `json:"time"`
}

// Response carries a 0-indexed column and how it was found.
type Response struct {
	Move   int    `json:"move"`
	Method string `json:"method"`
	Score  int16  `json:"score"`
	Depth  int    `json:"depth"`
	Error  string `json:"error,omitempty"`
}

// Player answers move requests from the opening book or by searching.
// It is safe for concurrent use; requests are served one at a time.
type Player struct {
	sync.Mutex
	solver      *negamax.Solver
	book        *book.Book
	defaultTime time.Duration
}

// NewPlayer builds a player from the config. bk may be nil to always search.
func NewPlayer(cfg *config.Config, bk *book.Book) *Player {
	capacity := negamax.SizeFor(cfg.GetUint64(config.ConfigTTCapacity),
		cfg.GetFloat64(config.ConfigTTMemoryFraction))
	return &Player{
		solver:      negamax.NewSolver(negamax.NewTranspositionTable(capacity)),
		book:        bk,
		defaultTime: time.Duration(cfg.GetInt(config.ConfigTimeLimitMs)) * time.Millisecond,
	}
}

// NewPlayerWithSolver is NewPlayer for callers that already have a solver.
func NewPlayerWithSolver(s *negamax.Solver, bk *book.Book, defaultTime time.Duration) *Player {
	return &Player{solver: s, book: bk, defaultTime: defaultTime}
}

// Reset forgets what earlier searches learned. Call it when a new game starts.
func (p *Player) Reset() {
	p.Lock()
	defer p.Unlock()
	p.solver.Reset()
	log.Debug().Msg("player-reset")
}

// Move picks a move for the side to move after req.Moves.
func (p *Player) Move(ctx context.Context, req Request) (Response, error) {
	history, err := board.ParseMoveString(req.Moves)
	if err != nil {
		return Response{Move: board.NoMove}, err
	}
	pos, err := board.NewPositionFromMoves(history)
	if err != nil {
		return Response{Move: board.NoMove}, err
	}
	if pos.IsGameOver() {
		return Response{Move: board.NoMove}, negamax.ErrGameOver
	}

	if p.book != nil && pos.NumMoves() <= p.book.MaxPlies() {
		if col, ok := p.book.Pick(pos.MoveString()); ok {
			log.Debug().Str("moves", pos.MoveString()).Int("move", col+1).Msg("book-move")
			return Response{Move: col, Method: MethodBook}, nil
		}
	}

	timeLimit := p.defaultTime
	if req.Time > 0 {
		timeLimit = time.Duration(req.Time) * time.Millisecond
	}
	p.Lock()
	defer p.Unlock()
	res, err := p.solver.Solve(ctx, pos, timeLimit)
	if err != nil {
		return Response{Move: board.NoMove}, fmt.Errorf("searching %q: %w", req.Moves, err)
	}
	log.Info().Str("moves", pos.MoveString()).Int("move", res.Move+1).
		Int16("score", res.Score).Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).Dur("elapsed", res.Elapsed).Msg("search-move")
	return Response{
		Move:   res.Move,
		Method: MethodMinimax,
		Score:  res.Score,
		Depth:  res.Depth,
	}, nil
}
