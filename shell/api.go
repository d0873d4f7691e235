package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/connectfour/automatic"
	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/equity"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.pos.Reset()
	sc.player.Reset()
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: load <moves>, e.g. load 4453")
	}
	moves, err := board.ParseMoveString(strings.Join(cmd.args, ""))
	if err != nil {
		return nil, err
	}
	pos, err := board.NewPositionFromMoves(moves)
	if err != nil {
		return nil, err
	}
	sc.pos = pos
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play <column 1-7>")
	}
	col, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if col < 1 || col > board.NumColumns {
		return nil, fmt.Errorf("column %d: %w", col, board.ErrColumnOutOfRange)
	}
	if !sc.pos.MakeMove(col - 1) {
		return nil, fmt.Errorf("column %d: %w", col, board.ErrInvalidMove)
	}
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if !sc.pos.Undo() {
		return nil, errors.New("nothing to undo")
	}
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) timeOption(cmd *shellcmd) (time.Duration, error) {
	ms, err := cmd.options.IntDefault("time", sc.config.GetInt(config.ConfigTimeLimitMs))
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// best searches the current position under a time limit, without playing.
func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	timeLimit, err := sc.timeOption(cmd)
	if err != nil {
		return nil, err
	}
	res, err := sc.solver.Solve(context.Background(), sc.pos, timeLimit)
	if err != nil {
		return nil, err
	}
	return msg("Best move: " + res.String()), nil
}

// aiplay asks the bot, book included, for a move and plays it.
func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	timeLimit, err := sc.timeOption(cmd)
	if err != nil {
		return nil, err
	}
	resp, err := sc.player.Move(context.Background(),
		bot.Request{Moves: sc.pos.MoveString(), Time: int(timeLimit.Milliseconds())})
	if err != nil {
		return nil, err
	}
	sc.pos.MakeMove(resp.Move)
	summary := fmt.Sprintf("Played column %d (%s", resp.Move+1, resp.Method)
	if resp.Method == bot.MethodMinimax {
		summary += fmt.Sprintf(", score %d, depth %d", resp.Score, resp.Depth)
	}
	return msg(summary + ")\n" + sc.pos.ToDisplayText()), nil
}

// solve runs one fixed-depth search with no time limit. With -log, every
// node expanded is written to the given file.
func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	depth, err := cmd.options.IntDefault("depth", 8)
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, errors.New("depth must be positive")
	}
	depth = min(depth, board.NumCells-sc.pos.NumMoves())
	if logfile := cmd.options.String("log"); logfile != "" {
		f, err := os.Create(logfile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sc.solver.SetLogStream(f)
		defer sc.solver.SetLogStream(nil)
	}
	if cmd.options.Bool("disable-tt") {
		sc.solver.SetTranspositionTableOptim(false)
		defer sc.solver.SetTranspositionTableOptim(true)
	}
	res, err := sc.solver.Search(context.Background(), sc.pos, depth)
	if err != nil {
		return nil, err
	}
	return msg("Best move: " + res.String()), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if score, over := equity.TerminalScore(sc.pos); over {
		fmt.Fprintf(&sb, "Game over. Score for the side to move: %d\n", score)
		return msg(sb.String()), nil
	}
	fmt.Fprintf(&sb, "Winning spaces for the side to move: %d\n", equity.CountWinningSpaces(sc.pos))
	wins := lo.Filter(sc.pos.Moves(), func(col int, _ int) bool { return sc.pos.IsWinningMove(col) })
	if len(wins) > 0 {
		fmt.Fprintf(&sb, "Winning moves: %v\n", lo.Map(wins, func(col int, _ int) int { return col + 1 }))
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) bookMoves(cmd *shellcmd) (*Response, error) {
	cands, ok := sc.book.Lookup(sc.pos.MoveString())
	if !ok {
		return msg("Position is not in the book."), nil
	}
	cols := lo.Map(cands, func(col int, _ int) int { return col + 1 })
	return msg(fmt.Sprintf("Book moves: %v", cols)), nil
}

func (sc *ShellController) resetTable(cmd *shellcmd) (*Response, error) {
	sc.solver.Reset()
	return msg("Transposition table cleared."), nil
}

func (sc *ShellController) autoAnalyze(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: autoanalyze <autoplay log file>")
	}
	stats, err := automatic.AnalyzeLogFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	return msg(stats), nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 && cmd.args[0] == "stop" {
		sc.autoplayMu.Lock()
		cancel := sc.autoplayCancel
		sc.autoplayMu.Unlock()
		if cancel == nil {
			return nil, errors.New("no games are being played")
		}
		cancel()
		return msg("Stopping..."), nil
	}

	games, err := cmd.options.IntDefault("games", sc.config.GetInt(config.ConfigAutoplayGames))
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigAutoplayThreads))
	if err != nil {
		return nil, err
	}
	opening, err := cmd.options.IntDefault("opening", 4)
	if err != nil {
		return nil, err
	}
	ms := [2]int{}
	depths := [2]int{}
	terminalOnly := [2]bool{}
	for i := range ms {
		key := strconv.Itoa(i + 1)
		if ms[i], err = cmd.options.IntDefault("time"+key, sc.config.GetInt(config.ConfigAutoplayTimeMs)); err != nil {
			return nil, err
		}
		if depths[i], err = cmd.options.IntDefault("depth"+key, 0); err != nil {
			return nil, err
		}
		terminalOnly[i] = cmd.options.Bool("terminal-only" + key)
	}

	var seed [32]byte
	if enc := cmd.options.String("seed"); enc != "" {
		seed, err = automatic.DecodeSeed(enc)
	} else {
		seed, err = automatic.GenerateSeed()
	}
	if err != nil {
		return nil, err
	}

	r := automatic.NewRunner(nil, sc.config)
	r.SetSeed(seed)
	r.SetNumGames(games)
	r.SetThreads(threads)
	r.SetOpeningPlies(opening)
	engines := [2]automatic.EngineSettings{}
	for i := range engines {
		engines[i] = automatic.EngineSettings{
			Name:         "engine" + strconv.Itoa(i+1),
			TimeLimit:    time.Duration(ms[i]) * time.Millisecond,
			Depth:        depths[i],
			TerminalOnly: terminalOnly[i],
		}
	}
	r.SetEngines(engines[0], engines[1])

	sc.autoplayMu.Lock()
	defer sc.autoplayMu.Unlock()
	if sc.autoplayCancel != nil {
		return nil, automatic.ErrAlreadyPlaying
	}
	ctx, cancel := context.WithCancel(context.Background())
	sc.autoplayCancel = cancel
	sc.autoplayDone = make(chan struct{})
	outFile := cmd.options.String("out")

	go func() {
		defer func() {
			sc.autoplayMu.Lock()
			cancel()
			sc.autoplayCancel = nil
			close(sc.autoplayDone)
			sc.autoplayDone = nil
			sc.autoplayMu.Unlock()
		}()
		summary, err := automatic.StartCompVComp(ctx, r, outFile)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Err(err).Msg("autoplay-failed")
		}
		sc.showMessage(summary.String())
	}()
	return msg(fmt.Sprintf("Playing %d games on %d threads (seed %s). Use `autoplay stop` to stop.",
		games, threads, automatic.EncodeSeed(seed))), nil
}
