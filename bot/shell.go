package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/config"
)

const (
	SelfPlayer = 0
	BotPlayer  = 1
)

var errGameNotStarted = errors.New("no game in progress; type new")

// MoveRequester is the bot as seen by the shell. *Client is one.
type MoveRequester interface {
	RequestMove(ctx context.Context, moves string, timeMs int) (Response, error)
	Reset(ctx context.Context) error
}

// ShellController lets a person play against a remote bot.
type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config
	client MoveRequester

	pos *board.Position
	// botSide is the turn index (0 moves first) the bot plays.
	botSide int
	playing bool
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func NewShellController(cfg *config.Config, client MoveRequester) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mconnectfour-bot>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "connectfour_bot_readline.tmp"),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc := newBotShell(cfg, client, l.Stderr())
	sc.l = l
	return sc
}

func newBotShell(cfg *config.Config, client MoveRequester, out io.Writer) *ShellController {
	return &ShellController{out: out, config: cfg, client: client, pos: board.NewPosition()}
}

func (sc *ShellController) IsBotOnTurn() bool {
	return sc.playing && sc.pos.CurrentTurn() == sc.botSide
}

func (sc *ShellController) getMove(ctx context.Context) error {
	sc.showMessage("Requesting move from bot")
	resp, err := sc.client.RequestMove(ctx, sc.pos.MoveString(), sc.config.GetInt(config.ConfigTimeLimitMs))
	if err != nil {
		sc.playing = false
		return err
	}
	sc.showMessage(fmt.Sprintf("Bot returned move: %d (%s)", resp.Move+1, resp.Method))
	if !sc.pos.MakeMove(resp.Move) {
		sc.playing = false
		return fmt.Errorf("bot column %d: %w", resp.Move+1, board.ErrInvalidMove)
	}
	sc.afterMove()
	sc.showMessage(sc.pos.ToDisplayText())
	return nil
}

func (sc *ShellController) afterMove() {
	if sc.pos.IsGameOver() {
		sc.playing = false
	}
}

// newGame starts a game; with "second" the bot moves first.
func (sc *ShellController) newGame(ctx context.Context, args []string) (string, error) {
	if err := sc.client.Reset(ctx); err != nil {
		return "", err
	}
	sc.pos.Reset()
	sc.botSide = 1
	if len(args) > 0 && args[0] == "second" {
		sc.botSide = 0
	}
	sc.playing = true
	if sc.botSide == SelfPlayer {
		return "Opponent goes first", nil
	}
	return sc.pos.ToDisplayText(), nil
}

func (sc *ShellController) play(args []string) (string, error) {
	if !sc.playing {
		return "", errGameNotStarted
	}
	if sc.IsBotOnTurn() {
		return "", errors.New("it is the bot's turn")
	}
	if len(args) != 1 {
		return "", errors.New("play <column>")
	}
	col, err := strconv.Atoi(args[0])
	if err != nil {
		return "", err
	}
	if col < 1 || col > board.NumColumns {
		return "", fmt.Errorf("column %d: %w", col, board.ErrColumnOutOfRange)
	}
	if !sc.pos.MakeMove(col - 1) {
		return "", fmt.Errorf("column %d: %w", col, board.ErrInvalidMove)
	}
	sc.afterMove()
	return sc.pos.ToDisplayText(), nil
}

func (sc *ShellController) handle(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := fields[0]
	args := fields[1:]
	switch cmd {
	case "new", "n":
		return sc.newGame(ctx, args)
	case "show", "s", "b":
		return sc.pos.ToDisplayText(), nil
	case "play", "pl", "p":
		return sc.play(args)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd))
		log.Info().Msg(msg)
		return "", errors.New(msg)
	}
}

// step lets the bot move if it is on turn, otherwise runs one line of input.
func (sc *ShellController) step(ctx context.Context, line string) {
	msg, err := sc.handle(ctx, line)
	if err != nil {
		sc.showError(err)
	} else if msg != "" {
		sc.showMessage(msg)
	}
	for sc.IsBotOnTurn() {
		if err := sc.getMove(ctx); err != nil {
			sc.showError(err)
		}
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	ctx := context.Background()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if line == "exit" {
			sig <- syscall.SIGINT
			break
		}
		sc.step(ctx, line)
	}
	log.Debug().Msgf("Exiting readline loop...")
}
