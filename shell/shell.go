package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/negamax"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errExit              = errors.New("exit requested")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l     *readline.Instance
	out   io.Writer
	outMu sync.Mutex

	config     *config.Config
	execPath   string
	gitVersion string

	pos    *board.Position
	solver *negamax.Solver
	book   *book.Book
	player *bot.Player

	autoplayMu     sync.Mutex
	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController sets up an interactive shell on the terminal.
func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, execPath, gitVersion, nil)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mconnectfour>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "connectfour_readline.tmp"),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc
}

// newController builds a controller that writes to out, without a terminal.
func newController(cfg *config.Config, execPath, gitVersion string, out io.Writer) *ShellController {
	capacity := negamax.SizeFor(cfg.GetUint64(config.ConfigTTCapacity),
		cfg.GetFloat64(config.ConfigTTMemoryFraction))
	sc := &ShellController{
		out:        out,
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		pos:        board.NewPosition(),
		solver:     negamax.NewSolver(negamax.NewTranspositionTable(capacity)),
	}
	sc.loadBook()
	sc.player = bot.NewPlayerWithSolver(sc.solver, sc.book, sc.timeLimit())
	return sc
}

func (sc *ShellController) loadBook() {
	maxPlies := sc.config.GetInt(config.ConfigBookMaxPlies)
	path := sc.config.GetString(config.ConfigBookPath)
	if path == "" {
		sc.book = book.Default(maxPlies)
		return
	}
	b, err := book.Load(path, maxPlies)
	if err != nil {
		log.Err(err).Str("path", path).Msg("could-not-load-book-using-default")
		b = book.Default(maxPlies)
	}
	sc.book = b
}

func (sc *ShellController) timeLimit() time.Duration {
	return time.Duration(sc.config.GetInt(config.ConfigTimeLimitMs)) * time.Millisecond
}

// showMessage may be called from the autoplay goroutine.
func (sc *ShellController) showMessage(msg string) {
	sc.outMu.Lock()
	defer sc.outMu.Unlock()
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for i := 1; i < len(fields); i++ {
		// a negative number is an argument, not an option.
		if strings.HasPrefix(fields[i], "-") {
			if _, err := strconv.Atoi(fields[i]); err != nil {
				if i == len(fields)-1 {
					return nil, errWrongOptionSyntax
				}
				key := fields[i][1:]
				options[key] = append(options[key], fields[i+1])
				i++
				continue
			}
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit":
		sig <- syscall.SIGINT
		return nil, errExit
	case "help":
		if cmd.args == nil {
			return msg(usage("standard")), nil
		}
		return msg(usageTopic(cmd.args[0])), nil
	case "new":
		return sc.newGame(cmd)
	case "load":
		return sc.load(cmd)
	case "play":
		return sc.play(cmd)
	case "undo":
		return sc.undo(cmd)
	case "show":
		return sc.show(cmd)
	case "best":
		return sc.best(cmd)
	case "aiplay":
		return sc.aiplay(cmd)
	case "solve":
		return sc.solve(cmd)
	case "eval":
		return sc.eval(cmd)
	case "book":
		return sc.bookMoves(cmd)
	case "reset":
		return sc.resetTable(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "autoanalyze":
		return sc.autoAnalyze(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, fmt.Errorf("unknown command %q; type help for a list", cmd.cmd)
	}
}

// Execute runs a single command line, as when the shell is started with
// arguments.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		if !errors.Is(err, errExit) {
			sc.showError(err)
		}
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	// a one-shot autoplay should finish before the process exits.
	sc.waitForAutoplay()
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

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
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errExit) {
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops any games still being played.
func (sc *ShellController) Cleanup() {
	sc.autoplayMu.Lock()
	cancel := sc.autoplayCancel
	sc.autoplayMu.Unlock()
	if cancel != nil {
		cancel()
	}
	sc.waitForAutoplay()
}

func (sc *ShellController) waitForAutoplay() {
	sc.autoplayMu.Lock()
	done := sc.autoplayDone
	sc.autoplayMu.Unlock()
	if done != nil {
		<-done
	}
}
