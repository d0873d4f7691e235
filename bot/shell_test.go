package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/config"
)

// localRequester talks to a Player directly instead of over NATS.
type localRequester struct {
	p      *Player
	resets int
	fail   bool
}

func (l *localRequester) RequestMove(ctx context.Context, moves string, timeMs int) (Response, error) {
	if l.fail {
		return Response{Move: -1}, errors.New("Bot returned: boom")
	}
	return l.p.Move(ctx, Request{Moves: moves, Time: timeMs})
}

func (l *localRequester) Reset(ctx context.Context) error {
	l.resets++
	l.p.Reset()
	return nil
}

func testShell(fail bool) (*ShellController, *localRequester, *bytes.Buffer) {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTimeLimitMs, 30)
	lr := &localRequester{p: testPlayer(book.Default(book.DefaultMaxPlies)), fail: fail}
	out := &bytes.Buffer{}
	return newBotShell(cfg, lr, out), lr, out
}

func TestShellBotMovesFirst(t *testing.T) {
	is := is.New(t)
	sc, lr, out := testShell(false)
	ctx := context.Background()
	sc.step(ctx, "new second")
	is.Equal(lr.resets, 1)
	is.True(strings.Contains(out.String(), "Opponent goes first"))
	// the book answers the empty board.
	is.True(strings.Contains(out.String(), "Bot returned move: 4 (opening book)"))
	is.Equal(sc.pos.MoveString(), "4")
	is.True(!sc.IsBotOnTurn())
}

func TestShellPlayAgainstBot(t *testing.T) {
	is := is.New(t)
	sc, _, out := testShell(false)
	ctx := context.Background()
	sc.step(ctx, "play 1")
	is.True(strings.Contains(out.String(), errGameNotStarted.Error()))

	sc.step(ctx, "new")
	for _, col := range []string{"1", "1", "1"} {
		sc.step(ctx, "play "+col)
	}
	// the bot answers every move.
	is.Equal(sc.pos.NumMoves(), 6)
	is.True(strings.Contains(out.String(), "(minimax)"))

	out.Reset()
	sc.step(ctx, "play 9")
	is.True(strings.Contains(out.String(), "column out of range"))
	sc.step(ctx, "bogus")
	is.True(strings.Contains(out.String(), `command "bogus" not found`))
}

func TestShellBotError(t *testing.T) {
	is := is.New(t)
	sc, _, out := testShell(true)
	sc.step(context.Background(), "new second")
	is.True(strings.Contains(out.String(), "Error: Bot returned: boom"))
	is.True(!sc.playing)
}
