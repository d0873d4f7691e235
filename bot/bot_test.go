package bot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/negamax"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testPlayer(bk *book.Book) *Player {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTCapacity, 1<<20+7)
	cfg.Set(config.ConfigTimeLimitMs, 50)
	return NewPlayer(cfg, bk)
}

func TestBookMove(t *testing.T) {
	is := is.New(t)
	p := testPlayer(book.Default(book.DefaultMaxPlies))
	resp, err := p.Move(context.Background(), Request{Moves: ""})
	is.NoErr(err)
	is.Equal(resp.Method, MethodBook)
	is.Equal(resp.Move, 3)
}

func TestSearchMove(t *testing.T) {
	is := is.New(t)
	p := testPlayer(book.Default(book.DefaultMaxPlies))
	// not in the book, so the player searches.
	resp, err := p.Move(context.Background(), Request{Moves: "121212", Time: 30})
	is.NoErr(err)
	is.Equal(resp.Method, MethodMinimax)
	is.Equal(resp.Move, 0)
	is.True(resp.Depth >= 2)
}

func TestNoBookPastMaxPlies(t *testing.T) {
	is := is.New(t)
	bk := book.New(2)
	bk.Add("444", 3)
	p := testPlayer(bk)
	resp, err := p.Move(context.Background(), Request{Moves: "444"})
	is.NoErr(err)
	is.Equal(resp.Method, MethodMinimax)
}

func TestNilBook(t *testing.T) {
	is := is.New(t)
	p := testPlayer(nil)
	resp, err := p.Move(context.Background(), Request{Moves: ""})
	is.NoErr(err)
	is.Equal(resp.Method, MethodMinimax)
	is.True(resp.Move >= 0 && resp.Move < board.NumColumns)
}

func TestBadRequests(t *testing.T) {
	is := is.New(t)
	p := testPlayer(nil)
	_, err := p.Move(context.Background(), Request{Moves: "1111111"})
	is.True(errors.Is(err, board.ErrInvalidMove))
	_, err = p.Move(context.Background(), Request{Moves: "18"})
	is.True(errors.Is(err, board.ErrColumnOutOfRange))
	_, err = p.Move(context.Background(), Request{Moves: "1212121"})
	is.True(errors.Is(err, negamax.ErrGameOver))
}

func TestHandle(t *testing.T) {
	is := is.New(t)
	p := testPlayer(book.Default(book.DefaultMaxPlies))
	ctx := context.Background()

	data, err := MakeRequest("4", 20)
	is.NoErr(err)
	resp, err := ParseResponse(p.handle(ctx, data))
	is.NoErr(err)
	is.Equal(resp, Response{Move: 3, Method: MethodBook})

	resp, err = ParseResponse(p.handle(ctx, []byte(ResetMessage)))
	is.NoErr(err)
	is.Equal(resp.Method, MethodReset)

	_, err = ParseResponse(p.handle(ctx, []byte("{not json")))
	is.True(err != nil)

	resp, err = ParseResponse(p.handle(ctx, []byte(`{"moves":"1212121"}`)))
	is.True(err != nil)
	is.Equal(resp.Move, -1)
}

func TestWireFormat(t *testing.T) {
	is := is.New(t)
	data, err := MakeRequest("4453", 1000)
	is.NoErr(err)
	is.Equal(string(data), `{"moves":"4453","time":1000}`)

	out, err := json.Marshal(Response{Move: 3, Method: MethodMinimax, Score: 4, Depth: 8})
	is.NoErr(err)
	is.Equal(string(out), `{"move":3,"method":"minimax","score":4,"depth":8}`)

	evt := LambdaEvent{}
	is.NoErr(json.Unmarshal([]byte(`{"moves":"44","time_ms":250,"reply_channel":"r.1"}`), &evt))
	is.Equal(evt, LambdaEvent{Moves: "44", TimeMs: 250, ReplyChannel: "r.1"})
}
