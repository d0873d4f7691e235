package main

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
)

func setup() {
	cfg = config.DefaultConfig()
	cfg.Set(config.ConfigTTCapacity, 1<<16+1)
	player = bot.NewPlayer(cfg, book.Default(6))
}

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	setup()
	evt := bot.LambdaEvent{
		Moves:  "12121",
		TimeMs: 100,
		GameID: "foo",
	}
	ret, err := HandleRequest(context.Background(), evt)
	is.NoErr(err)
	// the only move that stops four in column 1.
	is.Equal(ret, "1")
}

func TestHandleRequestFromBook(t *testing.T) {
	is := is.New(t)
	setup()
	ret, err := HandleRequest(context.Background(), bot.LambdaEvent{TimeMs: 100})
	is.NoErr(err)
	is.Equal(ret, "4")
}

func TestHandleRequestGameOver(t *testing.T) {
	is := is.New(t)
	setup()
	_, err := HandleRequest(context.Background(), bot.LambdaEvent{Moves: "1212121", TimeMs: 100})
	is.True(err != nil)
}
