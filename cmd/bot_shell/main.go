package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	nc, err := bot.Connect(cfg.GetString(config.ConfigNatsURL), 3)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-connect")
	}
	defer nc.Close()

	sc := bot.NewShellController(cfg, bot.NewClient(nc, cfg.GetString(config.ConfigBotChannel)))
	go sc.Loop(sig)

	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
