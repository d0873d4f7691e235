package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
)

const connectAttempts = 10

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	log.Info().Msgf("Loaded config: %v, exPath: %v", cfg.SanitizedSettings(), exPath)
	cfg.AdjustRelativePaths(exPath)
	log.Info().Msg("adjusted paths")

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	maxPlies := cfg.GetInt(config.ConfigBookMaxPlies)
	bk := book.Default(maxPlies)
	if path := cfg.GetString(config.ConfigBookPath); path != "" {
		bk, err = book.Load(path, maxPlies)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("could-not-load-book")
		}
	}

	nc, err := bot.Connect(cfg.GetString(config.ConfigNatsURL), connectAttempts)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-connect")
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := bot.NewPlayer(cfg, bk)
	if err := bot.Serve(ctx, nc, cfg.GetString(config.ConfigBotChannel), p); err != nil {
		log.Fatal().Err(err).Msg("serve-failed")
	}
	log.Info().Msg("server gracefully shutting down")
}
