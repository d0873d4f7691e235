package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/shell"
)

var (
	GitVersion string
)

const banner = `
  ___  ___  _ _  _ _  ___  ___  ___   ___  ___  _ _  ___
 |  _>| . || \ || \ || __>|  _>|_ _| | __>| . || | || . \
 | <__| | ||   ||   || _> | <__ | |  | _> | | || ' ||   /
 \___/\___/|_\_||_\_||___>\___/ |_|  |_|  \___/\___/|_\_\
`

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	// the book path and other relative settings are resolved against this.
	exPath := filepath.Dir(ex)
	fmt.Print(banner)
	fmt.Println(GitVersion)

	args := os.Args[1:]
	cfg := config.DefaultConfig()
	if err := cfg.Load(args); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	cfg.AdjustRelativePaths(exPath)
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-create-cpu-profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could-not-start-cpu-profile")
		}
		defer pprof.StopCPUProfile()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	sc := shell.NewShellController(cfg, exPath, GitVersion)
	_, rest := config.SplitArgs(args)
	if line := strings.TrimSpace(strings.Join(rest, " ")); line != "" {
		sc.Execute(sig, line)
	} else {
		go sc.Loop(sig)
		<-sig
	}

	if path := cfg.GetString(config.ConfigMemProfile); path != "" {
		if err := writeHeapProfile(path); err != nil {
			log.Err(err).Msg("could-not-write-memory-profile")
		}
	}
	sc.Cleanup()
}
