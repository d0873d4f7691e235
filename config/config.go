package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug            = "debug"
	ConfigTimeLimitMs      = "time-limit-ms"
	ConfigTTCapacity       = "tt-capacity"
	ConfigTTMemoryFraction = "tt-memory-fraction"
	ConfigBookPath         = "book-path"
	ConfigBookMaxPlies     = "book-max-plies"
	ConfigNatsURL          = "nats-url"
	ConfigBotChannel       = "bot-channel"
	ConfigCPUProfile       = "cpu-profile"
	ConfigMemProfile       = "mem-profile"
	ConfigAutoplayGames    = "autoplay-games"
	ConfigAutoplayThreads  = "autoplay-threads"
	ConfigAutoplayTimeMs   = "autoplay-time-ms"
)

const EnvPrefix = "CONNECTFOUR"

type Config struct {
	*viper.Viper
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigTimeLimitMs, 1000)
	c.SetDefault(ConfigTTCapacity, 8388593)
	c.SetDefault(ConfigTTMemoryFraction, 0.25)
	c.SetDefault(ConfigBookPath, "")
	c.SetDefault(ConfigBookMaxPlies, 6)
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigBotChannel, "connectfour.bot")
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
	c.SetDefault(ConfigAutoplayGames, 10)
	c.SetDefault(ConfigAutoplayThreads, runtime.NumCPU())
	c.SetDefault(ConfigAutoplayTimeMs, 200)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("connectfour", pflag.ContinueOnError)
	fs.ParseErrorsAllowlist.UnknownFlags = true
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigTimeLimitMs, 1000, "search time per move, in milliseconds")
	fs.Uint64(ConfigTTCapacity, 8388593, "number of transposition table slots")
	fs.Float64(ConfigTTMemoryFraction, 0.25, "largest fraction of system memory the transposition table may use")
	fs.String(ConfigBookPath, "", "opening book file; empty for none")
	fs.Int(ConfigBookMaxPlies, 6, "plies after which the opening book is no longer consulted")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server for the bot")
	fs.String(ConfigBotChannel, "connectfour.bot", "subject the bot listens on")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a memory profile to this file")
	fs.Int(ConfigAutoplayGames, 10, "games per autoplay run")
	fs.Int(ConfigAutoplayThreads, runtime.NumCPU(), "games played at once during autoplay")
	fs.Int(ConfigAutoplayTimeMs, 200, "search time per move during autoplay, in milliseconds")
	return fs
}

// SplitArgs separates --long flags, with their values, from the rest of a
// command line. Single-dash options belong to shell commands and are never
// treated as flags.
func SplitArgs(args []string) (flags, rest []string) {
	fs := newFlagSet()
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") || a == "--" {
			rest = append(rest, a)
			continue
		}
		flags = append(flags, a)
		if strings.Contains(a, "=") {
			continue
		}
		f := fs.Lookup(strings.TrimPrefix(a, "--"))
		if f != nil && f.Value.Type() != "bool" && i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return flags, rest
}

// Load reads settings from the command line and from CONNECTFOUR_*
// environment variables, in that order of precedence. Only --long flags
// are read; everything else is left for the shell.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := newFlagSet()
	args, _ = SplitArgs(args)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix(EnvPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	return nil
}

// AdjustRelativePaths makes file settings relative to basePath, usually
// the directory of the executable.
func (c *Config) AdjustRelativePaths(basePath string) {
	for _, key := range []string{ConfigBookPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basePath, p))
	}
}

// SanitizedSettings returns every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if u := c.GetString(ConfigNatsURL); strings.Contains(u, "@") {
		// strip credentials.
		settings[ConfigNatsURL] = u[:strings.Index(u, "://")+3] + "***" + u[strings.LastIndex(u, "@"):]
	}
	return settings
}
