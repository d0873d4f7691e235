package shell

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/connectfour/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testController(out *bytes.Buffer) *ShellController {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTCapacity, 1<<18+3)
	cfg.Set(config.ConfigTimeLimitMs, 50)
	return newController(cfg, ".", "test", out)
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -out /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"out": {"/path/to/log.txt"}}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"autoplay -games 10 -time1 100 -out 'my games.csv' ",
			&shellcmd{"autoplay", nil,
				CmdOptions{"games": {"10"}, "time1": {"100"}, "out": {"my games.csv"}}},
			nil,
		},
		{"load 44 53",
			&shellcmd{"load", []string{"44", "53"}, CmdOptions{}},
			nil},
		{"play -3",
			&shellcmd{"play", []string{"-3"}, CmdOptions{}},
			nil},
		{"autoplay -games",
			nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func TestCmdOptions(t *testing.T) {
	is := is.New(t)
	opts := CmdOptions{"depth": {"6"}, "log": {"/tmp/x"}, "disable-tt": {"True"}, "bad": {"x"}}
	d, err := opts.Int("depth")
	is.NoErr(err)
	is.Equal(d, 6)
	_, err = opts.Int("time")
	is.True(err != nil)
	d, err = opts.IntDefault("time", 42)
	is.NoErr(err)
	is.Equal(d, 42)
	_, err = opts.IntDefault("bad", 1)
	is.True(err != nil)
	is.Equal(opts.String("log"), "/tmp/x")
	is.Equal(opts.String("nope"), "")
	is.True(opts.Bool("disable-tt"))
	is.True(!opts.Bool("log"))
}

func run(is *is.I, sc *ShellController, line string) string {
	sig := make(chan os.Signal, 1)
	resp, err := sc.standardModeSwitch(line, sig)
	is.NoErr(err)
	return resp.message
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc := testController(&bytes.Buffer{})
	run(is, sc, "load 4453")
	is.Equal(sc.pos.MoveString(), "4453")
	out := run(is, sc, "play 1")
	is.True(strings.Contains(out, "moves: 44531"))
	run(is, sc, "undo")
	is.Equal(sc.pos.MoveString(), "4453")
	run(is, sc, "new")
	is.Equal(sc.pos.NumMoves(), 0)

	sig := make(chan os.Signal, 1)
	_, err := sc.standardModeSwitch("undo", sig)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("play 8", sig)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("load 11111111", sig)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("frobnicate", sig)
	is.True(err != nil)
}

func TestSearchCommands(t *testing.T) {
	is := is.New(t)
	sc := testController(&bytes.Buffer{})
	run(is, sc, "load 121212")

	out := run(is, sc, "best -time 20")
	is.True(strings.HasPrefix(out, "Best move: column 1 "))
	out = run(is, sc, "solve -depth 4")
	is.True(strings.HasPrefix(out, "Best move: column 1 "))
	out = run(is, sc, "eval")
	is.True(strings.Contains(out, "Winning moves: [1]"))
	// searching does not change the position.
	is.Equal(sc.pos.MoveString(), "121212")

	out = run(is, sc, "aiplay")
	is.True(strings.Contains(out, "Played column 1 (minimax"))
	is.True(strings.Contains(out, "wins"))
	out = run(is, sc, "eval")
	is.True(strings.HasPrefix(out, "Game over."))
	run(is, sc, "reset")
}

func TestBookCommands(t *testing.T) {
	is := is.New(t)
	sc := testController(&bytes.Buffer{})
	out := run(is, sc, "book")
	is.Equal(out, "Book moves: [4]")
	out = run(is, sc, "aiplay")
	is.True(strings.HasPrefix(out, "Played column 4 (opening book)"))
	run(is, sc, "play 1")
	out = run(is, sc, "book")
	is.Equal(out, "Position is not in the book.")
}

func TestSolveLog(t *testing.T) {
	is := is.New(t)
	sc := testController(&bytes.Buffer{})
	logfile := t.TempDir() + "/solve.yaml"
	run(is, sc, "load 44")
	run(is, sc, "solve -depth 2 -disable-tt true -log "+logfile)
	data, err := os.ReadFile(logfile)
	is.NoErr(err)
	is.True(strings.HasPrefix(string(data), "- depth: 2"))
	is.Equal(sc.pos.MoveString(), "44")
}

func TestAutoplay(t *testing.T) {
	is := is.New(t)
	out := &bytes.Buffer{}
	sc := testController(out)
	sig := make(chan os.Signal, 1)
	sc.Execute(sig, "autoplay -games 2 -threads 2 -depth1 2 -depth2 2")
	is.True(strings.Contains(out.String(), "Playing 2 games on 2 threads (seed "))
	is.True(strings.Contains(out.String(), "2 games ("))

	logfile := t.TempDir() + "/games.csv"
	sc.Execute(sig, "autoplay -games 1 -depth1 2 -depth2 4 -out "+logfile)
	stats := run(is, sc, "autoanalyze "+logfile)
	is.True(strings.HasPrefix(stats, "Games played: 1\n"))
	is.True(strings.Contains(stats, "engine1 moves: "))
	is.True(strings.Contains(stats, "engine2 moves: "))

	out.Reset()
	sc.Execute(sig, "autoplay -games 1 -depth1 2 -depth2 2 -terminal-only1 true")
	is.True(strings.Contains(out.String(), "Playing 1 games on "))
	is.True(strings.Contains(out.String(), "1 games ("))

	_, err := sc.standardModeSwitch("autoplay stop", sig)
	is.True(err != nil)
}

func TestAutoplayStop(t *testing.T) {
	is := is.New(t)
	sc := testController(&bytes.Buffer{})
	run(is, sc, "autoplay -games 1000 -threads 1 -time1 200 -time2 200")
	time.Sleep(10 * time.Millisecond)
	is.Equal(run(is, sc, "autoplay stop"), "Stopping...")
	sc.Cleanup()
	is.True(sc.autoplayCancel == nil)
}

func TestHelpAndExit(t *testing.T) {
	is := is.New(t)
	sc := testController(&bytes.Buffer{})
	is.True(strings.Contains(run(is, sc, "help"), "autoplay stop"))
	is.True(strings.Contains(run(is, sc, "help solve"), "-depth"))
	is.True(strings.Contains(run(is, sc, "help nothing"), "no help text"))

	sig := make(chan os.Signal, 1)
	_, err := sc.standardModeSwitch("exit", sig)
	is.Equal(err, errExit)
	is.Equal(len(sig), 1)
}

func TestAutocomplete(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter(testController(&bytes.Buffer{}))

	matches, n := c.Do([]rune("autop"), 5)
	is.Equal(n, 5)
	is.Equal(matches, [][]rune{[]rune("lay")})

	matches, _ = c.Do([]rune("au"), 2)
	is.Equal(len(matches), 2)

	line := []rune("solve -d")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 2)
	is.Equal(len(matches), 2) // -depth, -disable-tt

	line = []rune("help ")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), len(helpTopics()))

	line = []rune("solve -disable-tt ")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("true"), []rune("false")})

	line = []rune("autoplay -terminal-only2 ")
	matches, _ = c.Do(line, len(line))
	is.Equal(matches, [][]rune{[]rune("true"), []rune("false")})

	line = []rune("autoplay -term")
	matches, n = c.Do(line, len(line))
	is.Equal(n, 5)
	is.Equal(len(matches), 2)
}
