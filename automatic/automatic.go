package automatic

// Computer vs computer games, for comparing engine settings.

import (
	"context"
	"errors"
	"expvar"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/connectfour/board"
	"github.com/domino14/connectfour/config"
	"github.com/domino14/connectfour/negamax"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

var playing atomic.Bool

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// Runner plays a batch of games between two engines. Each game gets its own
// solvers, so games run in parallel.
type Runner struct {
	engines      [2]EngineSettings
	numGames     int
	threads      int
	openingPlies int
	ttCapacity   uint64
	rng          *frand.RNG
	logchan      chan string
}

// NewRunner sets up a runner from the autoplay settings in cfg. Both engines
// start out identical. Per-move lines are sent to logchan if it is not nil.
func NewRunner(logchan chan string, cfg *config.Config) *Runner {
	timeLimit := time.Duration(cfg.GetInt(config.ConfigAutoplayTimeMs)) * time.Millisecond
	r := &Runner{
		numGames:   cfg.GetInt(config.ConfigAutoplayGames),
		threads:    max(1, cfg.GetInt(config.ConfigAutoplayThreads)),
		ttCapacity: negamax.SizeFor(DefaultTTCapacity, cfg.GetFloat64(config.ConfigTTMemoryFraction)/float64(2*runtime.NumCPU())),
		rng:        frand.New(),
		logchan:    logchan,
	}
	r.engines[0] = EngineSettings{Name: "engine1", TimeLimit: timeLimit}
	r.engines[1] = EngineSettings{Name: "engine2", TimeLimit: timeLimit}
	return r
}

func (r *Runner) SetEngines(e1, e2 EngineSettings) {
	r.engines = [2]EngineSettings{e1, e2}
}

func (r *Runner) SetNumGames(n int) {
	r.numGames = n
}

func (r *Runner) SetThreads(n int) {
	r.threads = max(1, n)
}

// SetOpeningPlies makes every game start with n random moves, so that two
// deterministic engines do not play the same game over and over.
func (r *Runner) SetOpeningPlies(n int) {
	r.openingPlies = n
}

func (r *Runner) SetTTCapacity(c uint64) {
	r.ttCapacity = c
}

// SetSeed makes the random openings reproducible.
func (r *Runner) SetSeed(seed [32]byte) {
	r.rng = frand.NewCustom(seed[:], 1024, 12)
}

// randomOpening returns up to n random moves that do not end the game.
func (r *Runner) randomOpening(n int) []int {
	pos := board.NewPosition()
	for i := 0; i < n; i++ {
		cands := lo.Filter(pos.Moves(), func(col int, _ int) bool {
			return !pos.IsWinningMove(col)
		})
		if len(cands) == 0 {
			break
		}
		pos.MakeMove(cands[r.rng.Intn(len(cands))])
	}
	return pos.MoveHistory()
}

// Run plays all games and returns them in order. If ctx is cancelled, the
// games finished so far are returned along with the error.
func (r *Runner) Run(ctx context.Context) ([]GameRecord, error) {
	if !playing.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPlaying
	}
	defer playing.Store(false)

	log.Debug().Msgf("Starting %v games, %v threads", r.numGames, r.threads)
	CVCCounter.Set(0)

	// openings are drawn up front; the generator is not safe for concurrent use.
	openings := make([][]int, r.numGames)
	for i := range openings {
		openings[i] = r.randomOpening(r.openingPlies)
	}

	records := make([]GameRecord, r.numGames)
	done := make([]bool, r.numGames)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.threads)
	for i := 0; i < r.numGames; i++ {
		g.Go(func() error {
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			rec, err := r.playGame(gctx, i+1, i%2, openings[i])
			if err != nil {
				return err
			}
			records[i] = rec
			done[i] = true
			CVCCounter.Add(1)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		log.Info().Err(err).Msg("stopped-early")
	}
	finished := lo.Filter(records, func(_ GameRecord, i int) bool { return done[i] })
	log.Info().Int("games", len(finished)).Msg("all-games-finished")
	return finished, err
}

// StartCompVComp runs the games and writes one CSV line per engine move to
// outputFilename, if it is not empty.
func StartCompVComp(ctx context.Context, r *Runner, outputFilename string) (Summary, error) {
	var writerDone chan struct{}
	if outputFilename != "" {
		logfile, err := os.Create(outputFilename)
		if err != nil {
			return Summary{}, err
		}
		r.logchan = make(chan string, 100)
		writerDone = make(chan struct{})
		go func() {
			defer close(writerDone)
			logfile.WriteString("gameID,ply,engine,column,score,depth,nodes\n")
			for msg := range r.logchan {
				logfile.WriteString(msg)
			}
			logfile.Close()
			log.Info().Msg("Exiting turn logger goroutine!")
		}()
	}

	records, err := r.Run(ctx)
	if writerDone != nil {
		close(r.logchan)
		<-writerDone
		r.logchan = nil
	}
	return Summarize(r.engines, records), err
}
