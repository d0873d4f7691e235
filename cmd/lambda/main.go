package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/connectfour/book"
	"github.com/domino14/connectfour/bot"
	"github.com/domino14/connectfour/config"
)

var cfg *config.Config
var nc *nats.Conn
var player *bot.Player

const HardTimeLimit = 30 * time.Second // max time per move

// reply is what goes out on the reply channel.
type reply struct {
	bot.Response
	GameID string `json:"game_id"`
}

func HandleRequest(ctx context.Context, evt bot.LambdaEvent) (string, error) {
	logger := log.With().
		Str("gameID", evt.GameID).
		Logger()

	// Leave some room under the hard limit for the reply.
	timeMs := min(evt.TimeMs, int(HardTimeLimit.Milliseconds())-1000)
	logger.Info().Str("moves", evt.Moves).Int("time-ms", timeMs).Msg("time-management")

	ctx, cancel := context.WithTimeout(ctx, HardTimeLimit)
	defer cancel()

	resp, err := player.Move(ctx, bot.Request{Moves: evt.Moves, Time: max(timeMs, 0)})
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(reply{Response: resp, GameID: evt.GameID})
	if err != nil {
		return "", err
	}
	if evt.ReplyChannel != "" {
		logger.Info().Msg("move-success-sending-via-nats")
		err = retry.Do(
			func() error {
				// Only the acknowledgement matters, not its contents.
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Context(ctx),
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("bot-move-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return strconv.Itoa(resp.Move + 1), nil
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg = config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	cfg.AdjustRelativePaths(exPath)
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	maxPlies := cfg.GetInt(config.ConfigBookMaxPlies)
	bk := book.Default(maxPlies)
	if path := cfg.GetString(config.ConfigBookPath); path != "" {
		if bk, err = book.Load(path, maxPlies); err != nil {
			log.Fatal().Err(err).Msg("could-not-load-book")
		}
	}
	player = bot.NewPlayer(cfg, bk)

	nc, err = bot.Connect(cfg.GetString(config.ConfigNatsURL), 5)
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
