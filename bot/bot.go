package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ResetMessage is sent on the bot channel, as is, when a new game starts.
const ResetMessage = "reset"

// LambdaEvent is the payload of a lambda invocation.
type LambdaEvent struct {
	Moves        string `json:"moves"`
	TimeMs       int    `json:"time_ms"`
	ReplyChannel string `json:"reply_channel"`
	GameID       string `json:"game_id"`
}

func errorResponse(message string, err error) Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return Response{Move: -1, Error: msg}
}

// handle answers one message from the bot channel.
func (p *Player) handle(ctx context.Context, data []byte) []byte {
	var resp Response
	if string(bytes.TrimSpace(data)) == ResetMessage {
		p.Reset()
		resp = Response{Move: -1, Method: MethodReset}
	} else {
		req := Request{}
		if err := json.Unmarshal(data, &req); err != nil {
			resp = errorResponse("could not parse request", err)
		} else if resp, err = p.Move(ctx, req); err != nil {
			resp = errorResponse("could not find a move", err)
		}
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, ideally, but we need to do something sensible here.
		return []byte(err.Error())
	}
	return out
}

// Serve answers requests on channel until ctx is done.
func Serve(ctx context.Context, nc *nats.Conn, channel string, p *Player) error {
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(p.handle(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)
	<-ctx.Done()
	return sub.Unsubscribe()
}

// Connect dials the NATS server, backing off between failed attempts.
func Connect(url string, attempts uint) (*nats.Conn, error) {
	return retry.DoWithData(
		func() (*nats.Conn, error) {
			return nats.Connect(url, nats.Name("connectfour-bot"))
		},
		retry.Attempts(attempts),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("url", url).Msg("nats-connect-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}
