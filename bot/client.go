package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Client struct {
	// NATS connection
	nc      *nats.Conn
	channel string
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel}
}

func MakeRequest(moves string, timeMs int) ([]byte, error) {
	return json.Marshal(Request{Moves: moves, Time: timeMs})
}

// ParseResponse decodes a bot reply. A reply carrying an error is returned
// as an error.
func ParseResponse(data []byte) (Response, error) {
	resp := Response{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{Move: -1}, err
	}
	if resp.Error != "" {
		return resp, errors.New("Bot returned: " + resp.Error)
	}
	return resp, nil
}

// RequestMove sends a move history to the bot and waits for its move. The
// wait is bounded by the search time plus a margin.
func (c *Client) RequestMove(ctx context.Context, moves string, timeMs int) (Response, error) {
	data, err := MakeRequest(moves, timeMs)
	if err != nil {
		return Response{Move: -1}, err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeMs)*time.Millisecond+10*time.Second)
	defer cancel()
	res, err := c.nc.RequestWithContext(ctx, c.channel, data)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return Response{Move: -1}, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))
	return ParseResponse(res.Data)
}

// Reset tells the bot that a new game is starting.
func (c *Client) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := c.nc.RequestWithContext(ctx, c.channel, []byte(ResetMessage))
	if err != nil {
		return err
	}
	_, err = ParseResponse(res.Data)
	return err
}
