package ublox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/aldas/go-agps-client"
	"github.com/rs/zerolog"
)

const (
	// DefaultHost is u-blox AssistNow Online server
	DefaultHost = "agps.u-blox.com"
	// DefaultPort is u-blox AssistNow Online server port
	DefaultPort = 46434

	defaultChunkSize = 1024
)

// Config is configuration for AGPS server client
type Config struct {
	// Address is AGPS server address in `host:port` form. Defaults to `agps.u-blox.com:46434`
	Address string

	// Timeout limits whole exchange (connect, send and receive). Zero means no timeout and client reads until server
	// closes the connection.
	Timeout time.Duration

	// ChunkSize is size of single socket read. Defaults to 1024
	ChunkSize int
}

// Client is u-blox AssistNow Online client. Client sends single request and reads response until server closes the
// connection.
type Client struct {
	config Config
	dialer *net.Dialer
	logger zerolog.Logger
}

// NewClient creates new instance of AGPS server client
func NewClient(config Config, logger zerolog.Logger) *Client {
	if config.Address == "" {
		config.Address = net.JoinHostPort(DefaultHost, strconv.Itoa(DefaultPort))
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}
	return &Client{
		config: config,
		dialer: &net.Dialer{},
		logger: logger,
	}
}

// Fetch sends request to AGPS server and returns whole response (header and payload).
func (c *Client) Fetch(ctx context.Context, req agps.Request) ([]byte, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	c.logger.Info().Str("address", c.config.Address).Msg("Connecting to u-blox")
	conn, err := c.dialer.DialContext(ctx, "tcp", c.config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %v: %w", agps.ErrConnection, c.config.Address, err)
	}
	defer conn.Close()
	c.logger.Info().Msg("Connection established")

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("%w: failed to set deadline: %w", agps.ErrConnection, err)
		}
	}
	// blocking reads and writes do not observe context so on cancellation we expire the deadline to unblock them
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c.logger.Info().Msg("Sending the request")
	c.logger.Debug().Stringer("request", req).Msg("AGPS request")
	if _, err := conn.Write(req.Encode()); err != nil {
		return nil, c.wrapIOError(ctx, "failed to send request", err)
	}

	response := new(bytes.Buffer)
	chunk := make([]byte, c.config.ChunkSize)
	for {
		n, err := conn.Read(chunk)
		response.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, c.wrapIOError(ctx, "failed to receive response", err)
		}
	}
	c.logger.Debug().Int("bytes", response.Len()).Msg("Received AGPS response")
	return response.Bytes(), nil
}

// FetchPayload sends request to AGPS server and returns binary payload from response.
func (c *Client) FetchPayload(ctx context.Context, req agps.Request) ([]byte, error) {
	response, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	header, payload, err := agps.SplitResponse(response)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Int("header_bytes", len(header)).
		Int("payload_bytes", len(payload)).
		Msg("Extracted AGPS payload")
	return payload, nil
}

func (c *Client) wrapIOError(ctx context.Context, msg string, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		// connection deadlines are only set from context so report the context reason instead
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else if _, ok := ctx.Deadline(); ok {
			err = context.DeadlineExceeded
		}
	}
	return fmt.Errorf("%w: %v: %w", agps.ErrConnection, msg, err)
}
