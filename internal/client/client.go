package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/MaciejGrzybacz/DistributedSystems/internal/codec"
	"github.com/MaciejGrzybacz/DistributedSystems/internal/config"
)

// Client sends text datagrams to a server and waits for the reply
type Client struct {
	config *config.ClientConfig
	logger *slog.Logger
	codec  codec.Codec
}

// New creates a client for the server named in cfg
func New(cfg *config.ClientConfig, logger *slog.Logger, c codec.Codec) *Client {
	return &Client{
		config: cfg,
		logger: logger,
		codec:  c,
	}
}

// Exchange sends message once and blocks for exactly one reply datagram.
// Without a configured timeout the receive only ends when a datagram
// arrives, the transport fails, or ctx is cancelled.
func (c *Client) Exchange(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raddr, err := net.ResolveUDPAddr("udp4", c.config.Address())
	if err != nil {
		return "", fmt.Errorf("failed to resolve server address: %w", err)
	}

	payload, err := c.codec.Encode(message)
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return "", fmt.Errorf("failed to open UDP socket: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
		}
	}()

	if timeout := c.config.GetTimeoutDuration(); timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return "", fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	// registered after the timeout so cancellation always wins
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	c.logger.Debug("Message sent",
		slog.String("local_addr", conn.LocalAddr().String()),
		slog.String("server_addr", raddr.String()),
		slog.String("message", message),
	)

	buffer := make([]byte, c.config.BufferSize)
	n, err := conn.Read(buffer)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("failed to receive reply: %w", err)
	}

	reply, err := c.codec.Decode(buffer[:n])
	if err != nil {
		return "", fmt.Errorf("failed to decode reply: %w", err)
	}

	return reply, nil
}

// Run performs the configured number of exchanges, printing each reply to
// out. It stops at the first error.
func (c *Client) Run(ctx context.Context, message string, out io.Writer) error {
	for i := 0; i < c.config.Count; i++ {
		if i > 0 && c.config.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.GetIntervalDuration()):
			}
		}

		reply, err := c.Exchange(ctx, message)
		if err != nil {
			return fmt.Errorf("exchange %d: %w", i+1, err)
		}

		fmt.Fprintf(out, "%s%s\n", c.config.ReplyPrefix, reply)
	}

	return nil
}

// IsTimeout reports whether err is a receive timeout
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
