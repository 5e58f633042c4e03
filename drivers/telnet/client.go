// Package telnet implements the raw-socket interactive shell client used
// as the primary transport for most OLT brands, including devices reached
// through forwarded ports.
package telnet

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

const (
	// DefaultCommandDelay paces command writes; embedded CLIs drop
	// input sent faster than they echo it.
	DefaultCommandDelay = 1200 * time.Millisecond

	defaultLoginTimeout = 15 * time.Second
	readChunkSize       = 4096
)

// Config for one shell session
type Config struct {
	Address  string
	Port     int
	Username string
	Password string

	// CommandDelay between command writes (default DefaultCommandDelay)
	CommandDelay time.Duration

	// LoginTimeout bounds the login exchange (default 15s)
	LoginTimeout time.Duration
}

// Client runs one interactive shell session per call to Run
type Client struct {
	cfg Config
}

// NewClient validates config and returns a client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 23
	}
	if cfg.CommandDelay == 0 {
		cfg.CommandDelay = DefaultCommandDelay
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}
	return &Client{cfg: cfg}, nil
}

// Run logs in, executes commands in order with the configured pacing,
// sends exit and returns the full transcript. The socket is released on
// every exit path.
func (c *Client) Run(ctx context.Context, commands []string) (string, error) {
	dialer := net.Dialer{Timeout: c.cfg.LoginTimeout}
	target := net.JoinHostPort(c.cfg.Address, fmt.Sprintf("%d", c.cfg.Port))

	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return "", &types.TransportError{Transport: types.TransportTelnet, Port: c.cfg.Port, Err: err}
	}
	defer conn.Close()

	// Cancellation closes the socket, which unblocks any pending read
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var transcript strings.Builder
	var mu sync.Mutex

	if err := c.login(ctx, conn, &transcript, &mu); err != nil {
		return transcript.String(), &types.TransportError{Transport: types.TransportTelnet, Port: c.cfg.Port, Err: err}
	}

	// Keep draining output while commands are paced out
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, readChunkSize)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				mu.Lock()
				transcript.Write(buf[:n])
				mu.Unlock()
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportTelnet, Port: c.cfg.Port, Err: err}
		}
		if _, err := conn.Write([]byte(cmd + "\r\n")); err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportTelnet, Port: c.cfg.Port, Err: err}
		}
		if err := sleepCtx(ctx, c.cfg.CommandDelay); err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportTelnet, Port: c.cfg.Port, Err: err}
		}
	}

	// Graceful logout; the device closing its side ends the drain
	_, _ = conn.Write([]byte("exit\r\n"))

	select {
	case <-readErr:
	case <-time.After(2 * c.cfg.CommandDelay):
	case <-ctx.Done():
	}

	mu.Lock()
	out := transcript.String()
	mu.Unlock()
	return out, nil
}

// login drives the prompt state machine until authenticated
func (c *Client) login(ctx context.Context, conn net.Conn, transcript *strings.Builder, mu *sync.Mutex) error {
	detector := &loginDetector{}
	deadline := time.Now().Add(c.cfg.LoginTimeout)
	buf := make([]byte, readChunkSize)

	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		n, err := conn.Read(buf)
		if n > 0 {
			mu.Lock()
			transcript.Write(buf[:n])
			mu.Unlock()

			for _, tr := range detector.Feed(buf[:n]) {
				switch tr {
				case TransitionSendUsername:
					if _, err := conn.Write([]byte(c.cfg.Username + "\r\n")); err != nil {
						return err
					}
				case TransitionSendPassword:
					if _, err := conn.Write([]byte(c.cfg.Password + "\r\n")); err != nil {
						return err
					}
				case TransitionAuthenticated:
					_ = conn.SetReadDeadline(time.Time{})
					return nil
				}
			}
		}
		if err != nil {
			return fmt.Errorf("login failed in state %s: %w", detector.State(), err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
