// Package sshcli implements the SSH shell transport. It drives the same
// command catalogs as the telnet client, over an interactive channel with
// prompt-driven pacing.
package sshcli

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	expect "github.com/google/goexpect"
	"golang.org/x/crypto/ssh"

	"github.com/nanoncore/nano-fleetmon/types"
)

// promptPattern matches common OLT CLI prompts like "OLT>" or "switch#"
var promptPattern = regexp.MustCompile(`(?m)[\w\-\[\]()/]+[#>$]\s*$`)

// Config for one SSH session
type Config struct {
	Address  string
	Port     int
	Username string
	Password string

	// CommandDelay paces command writes (default 1s)
	CommandDelay time.Duration

	// Timeout bounds dial and per-command prompt waits (default 20s)
	Timeout time.Duration
}

// Client runs one SSH shell session per call to Run
type Client struct {
	cfg Config
}

// NewClient validates config and returns a client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.CommandDelay == 0 {
		cfg.CommandDelay = time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{cfg: cfg}, nil
}

// Run connects, executes commands in order and returns the transcript
// with command echoes preserved (parsers rely on interface-context lines
// coming from the commands themselves). The connection is closed on every
// exit path, after a wait proportional to the command count so slow CLIs
// can finish echoing.
func (c *Client) Run(ctx context.Context, commands []string) (string, error) {
	client, err := c.dial(ctx)
	if err != nil {
		return "", &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: err}
	}
	defer client.Close()

	exp, _, err := expect.SpawnSSH(client, c.cfg.Timeout,
		expect.Verbose(false),
		expect.CheckDuration(250*time.Millisecond),
	)
	if err != nil {
		return "", &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: fmt.Errorf("spawn shell: %w", err)}
	}
	defer exp.Close()

	// Initial prompt; some shells need a nudge first
	if _, _, err := exp.Expect(promptPattern, c.cfg.Timeout); err != nil {
		_ = exp.Send("\n")
		if _, _, err := exp.Expect(promptPattern, c.cfg.Timeout); err != nil {
			return "", &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: fmt.Errorf("no initial prompt: %w", err)}
		}
	}

	var transcript strings.Builder
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: err}
		}

		if err := exp.Send(cmd + "\n"); err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: fmt.Errorf("send %q: %w", cmd, err)}
		}

		// Capture whatever arrived before the next prompt. A timeout
		// here is tolerated: commands that change CLI context often
		// print nothing.
		out, _, err := exp.Expect(promptPattern, c.cfg.Timeout)
		transcript.WriteString(cmd + "\n")
		transcript.WriteString(out)
		transcript.WriteString("\n")
		if err != nil && ctx.Err() != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: ctx.Err()}
		}

		if err := sleepCtx(ctx, c.cfg.CommandDelay); err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportSSH, Port: c.cfg.Port, Err: err}
		}
	}

	_ = exp.Send("exit\n")

	// Give the channel time proportional to the work it just did
	drain := time.Duration(len(commands)) * 200 * time.Millisecond
	if drain > 3*time.Second {
		drain = 3 * time.Second
	}
	_ = sleepCtx(ctx, drain)

	return transcript.String(), nil
}

// dial establishes the SSH connection, trying password auth first and
// keyboard-interactive with the same password as fallback. Some OLTs
// only accept the latter.
func (c *Client) dial(ctx context.Context) (*ssh.Client, error) {
	keyboardInteractive := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = c.cfg.Password
		}
		return answers, nil
	})

	sshConfig := &ssh.ClientConfig{
		User: c.cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.cfg.Password),
			keyboardInteractive,
		},
		Timeout:         c.cfg.Timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // embedded devices have no stable host keys
	}

	target := fmt.Sprintf("%s:%d", c.cfg.Address, c.cfg.Port)

	type dialResult struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial("tcp", target, sshConfig)
		ch <- dialResult{client, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("dial: %w", res.err)
		}
		return res.client, nil
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.client != nil {
				res.client.Close()
			}
		}()
		return nil, ctx.Err()
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
