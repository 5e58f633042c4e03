package mikrotik

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

// Reply collects the rows of one command exchange
type Reply struct {
	// Rows holds one key/value map per !re sentence
	Rows []map[string]string
}

// binarySession is one authenticated connection speaking the legacy
// length-prefixed sentence protocol.
type binarySession struct {
	conn net.Conn
}

// dialBinary connects and logs in. Post-6.43 routers accept the plain
// name/password login; a !trap reply tears the session down.
func dialBinary(ctx context.Context, address string, port int, useTLS bool, username, password string, timeout time.Duration) (*binarySession, error) {
	dialer := net.Dialer{Timeout: timeout}
	target := net.JoinHostPort(address, fmt.Sprintf("%d", port))

	var conn net.Conn
	var err error
	if useTLS {
		conn, err = tls.DialWithDialer(&dialer, "tcp", target,
			&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // self-signed device certs
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", target)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	s := &binarySession{conn: conn}
	if err := s.login(username, password); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *binarySession) login(username, password string) error {
	words := []string{"/login", "=name=" + username, "=password=" + password}
	reply, err := s.exchange(words)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	_ = reply
	return nil
}

// Run sends one command sentence and collects rows until !done.
// Attribute words are appended after the command path.
func (s *binarySession) Run(command string, attrs ...string) (*Reply, error) {
	words := append([]string{command}, attrs...)
	return s.exchange(words)
}

// exchange writes a sentence and reads reply sentences until !done.
// !trap is a recoverable API error; !fatal requires teardown.
func (s *binarySession) exchange(words []string) (*Reply, error) {
	if err := WriteSentence(s.conn, words); err != nil {
		return nil, fmt.Errorf("write %s: %w", words[0], err)
	}

	reply := &Reply{}
	var trapMsg string

	for {
		sentence, err := ReadSentence(s.conn)
		if err != nil {
			return nil, fmt.Errorf("read reply to %s: %w", words[0], err)
		}
		if len(sentence) == 0 {
			continue
		}

		switch sentence[0] {
		case "!re":
			reply.Rows = append(reply.Rows, parseAttrs(sentence[1:]))

		case "!done":
			if trapMsg != "" {
				return nil, &types.ProtocolError{Op: words[0], Message: trapMsg}
			}
			return reply, nil

		case "!trap":
			attrs := parseAttrs(sentence[1:])
			if m := attrs["message"]; m != "" {
				trapMsg = m
			} else {
				trapMsg = "unknown trap"
			}

		case "!fatal":
			msg := "session closed"
			if len(sentence) > 1 {
				msg = sentence[1]
			}
			return nil, &types.ProtocolError{Op: words[0], Message: msg, Fatal: true}

		default:
			// Unknown reply tags are skipped, not fatal
		}
	}
}

// parseAttrs turns "=key=value" words into a map. Words without the
// leading "=" (tags, proplist echoes) are skipped.
func parseAttrs(words []string) map[string]string {
	attrs := make(map[string]string, len(words))
	for _, w := range words {
		if !strings.HasPrefix(w, "=") {
			continue
		}
		kv := strings.SplitN(w[1:], "=", 2)
		if len(kv) == 2 {
			attrs[kv[0]] = kv[1]
		}
	}
	return attrs
}

// Close tears the session down, releasing the socket
func (s *binarySession) Close() error {
	return s.conn.Close()
}
