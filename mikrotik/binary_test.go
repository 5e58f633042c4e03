package mikrotik

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

// fakeRouter serves one scripted exchange over the pipe: it reads the
// client sentence and answers with the given reply sentences.
func fakeRouter(t *testing.T, conn net.Conn, replies [][]string) <-chan []string {
	t.Helper()
	got := make(chan []string, 1)
	go func() {
		defer conn.Close()
		sentence, err := ReadSentence(conn)
		if err != nil {
			close(got)
			return
		}
		got <- sentence
		for _, reply := range replies {
			if err := WriteSentence(conn, reply); err != nil {
				return
			}
		}
	}()
	return got
}

func pipeSession(t *testing.T) (*binarySession, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	deadline := time.Now().Add(5 * time.Second)
	_ = client.SetDeadline(deadline)
	_ = server.SetDeadline(deadline)
	t.Cleanup(func() { client.Close() })
	return &binarySession{conn: client}, server
}

func TestExchangeCollectsRows(t *testing.T) {
	s, server := pipeSession(t)
	sent := fakeRouter(t, server, [][]string{
		{"!re", "=name=sub.one", "=caller-id=A2:7D:08:15:41:00"},
		{"!re", "=name=sub.two", "=caller-id=AA:BB:CC:DD:EE:FF"},
		{"!done"},
	})

	reply, err := s.Run("/ppp/active/print")
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Rows) != 2 {
		t.Fatalf("rows = %d", len(reply.Rows))
	}
	if reply.Rows[0]["name"] != "sub.one" {
		t.Errorf("row 0 name = %q", reply.Rows[0]["name"])
	}
	if reply.Rows[1]["caller-id"] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("row 1 caller-id = %q", reply.Rows[1]["caller-id"])
	}

	if words := <-sent; words[0] != "/ppp/active/print" {
		t.Errorf("command sent = %v", words)
	}
}

func TestExchangeTrapIsProtocolError(t *testing.T) {
	s, server := pipeSession(t)
	fakeRouter(t, server, [][]string{
		{"!trap", "=message=no such command"},
		{"!done"},
	})

	_, err := s.Run("/nonsense/print")
	var pe *types.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.Fatal {
		t.Error("trap must be recoverable")
	}
	if pe.Message != "no such command" {
		t.Errorf("message = %q", pe.Message)
	}
}

func TestExchangeFatalTearsDown(t *testing.T) {
	s, server := pipeSession(t)
	fakeRouter(t, server, [][]string{
		{"!fatal", "not logged in"},
	})

	_, err := s.Run("/system/identity/print")
	var pe *types.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if !pe.Fatal {
		t.Error("fatal reply must be marked fatal")
	}
}

func TestLoginSendsCredentials(t *testing.T) {
	s, server := pipeSession(t)
	sent := fakeRouter(t, server, [][]string{{"!done"}})

	if err := s.login("api", "secret"); err != nil {
		t.Fatal(err)
	}
	words := <-sent
	if words[0] != "/login" {
		t.Fatalf("first word = %q", words[0])
	}
	seen := map[string]bool{}
	for _, w := range words[1:] {
		seen[w] = true
	}
	if !seen["=name=api"] || !seen["=password=secret"] {
		t.Errorf("login words = %v", words)
	}
}
