package telnet

import (
	"strings"
)

// LoginState is the position in the interactive login exchange
type LoginState int

const (
	StateAwaitingUsername LoginState = iota
	StateAwaitingPassword
	StateAwaitingShell
	StateAuthenticated
)

func (s LoginState) String() string {
	switch s {
	case StateAwaitingUsername:
		return "awaiting-username"
	case StateAwaitingPassword:
		return "awaiting-password"
	case StateAwaitingShell:
		return "awaiting-shell"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// promptChars are the characters that terminate a shell prompt line
const promptChars = "#>$"

// Transition describes what the client must send after a state change
type Transition int

const (
	TransitionSendUsername Transition = iota
	TransitionSendPassword
	TransitionAuthenticated
)

// loginDetector advances the login state machine over accumulated input.
// It operates on buffered content, never on a single read, so prompts
// split across arbitrary TCP fragments are still detected. After a match
// only the text past the matched prompt is retained, so each prompt is
// acted on exactly once and a prompt pair arriving in one fragment still
// yields both transitions.
type loginDetector struct {
	state LoginState
	buf   string
}

// Feed appends chunk to the accumulated buffer and returns the
// transitions it triggered, in order.
func (d *loginDetector) Feed(chunk []byte) []Transition {
	if d.state == StateAuthenticated {
		return nil
	}

	d.buf += string(chunk)

	var transitions []Transition
	for {
		lower := strings.ToLower(d.buf)
		matched := false

		switch d.state {
		case StateAwaitingUsername:
			if end := matchEnd(lower, "username", "login"); end >= 0 {
				d.state = StateAwaitingPassword
				d.buf = d.buf[end:]
				transitions = append(transitions, TransitionSendUsername)
				matched = true
			}
		case StateAwaitingPassword:
			if end := matchEnd(lower, "password"); end >= 0 {
				d.state = StateAwaitingShell
				d.buf = d.buf[end:]
				transitions = append(transitions, TransitionSendPassword)
				matched = true
			}
		case StateAwaitingShell:
			if i := strings.IndexAny(lower, promptChars); i >= 0 {
				d.state = StateAuthenticated
				d.buf = ""
				transitions = append(transitions, TransitionAuthenticated)
				matched = true
			}
		}

		if !matched || d.state == StateAuthenticated {
			return transitions
		}
	}
}

// State returns the current login state
func (d *loginDetector) State() LoginState {
	return d.state
}

// matchEnd returns the index just past the first occurrence of any
// keyword in s, or -1 when none is present.
func matchEnd(s string, keywords ...string) int {
	best := -1
	for _, kw := range keywords {
		if i := strings.Index(s, kw); i >= 0 {
			end := i + len(kw)
			if best == -1 || end < best {
				best = end
			}
		}
	}
	return best
}
