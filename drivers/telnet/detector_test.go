package telnet

import (
	"testing"
)

func feedAll(d *loginDetector, chunks []string) (authCount int) {
	for _, c := range chunks {
		for _, tr := range d.Feed([]byte(c)) {
			if tr == TransitionAuthenticated {
				authCount++
			}
		}
	}
	return authCount
}

func TestLoginDetectorWholePrompts(t *testing.T) {
	d := &loginDetector{}

	if got := d.Feed([]byte("Username: ")); len(got) != 1 || got[0] != TransitionSendUsername {
		t.Fatalf("username prompt: got transitions %v", got)
	}
	if got := d.Feed([]byte("Password: ")); len(got) != 1 || got[0] != TransitionSendPassword {
		t.Fatalf("password prompt: got transitions %v", got)
	}
	if got := d.Feed([]byte("OLT> ")); len(got) != 1 || got[0] != TransitionAuthenticated {
		t.Fatalf("shell prompt: got transitions %v", got)
	}
	if d.State() != StateAuthenticated {
		t.Fatalf("state = %s, want authenticated", d.State())
	}
}

func TestLoginDetectorFragmented(t *testing.T) {
	// The same prompt text split across arbitrary byte boundaries must
	// reach authenticated exactly once.
	full := "Login: Password: switch# "
	cases := []struct {
		name   string
		splits []int
	}{
		{"byte_at_a_time", nil}, // nil = every byte separate
		{"mid_keyword", []int{3, 9, 14, 20}},
		{"two_chunks", []int{11}},
		{"single_chunk", []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var chunks []string
			if tc.splits == nil {
				for i := 0; i < len(full); i++ {
					chunks = append(chunks, full[i:i+1])
				}
			} else {
				prev := 0
				for _, s := range tc.splits {
					chunks = append(chunks, full[prev:s])
					prev = s
				}
				chunks = append(chunks, full[prev:])
			}

			d := &loginDetector{}
			if n := feedAll(d, chunks); n != 1 {
				t.Fatalf("authenticated %d times, want exactly 1", n)
			}
			if d.State() != StateAuthenticated {
				t.Fatalf("state = %s, want authenticated", d.State())
			}
		})
	}
}

func TestLoginDetectorCaseInsensitive(t *testing.T) {
	d := &loginDetector{}
	if got := d.Feed([]byte("LOGIN:")); len(got) != 1 || got[0] != TransitionSendUsername {
		t.Fatalf("uppercase login prompt: got transitions %v", got)
	}
	if got := d.Feed([]byte("PASSWORD:")); len(got) != 1 || got[0] != TransitionSendPassword {
		t.Fatalf("uppercase password prompt: got transitions %v", got)
	}
}

func TestLoginDetectorIgnoresBannerNoise(t *testing.T) {
	d := &loginDetector{}
	// Banner text without prompts must not advance the machine
	if got := d.Feed([]byte("Welcome to EPON OLT\r\nfirmware 2.1.0\r\n")); len(got) != 0 {
		t.Fatalf("banner triggered transitions %v", got)
	}
	if d.State() != StateAwaitingUsername {
		t.Fatalf("state = %s after banner, want awaiting-username", d.State())
	}
}

func TestLoginDetectorStaysAuthenticated(t *testing.T) {
	d := &loginDetector{}
	d.Feed([]byte("login: "))
	d.Feed([]byte("password: "))
	d.Feed([]byte("# "))
	// Further prompt-looking output must not re-trigger
	if got := d.Feed([]byte("interface# ")); len(got) != 0 {
		t.Fatalf("post-auth output triggered transitions %v", got)
	}
}
