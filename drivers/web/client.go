// Package web implements the HTTP/HTTPS transport used by brands whose
// CLI is unreachable but whose management web interface exposes the same
// state via CGI/REST endpoints.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

// AuthMode selects how a brand's web interface authenticates
type AuthMode int

const (
	// AuthBasic sends credentials on every request
	AuthBasic AuthMode = iota
	// AuthToken posts a login form and carries back a bearer token
	AuthToken
	// AuthCookie posts a login form and relies on the session cookie
	AuthCookie
)

// Sequence is one brand's login+fetch recipe
type Sequence struct {
	Auth AuthMode

	// LoginPath and LoginForm are used by token/cookie auth
	LoginPath string
	LoginForm func(user, pass string) url.Values

	// TokenField names the JSON field holding the bearer token
	TokenField string

	// FetchPaths are requested in order; bodies are concatenated into
	// the transcript
	FetchPaths []string
}

// Sequences maps each brand with a modeled web interface to its recipe.
// Brands absent here fall back to shell transports only.
var Sequences = map[types.Brand]Sequence{
	types.BrandCData: {
		Auth:      AuthCookie,
		LoginPath: "/action/webLogin.html",
		LoginForm: func(user, pass string) url.Values {
			return url.Values{"user": {user}, "pass": {pass}}
		},
		FetchPaths: []string{
			"/action/onuTableStatus.html",
			"/action/onuOpticalInfo.html",
		},
	},
	types.BrandVSOL: {
		Auth:       AuthToken,
		LoginPath:  "/api/v1/login",
		TokenField: "token",
		FetchPaths: []string{
			"/api/v1/onu/status",
			"/api/v1/onu/optical",
		},
	},
	types.BrandHioso: {
		Auth: AuthBasic,
		FetchPaths: []string{
			"/cgi-bin/onu_list.cgi",
			"/cgi-bin/onu_optical.cgi",
		},
	},
}

// Config for one web session
type Config struct {
	Address  string
	Port     int
	UseTLS   bool
	Username string
	Password string

	// Timeout bounds the whole login+fetch run (default 30s)
	Timeout time.Duration
}

// Client executes one brand's login+fetch sequence
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client with a cookie jar and relaxed TLS (device
// certificates are self-signed).
func NewClient(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if cfg.Port == 0 {
		if cfg.UseTLS {
			cfg.Port = 443
		} else {
			cfg.Port = 80
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed device certs
			},
		},
	}, nil
}

func (c *Client) baseURL() string {
	scheme := "http"
	if c.cfg.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.cfg.Address, c.cfg.Port)
}

// Run performs the brand's login+fetch sequence and returns the
// concatenated response bodies as the transcript.
func (c *Client) Run(ctx context.Context, brand types.Brand) (string, error) {
	seq, ok := Sequences[brand]
	if !ok {
		return "", &types.TransportError{
			Transport: types.TransportHTTP,
			Port:      c.cfg.Port,
			Err:       fmt.Errorf("brand %s has no web sequence", brand),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	token, err := c.login(ctx, seq)
	if err != nil {
		return "", &types.TransportError{Transport: types.TransportHTTP, Port: c.cfg.Port, Err: err}
	}

	var transcript strings.Builder
	for _, path := range seq.FetchPaths {
		body, err := c.fetch(ctx, seq, path, token)
		if err != nil {
			return transcript.String(), &types.TransportError{Transport: types.TransportHTTP, Port: c.cfg.Port, Err: err}
		}
		transcript.WriteString(body)
		transcript.WriteString("\n")
	}

	return transcript.String(), nil
}

// Probe checks reachability only. Auth-rejecting and redirecting
// responses still count as reachable.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !reachableStatus(resp.StatusCode) {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// reachableStatus implements the transport success criterion: 2xx, an
// auth challenge, or a redirect all mean something answered.
func reachableStatus(code int) bool {
	switch {
	case code >= 200 && code < 300:
		return true
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return true
	case code >= 300 && code < 400:
		return true
	default:
		return false
	}
}

func (c *Client) login(ctx context.Context, seq Sequence) (string, error) {
	switch seq.Auth {
	case AuthBasic:
		return "", nil // credentials ride along on every fetch

	case AuthCookie:
		form := seq.LoginForm(c.cfg.Username, c.cfg.Password)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL()+seq.LoginPath, strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("login: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("login rejected: status %d", resp.StatusCode)
		}
		return "", nil

	case AuthToken:
		payload, err := json.Marshal(map[string]string{
			"username": c.cfg.Username,
			"password": c.cfg.Password,
		})
		if err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL()+seq.LoginPath, strings.NewReader(string(payload)))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("login: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("login rejected: status %d", resp.StatusCode)
		}
		var reply map[string]interface{}
		if err := json.Unmarshal(body, &reply); err != nil {
			return "", fmt.Errorf("login reply: %w", err)
		}
		token, _ := reply[seq.TokenField].(string)
		if token == "" {
			return "", fmt.Errorf("login reply missing %q", seq.TokenField)
		}
		return token, nil

	default:
		return "", fmt.Errorf("unknown auth mode %d", seq.Auth)
	}
}

func (c *Client) fetch(ctx context.Context, seq Sequence, path, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+path, nil)
	if err != nil {
		return "", err
	}

	switch seq.Auth {
	case AuthBasic:
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	case AuthToken:
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}
	return string(body), nil
}
