package mikrotik

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"

	"github.com/nanoncore/nano-fleetmon/types"
)

// restClient speaks the modern REST/JSON API (RouterOS v7). Command
// paths drop the "/print" suffix the binary protocol uses.
type restClient struct {
	base     string
	username string
	password string
	http     *http.Client
}

func newRESTClient(address string, port int, useTLS bool, username, password string, timeout time.Duration) *restClient {
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	return &restClient{
		base:     fmt.Sprintf("%s://%s:%d/rest", scheme, address, port),
		username: username,
		password: password,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed device certs
			},
		},
	}
}

// restPath converts a binary command path to its REST equivalent:
// "/ppp/active/print" -> "/ppp/active".
func restPath(command string) string {
	return strings.TrimSuffix(command, "/print")
}

// Run performs GET on the command's REST path and normalizes the JSON
// array reply into the same row maps the binary protocol produces.
func (c *restClient) Run(ctx context.Context, command string) (*Reply, error) {
	body, status, err := c.do(ctx, http.MethodGet, restPath(command), "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &types.ProtocolError{Op: command, Message: fmt.Sprintf("status %d: %s", status, snippet(body))}
	}

	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%s: decode reply: %w", command, err)
	}

	reply := &Reply{}
	for _, item := range parsed.Children() {
		row := make(map[string]string)
		for key, val := range item.ChildrenMap() {
			row[key] = strings.Trim(val.String(), `"`)
		}
		reply.Rows = append(reply.Rows, row)
	}
	return reply, nil
}

// Patch updates fields of one row by its internal id
func (c *restClient) Patch(ctx context.Context, command, id string, fields map[string]string) error {
	payload := gabs.New()
	for k, v := range fields {
		if _, err := payload.Set(v, k); err != nil {
			return err
		}
	}

	path := restPath(command) + "/" + id
	body, status, err := c.do(ctx, http.MethodPatch, path, payload.String())
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &types.ProtocolError{Op: path, Message: fmt.Sprintf("status %d: %s", status, snippet(body))}
	}
	return nil
}

func (c *restClient) do(ctx context.Context, method, path, body string) ([]byte, int, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.SetBasicAuth(c.username, c.password)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	return data, resp.StatusCode, nil
}

func snippet(b []byte) string {
	s := string(b)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
