package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/hangout/internal/adapters/http/api"
)

// ErrUnexpectedStatus is returned when the service answers with a status
// the caller did not ask for.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the hangout HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a client. A non-empty secret is used to sign an admin token.
func NewClient(baseURL string, timeout time.Duration, adminSecret string) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
	if adminSecret != "" {
		tok, err := api.IssueToken([]byte(adminSecret), simulatorActor, api.AdminRole, AdminTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("issue admin token: %w", err)
		}
		c.token = tok
	}
	return c, nil
}

// do sends a JSON request and decodes the response into out when it is
// non-nil. It returns the status code; any status outside want is an error.
func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	ok := false
	for _, w := range want {
		if resp.StatusCode == w {
			ok = true
			break
		}
	}
	if !ok {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func userPath(user string, parts ...string) string {
	p := "/users/" + url.PathEscape(user)
	for _, s := range parts {
		p += "/" + url.PathEscape(s)
	}
	return p
}
