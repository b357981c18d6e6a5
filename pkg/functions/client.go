// Package functions calls HTTPS callable functions (POST {base}/{name}, {"data": ...} in,
// {"result": ...} or {"error": ...} out).
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/resilience"
)

// Caller invokes a named function with payload and decodes its result into out (if non-nil).
type Caller interface {
	Call(ctx context.Context, name string, payload, out any) error
}

// Error is a structured error returned by the function itself.
type Error struct {
	Function string
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("functions: %s: %s: %s", e.Function, e.Status, e.Message)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sends token as a bearer credential with every call.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithBackoff overrides the retry policy for transient failures.
func WithBackoff(b resilience.Backoff) Option {
	return func(c *Client) {
		c.backoff = b
	}
}

// Client is an HTTP Caller.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	backoff resilience.Backoff
}

// NewClient creates a client for functions deployed under baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		backoff: resilience.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callRequest struct {
	Data any `json:"data"`
}

type callResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Call posts payload to the named function. Transient failures (network, 429, 5xx) are retried.
func (c *Client) Call(ctx context.Context, name string, payload, out any) error {
	if c.baseURL == "" {
		return eris.New("functions: base url not configured")
	}
	body, err := json.Marshal(callRequest{Data: payload})
	if err != nil {
		return eris.Wrapf(err, "functions: marshal %s payload", name)
	}

	b := c.backoff
	if b.Notify == nil {
		b.Notify = resilience.LogRetries("functions", name)
	}
	raw, err := resilience.RetryValue(ctx, b, func(ctx context.Context) (json.RawMessage, error) {
		return c.do(ctx, name, body)
	})
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return eris.Wrapf(json.Unmarshal(raw, out), "functions: decode %s result", name)
}

func (c *Client) do(ctx context.Context, name string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "functions: build %s request", name)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "functions: call %s", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "functions: read %s response", name)
	}

	var parsed callResponse
	decodeErr := json.Unmarshal(data, &parsed)
	if decodeErr == nil && parsed.Error != nil {
		parsed.Error.Function = name
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(parsed.Error, resp.StatusCode)
		}
		return nil, parsed.Error
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("functions: %s returned status %d", name, resp.StatusCode)
		if resilience.IsTransientStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}
	if decodeErr != nil {
		return nil, eris.Wrapf(decodeErr, "functions: parse %s response", name)
	}
	return parsed.Result, nil
}
