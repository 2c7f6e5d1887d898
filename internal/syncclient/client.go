// Package syncclient is the remote record store: REST for writes and a
// websocket subscription for snapshots.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/session"
	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second
	requestTimeout        = 15 * time.Second
)

// TokenSource yields the bearer token of the active session
type TokenSource interface {
	Token() (string, error)
}

// Client talks to a workforce server. It satisfies storage.Store and
// repository.Subscribable.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	dialer  *websocket.Dialer
	logger  zerolog.Logger

	initialDelay time.Duration
	maxDelay     time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackoff overrides the reconnect delays
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.initialDelay = initial
		c.maxDelay = max
	}
}

func New(baseURL string, tokens TokenSource, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokens:       tokens,
		http:         &http.Client{Timeout: requestTimeout},
		dialer:       websocket.DefaultDialer,
		logger:       logger.With().Str("component", "syncclient").Logger(),
		initialDelay: initialReconnectDelay,
		maxDelay:     maxReconnectDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, storage.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, session.ErrAuthRequired)
	case resp.StatusCode >= 300:
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, eb.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func callPath(id string) string {
	return "/api/calls/" + url.PathEscape(id)
}

func (c *Client) LoadAll(ctx context.Context) ([]types.Call, error) {
	var list types.CallList
	if err := c.do(ctx, http.MethodGet, "/api/calls", nil, &list); err != nil {
		return nil, err
	}
	return list.Calls, nil
}

// Create posts the call's fields. The server assigns id and createdAt, the
// returned id is the server's.
func (c *Client) Create(ctx context.Context, call types.Call) (string, error) {
	var created types.Call
	if err := c.do(ctx, http.MethodPost, "/api/calls", call.Fields(), &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, p types.Patch) error {
	return c.do(ctx, http.MethodPatch, callPath(id), p, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, callPath(id), nil, nil)
}

var _ storage.Store = (*Client)(nil)
