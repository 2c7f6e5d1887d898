package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/gorilla/websocket"
)

type subscription struct {
	fn func([]types.Call)

	mu      sync.Mutex
	stopped bool
}

// deliver runs fn unless the subscription was stopped. Holding mu while fn
// runs lets unsubscribe wait for an in-flight callback.
func (s *subscription) deliver(calls []types.Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.fn(calls)
	}
}

func (s *subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Subscribe streams snapshots from the server's /ws endpoint to fn until
// unsubscribe is called or ctx ends. Lost connections are re-established
// with exponential backoff. No callback runs after unsubscribe returns, so
// unsubscribe must not be called from inside fn.
func (c *Client) Subscribe(ctx context.Context, fn func([]types.Call)) (unsubscribe func(), err error) {
	if _, err := c.tokens.Token(); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{fn: fn}
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.run(subCtx, s)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.stop()
			cancel()
			<-done
		})
	}, nil
}

func (c *Client) run(ctx context.Context, s *subscription) {
	delay := c.initialDelay

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Debug().Err(err).Dur("retry_in", delay).Msg("subscription connect failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			continue
		}

		delay = c.initialDelay
		c.logger.Info().Msg("subscription connected")
		c.readLoop(ctx, conn, s)
		conn.Close()
		if ctx.Err() == nil {
			c.logger.Warn().Msg("subscription lost, reconnecting")
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	wsURL := c.baseURL + "/ws"
	// Convert http:// to ws:// or https:// to wss://
	if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[4:]
	}
	wsURL += "?token=" + url.QueryEscape(token)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := c.dialer.DialContext(ctx, wsURL, header)
	return conn, err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, s *subscription) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var snap types.SnapshotMessage
		if err := json.Unmarshal(message, &snap); err != nil {
			c.logger.Warn().Err(err).Msg("ignoring malformed message")
			continue
		}
		if snap.Type != types.MessageTypeSnapshot {
			continue
		}
		if snap.Calls == nil {
			snap.Calls = []types.Call{}
		}
		s.deliver(snap.Calls)
	}
}
