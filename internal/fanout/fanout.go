// Package fanout tells other server instances that the call collection
// changed. Receivers reload from the shared store, which pushes a fresh
// snapshot to their own websocket subscribers.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const Channel = "workforce:calls:changed"

const reloadTimeout = 10 * time.Second

// Notice is published after every successful mutation
type Notice struct {
	Instance string `json:"instance"`
	Op       string `json:"op"`
	ID       string `json:"id,omitempty"`
	At       int64  `json:"at"`
}

func EncodeNotice(n Notice) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeNotice(payload string) (Notice, error) {
	var n Notice
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return Notice{}, fmt.Errorf("decode notice: %w", err)
	}
	if n.Instance == "" {
		return Notice{}, fmt.Errorf("decode notice: missing instance")
	}
	return n, nil
}

// Reloader refreshes the local collection from the store
type Reloader interface {
	Load(ctx context.Context) error
}

type Fanout struct {
	rdb      *redis.Client
	instance string
	reload   Reloader
	logger   zerolog.Logger
}

func New(rdb *redis.Client, instance string, reload Reloader, logger zerolog.Logger) *Fanout {
	return &Fanout{
		rdb:      rdb,
		instance: instance,
		reload:   reload,
		logger:   logger.With().Str("component", "fanout").Str("instance", instance).Logger(),
	}
}

// Announce publishes a change notice for this instance
func (f *Fanout) Announce(ctx context.Context, op, id string) error {
	payload, err := EncodeNotice(Notice{Instance: f.instance, Op: op, ID: id, At: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	if err := f.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		f.logger.Error().Err(err).Str("op", op).Msg("failed to publish change notice")
		return err
	}
	return nil
}

// Run consumes notices from other instances until ctx is cancelled
func (f *Fanout) Run(ctx context.Context) {
	pubsub := f.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	f.logger.Info().Str("channel", Channel).Msg("fanout started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			f.logger.Info().Msg("fanout stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.handle(ctx, msg.Payload)
		}
	}
}

// handle reports whether the notice triggered a reload
func (f *Fanout) handle(ctx context.Context, payload string) bool {
	n, err := DecodeNotice(payload)
	if err != nil {
		f.logger.Warn().Err(err).Msg("ignoring malformed notice")
		return false
	}
	if n.Instance == f.instance {
		return false
	}

	reloadCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()
	if err := f.reload.Load(reloadCtx); err != nil {
		f.logger.Error().Err(err).Str("from", n.Instance).Msg("reload after change notice failed")
		return false
	}
	f.logger.Debug().Str("from", n.Instance).Str("op", n.Op).Str("call_id", n.ID).Msg("reloaded after change notice")
	return true
}
