package ticker

import (
	"context"
	"time"

	"github.com/dennisdiepolder/workforce/internal/metrics"
	"github.com/rs/zerolog"
)

// Source is the collection being resynced. A successful Load notifies the
// repository's listeners, which publish the fresh snapshot. Notify redelivers
// the current collection through the same ordered path.
type Source interface {
	Load(ctx context.Context) error
	Notify()
}

// Clients reports how many subscribers are connected
type Clients interface {
	ClientCount() int
}

// Ticker periodically reloads the collection from the store so that
// subscribers converge even when a change notice was missed
type Ticker struct {
	source   Source
	hub      Clients
	interval time.Duration
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(source Source, hub Clients, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		source:   source,
		hub:      hub,
		interval: interval,
		logger:   logger.With().Str("component", "ticker").Logger(),
	}
}

// Start runs resync cycles until ctx is cancelled
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case <-ticker.C:
			t.Resync(ctx)
		}
	}
}

// Resync reloads the collection. If the store cannot be read the last known
// collection is broadcast instead.
func (t *Ticker) Resync(ctx context.Context) {
	start := time.Now()
	err := t.source.Load(ctx)
	metrics.Get().RecordResync(time.Since(start), err)

	if err != nil {
		t.logger.Error().Err(err).Msg("resync failed, broadcasting last known snapshot")
		t.source.Notify()
		return
	}

	t.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("clients", t.hub.ClientCount()).
		Msg("resynced calls")
}
