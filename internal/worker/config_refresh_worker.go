package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ConfigRefresher reloads cached gateway configuration.
type ConfigRefresher interface {
	Refresh(ctx context.Context) error
}

// ConfigRefreshWorker keeps the gateway config cache warm on a fixed interval.
type ConfigRefreshWorker struct {
	refresher ConfigRefresher
	interval  time.Duration
	timeout   time.Duration
}

// NewConfigRefreshWorker constructs a ConfigRefreshWorker.
func NewConfigRefreshWorker(refresher ConfigRefresher, interval time.Duration) *ConfigRefreshWorker {
	return &ConfigRefreshWorker{
		refresher: refresher,
		interval:  interval,
		timeout:   10 * time.Second,
	}
}

// Start refreshes once, then on every tick until ctx is cancelled.
func (w *ConfigRefreshWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Config refresh worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting config refresh worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Config refresh worker stopped")
			return
		}
	}
}

func (w *ConfigRefreshWorker) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.refresher.Refresh(runCtx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh gateway config cache")
		return
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("Gateway config cache refreshed")
}
